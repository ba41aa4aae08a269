// internal/service/inventory/domain/repository.go
package domain

import (
	"context"
	"time"
)

// ItemRepository 定义了商品台账的持久化接口
// 这是领域层与基础设施层之间的“插座”
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*Item, error)
	FindBySKU(ctx context.Context, sku string) (*Item, error)

	// FindByIDForUpdate 在当前事务内以排他行锁加载商品。
	// 锁随事务提交/回滚释放；商品不存在时返回 ErrItemNotFound 而不是阻塞。
	FindByIDForUpdate(ctx context.Context, id int64) (*Item, error)
	// FindBySKUForUpdate 同上，按 SKU 加锁加载。
	FindBySKUForUpdate(ctx context.Context, sku string) (*Item, error)

	FindAll(ctx context.Context) ([]*Item, error)
	FindAvailable(ctx context.Context) ([]*Item, error)
	FindByCategory(ctx context.Context, category string) ([]*Item, error)
	FindByBrand(ctx context.Context, brand string) ([]*Item, error)

	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Save 持久化商品。对已有记录执行版本校验更新，
	// 版本不匹配时返回 ErrVersionConflict。
	Save(ctx context.Context, item *Item) error
}

// ReservationRepository 定义了预约记录的持久化接口
type ReservationRepository interface {
	FindByID(ctx context.Context, id int64) (*Reservation, error)

	// FindByIDForUpdate 在当前事务内以排他行锁加载预约。
	// REPEATABLE READ 下普通查询读的是事务开始时的快照，
	// 锁内复核必须用锁定读（当前读）才能看到竞争者已提交的状态。
	FindByIDForUpdate(ctx context.Context, id int64) (*Reservation, error)

	FindByCustomer(ctx context.Context, customerID string) ([]*Reservation, error)
	FindByItem(ctx context.Context, itemID int64) ([]*Reservation, error)

	// FindExpiredActive 查询所有 status=ACTIVE 且 expiresAt < now 的预约。
	FindExpiredActive(ctx context.Context, now time.Time) ([]*Reservation, error)

	Save(ctx context.Context, reservation *Reservation) error
}

// TxManager 提供原子性的工作单元。fn 内通过 ctx 取到的仓储操作
// 全部落在同一个事务里，fn 返回错误则整体回滚。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
