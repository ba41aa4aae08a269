// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"depot/internal/service/inventory/domain"
)

// MySQL 服务端错误码
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// translateMySQLError 把驱动层错误翻译成领域错误。
// 锁等待超时和死锁都属于可安全重试的瞬态冲突。
func translateMySQLError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrDuplicateEntry:
			if strings.Contains(myErr.Message, "name") {
				return domain.ErrDuplicateName
			}
			return domain.ErrDuplicateSKU
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return domain.ErrLockTimeout
		}
	}
	return err
}

// GormItemRepository 是 domain.ItemRepository 的 GORM 实现
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository 创建一个新的商品仓储实例
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

func (r *GormItemRepository) FindBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	return r.findOne(ctx, false, "sku = ?", sku)
}

// FindByIDForUpdate 以 SELECT ... FOR UPDATE 加排他行锁加载商品。
// 必须在 TxManager.WithinTx 内调用，锁随事务结束释放。
func (r *GormItemRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Item, error) {
	return r.findOne(ctx, true, "id = ?", id)
}

func (r *GormItemRepository) FindBySKUForUpdate(ctx context.Context, sku string) (*domain.Item, error) {
	return r.findOne(ctx, true, "sku = ?", sku)
}

func (r *GormItemRepository) findOne(ctx context.Context, forUpdate bool, query string, args ...interface{}) (*domain.Item, error) {
	tx := dbFromCtx(ctx, r.db)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model ItemModel
	if err := tx.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, errors.Wrap(translateMySQLError(err), "failed to load item")
	}
	return ToDomainItem(&model), nil
}

func (r *GormItemRepository) FindAll(ctx context.Context) ([]*domain.Item, error) {
	return r.findMany(ctx, "")
}

func (r *GormItemRepository) FindAvailable(ctx context.Context) ([]*domain.Item, error) {
	return r.findMany(ctx, "available_quantity > 0 AND is_active = true")
}

func (r *GormItemRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Item, error) {
	return r.findMany(ctx, "category = ? AND is_active = true", category)
}

func (r *GormItemRepository) FindByBrand(ctx context.Context, brand string) ([]*domain.Item, error) {
	return r.findMany(ctx, "brand = ? AND is_active = true", brand)
}

func (r *GormItemRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*domain.Item, error) {
	tx := dbFromCtx(ctx, r.db)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	var models []ItemModel
	if err := tx.Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(translateMySQLError(err), "failed to list items")
	}
	return toDomainItems(models), nil
}

func (r *GormItemRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	return r.exists(ctx, "sku = ?", sku)
}

func (r *GormItemRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name = ?", name)
}

func (r *GormItemRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := dbFromCtx(ctx, r.db).Model(&ItemModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, errors.Wrap(translateMySQLError(err), "failed to check item existence")
	}
	return count > 0, nil
}

// Save 持久化商品。更新走版本校验：WHERE id AND version 命中零行
// 意味着有写入绕过了行锁，返回 ErrVersionConflict 拒绝提交。
func (r *GormItemRepository) Save(ctx context.Context, item *domain.Item) error {
	tx := dbFromCtx(ctx, r.db)

	if item.ID == 0 {
		model := FromDomainItem(item)
		if err := tx.Create(model).Error; err != nil {
			return errors.Wrap(translateMySQLError(err), "failed to insert item")
		}
		item.ID = model.ID
		return nil
	}

	result := tx.Model(&ItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"name":               item.Name,
			"description":        item.Description,
			"sku":                item.SKU,
			"price":              item.Price,
			"available_quantity": item.AvailableQuantity,
			"reserved_quantity":  item.ReservedQuantity,
			"category":           item.Category,
			"brand":              item.Brand,
			"is_active":          item.IsActive,
			"updated_at":         item.UpdatedAt,
			"version":            item.Version + 1,
		})
	if result.Error != nil {
		return errors.Wrap(translateMySQLError(result.Error), "failed to update item")
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	item.Version++
	return nil
}

// GormReservationRepository 是 domain.ReservationRepository 的 GORM 实现
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository 创建一个新的预约仓储实例
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.findOne(ctx, false, id)
}

// FindByIDForUpdate 以 SELECT ... FOR UPDATE 重新加载预约。
// 普通 SELECT 在 REPEATABLE READ 下只能看到事务快照，锁内复核
// 必须走锁定读才能看到竞争者在拿锁期间提交的状态流转。
func (r *GormReservationRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.findOne(ctx, true, id)
}

func (r *GormReservationRepository) findOne(ctx context.Context, forUpdate bool, id int64) (*domain.Reservation, error) {
	tx := dbFromCtx(ctx, r.db)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model ReservationModel
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, errors.Wrap(translateMySQLError(err), "failed to load reservation")
	}
	return ToDomainReservation(&model), nil
}

func (r *GormReservationRepository) FindByCustomer(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	return r.findMany(ctx, "customer_id = ?", customerID)
}

func (r *GormReservationRepository) FindByItem(ctx context.Context, itemID int64) ([]*domain.Reservation, error) {
	return r.findMany(ctx, "item_id = ?", itemID)
}

// FindExpiredActive 查询所有已超期但仍占用库存的预约。
func (r *GormReservationRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Reservation, error) {
	return r.findMany(ctx, "status = ? AND expires_at < ?", domain.StatusActive, now)
}

func (r *GormReservationRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*domain.Reservation, error) {
	var models []ReservationModel
	if err := dbFromCtx(ctx, r.db).Where(query, args...).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(translateMySQLError(err), "failed to list reservations")
	}
	return toDomainReservations(models), nil
}

// Save 持久化预约，更新逻辑与商品仓储相同的版本校验。
func (r *GormReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	tx := dbFromCtx(ctx, r.db)

	if reservation.ID == 0 {
		model := FromDomainReservation(reservation)
		if err := tx.Create(model).Error; err != nil {
			return errors.Wrap(translateMySQLError(err), "failed to insert reservation")
		}
		reservation.ID = model.ID
		return nil
	}

	result := tx.Model(&ReservationModel{}).
		Where("id = ? AND version = ?", reservation.ID, reservation.Version).
		Updates(map[string]interface{}{
			"status":     reservation.Status,
			"expires_at": reservation.ExpiresAt,
			"updated_at": reservation.UpdatedAt,
			"version":    reservation.Version + 1,
		})
	if result.Error != nil {
		return errors.Wrap(translateMySQLError(result.Error), "failed to update reservation")
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	reservation.Version++
	return nil
}
