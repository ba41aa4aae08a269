// internal/service/inventory/infrastructure/tx.go
package infrastructure

import (
	"context"

	"gorm.io/gorm"
)

// txKey 用于在 context 中携带当前事务句柄。
type txKey struct{}

// GormTxManager 是 domain.TxManager 的 GORM 实现。
// 事务句柄通过 context 传递，仓储方法用 dbFromCtx 自动加入当前事务；
// 行锁随事务的提交或回滚一起释放，正好满足锁与事务同生命周期的契约。
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager 创建一个新的事务管理器
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx 在单个数据库事务中执行 fn。fn 返回错误时整体回滚。
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromCtx 返回当前事务句柄；不在事务中时退回到基础连接。
func dbFromCtx(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
