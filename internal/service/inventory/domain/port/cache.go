// internal/service/inventory/domain/port/cache.go
package port

import "context"

// CacheEvictor 是提交后缓存失效钩子的契约。
// 实现必须是 fire-and-forget 语义：失效失败只影响读缓存的新鲜度，
// 绝不允许让已提交的业务事务回滚。
type CacheEvictor interface {
	// EvictItem 按 id 和 sku 两个键同时失效商品缓存。
	EvictItem(ctx context.Context, itemID int64, sku string)
	// EvictReservation 失效预约缓存。
	EvictReservation(ctx context.Context, reservationID int64)
	// EvictAllItems 整体失效商品缓存。
	EvictAllItems(ctx context.Context)
}
