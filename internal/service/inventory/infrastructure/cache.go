// internal/service/inventory/infrastructure/cache.go
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"depot/internal/pkg/logger"
	"depot/internal/pkg/redis"
)

const evictTimeout = 2 * time.Second

// RedisCacheEvictor 是 port.CacheEvictor 的 Redis 实现。
// 读路径按 item:id:<id> / item:sku:<sku> / reservation:id:<id> 填充缓存，
// 这里只负责在提交后删除对应的键。所有失败只记日志。
type RedisCacheEvictor struct {
	client *redis.Client
}

// NewRedisCacheEvictor 创建一个新的缓存失效器
func NewRedisCacheEvictor(client *redis.Client) *RedisCacheEvictor {
	return &RedisCacheEvictor{client: client}
}

// EvictItem 同时失效 id 键和 sku 键，两个键指向同一份商品数据。
func (e *RedisCacheEvictor) EvictItem(ctx context.Context, itemID int64, sku string) {
	e.evict(ctx, fmt.Sprintf("item:id:%d", itemID), fmt.Sprintf("item:sku:%s", sku))
}

func (e *RedisCacheEvictor) EvictReservation(ctx context.Context, reservationID int64) {
	e.evict(ctx, fmt.Sprintf("reservation:id:%d", reservationID))
}

// EvictAllItems 整体失效商品缓存。
func (e *RedisCacheEvictor) EvictAllItems(ctx context.Context) {
	// 与业务事务解耦：用独立的超时上下文，不继承调用方的取消
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), evictTimeout)
	defer cancel()
	if err := e.client.DelByPattern(opCtx, "item:*"); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("failed to evict all item cache entries")
	}
}

func (e *RedisCacheEvictor) evict(ctx context.Context, keys ...string) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), evictTimeout)
	defer cancel()
	if err := e.client.Del(opCtx, keys...); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Strs("keys", keys).Msg("failed to evict cache entries")
	}
}
