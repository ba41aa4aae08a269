// internal/service/inventory/domain/port/events.go
package port

import (
	"context"

	"depot/internal/service/inventory/domain"
)

// StockEventPublisher 在事务提交后对外发布库存变更事件。
// 发布失败是非致命的，由实现方记录日志。
type StockEventPublisher interface {
	Publish(ctx context.Context, event domain.StockEvent)
}
