// internal/service/inventory/infrastructure/adapter/composite_publisher.go
package adapter

import (
	"context"

	"depot/internal/service/inventory/domain"
	"depot/internal/service/inventory/domain/port"
)

// CompositePublisher 把同一个库存事件依次交给多个下游（Kafka、WebSocket 等）。
// 每个下游自行吞掉自己的失败，发布方只管提交一次。
type CompositePublisher struct {
	targets []port.StockEventPublisher
}

// NewCompositePublisher 创建组合发布器，nil 目标会被跳过
func NewCompositePublisher(targets ...port.StockEventPublisher) *CompositePublisher {
	kept := make([]port.StockEventPublisher, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &CompositePublisher{targets: kept}
}

// Publish 按注册顺序广播事件
func (p *CompositePublisher) Publish(ctx context.Context, event domain.StockEvent) {
	for _, target := range p.targets {
		target.Publish(ctx, event)
	}
}
