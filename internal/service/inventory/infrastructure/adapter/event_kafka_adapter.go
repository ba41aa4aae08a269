// internal/service/inventory/infrastructure/adapter/event_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"depot/internal/pkg/logger"
	"depot/internal/pkg/mq"
	"depot/internal/service/inventory/domain"
)

// StockEventKafkaAdapter 实现了 port.StockEventPublisher 接口。
// 事件以 item_id 为 key 写入，保证同一商品的事件在分区内有序。
type StockEventKafkaAdapter struct {
	writer *kafka.Writer
}

// NewStockEventKafkaAdapter 创建一个新的库存事件生产者适配器。
func NewStockEventKafkaAdapter(writer *kafka.Writer) *StockEventKafkaAdapter {
	return &StockEventKafkaAdapter{writer: writer}
}

// Publish 发布一条已提交的库存变更事件。
// 发布失败只记日志：事件是事实的广播，不参与业务事务。
func (a *StockEventKafkaAdapter) Publish(ctx context.Context, event domain.StockEvent) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event", string(event.Type)).Msg("failed to marshal stock event")
		return
	}

	key := []byte(strconv.FormatInt(event.ItemID, 10))
	if err := mq.ProduceMessage(ctx, a.writer, key, eventBytes); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("event", string(event.Type)).
			Int64("item_id", event.ItemID).
			Msg("failed to publish stock event")
	}
}

// Close 关闭底层的 Kafka writer。
func (a *StockEventKafkaAdapter) Close() error {
	return a.writer.Close()
}
