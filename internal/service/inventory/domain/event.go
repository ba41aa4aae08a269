// internal/service/inventory/domain/event.go
package domain

import "time"

// StockEventType 标识一次已提交的库存变更类型。
type StockEventType string

const (
	EventReservationCreated   StockEventType = "reservation.created"
	EventReservationCancelled StockEventType = "reservation.cancelled"
	EventReservationConfirmed StockEventType = "reservation.confirmed"
	EventReservationExpired   StockEventType = "reservation.expired"
	EventStockSupplied        StockEventType = "stock.supplied"
)

// StockEvent 是事务提交之后对外广播的领域事件。
// 它只描述已经发生的事实，消费失败不会回滚业务事务。
type StockEvent struct {
	Type          StockEventType `json:"type"`
	ItemID        int64          `json:"item_id"`
	SKU           string         `json:"sku"`
	ReservationID int64          `json:"reservation_id,omitempty"`
	CustomerID    string         `json:"customer_id,omitempty"`
	Quantity      int            `json:"quantity"`
	Available     int            `json:"available"`
	Reserved      int            `json:"reserved"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
