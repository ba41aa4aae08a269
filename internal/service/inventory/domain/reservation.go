// internal/service/inventory/domain/reservation.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation 是一次对库存的临时占用。
// 从 ACTIVE 出发只能进入一个终态；终态之后除时间戳外不可变。
type Reservation struct {
	ID         int64
	Reference  string // 对外暴露的业务引用号
	ItemID     int64
	CustomerID string
	Quantity   int
	Status     Status
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
}

// NewReservation 工厂函数，创建一条 ACTIVE 状态的预约。
// ttl 是本次占用的有效时长，到期后由扫描器回收。
func NewReservation(itemID int64, customerID string, quantity int, ttl time.Duration) (*Reservation, error) {
	if customerID == "" {
		return nil, ErrCustomerRequired
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now()
	return &Reservation{
		Reference:  uuid.New().String(),
		ItemID:     itemID,
		CustomerID: customerID,
		Quantity:   quantity,
		Status:     StatusActive,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Cancel 将预约流转为 CANCELLED。只允许从 ACTIVE 出发。
func (r *Reservation) Cancel() error {
	return r.transition(StatusCancelled)
}

// Confirm 将预约流转为 CONFIRMED，占用的库存转为已售出、不再归还。
func (r *Reservation) Confirm() error {
	return r.transition(StatusConfirmed)
}

// MarkExpired 由过期扫描器调用，将预约流转为 EXPIRED。
func (r *Reservation) MarkExpired() error {
	return r.transition(StatusExpired)
}

func (r *Reservation) transition(target Status) error {
	if r.Status != StatusActive {
		return ErrReservationNotActive
	}
	r.Status = target
	r.UpdatedAt = time.Now()
	return nil
}

// IsActive 判断预约当前是否仍在占用库存。
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// IsOverdue 判断预约在 now 时刻是否已超过有效期。
func (r *Reservation) IsOverdue(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
