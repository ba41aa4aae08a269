// internal/service/inventory/domain/port/policy.go
package port

import "context"

// ReservationFact 是准入规则可以观察到的全部事实。
type ReservationFact struct {
	SKU        string `json:"sku"`
	Category   string `json:"category"`
	Brand      string `json:"brand"`
	Quantity   int    `json:"quantity"`
	CustomerID string `json:"customer_id"`
	Available  int    `json:"available"`
}

// ReservationPolicy 在扣减库存之前对预约请求做准入判定。
// 返回 false 表示拒绝本次预约；err 表示规则本身无法求值。
type ReservationPolicy interface {
	Allow(ctx context.Context, fact ReservationFact) (bool, error)
}
