// internal/service/inventory/application/dto.go
package application

// CreateItemRequest 是创建商品的入参。
type CreateItemRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	SKU               string  `json:"sku"`
	Price             float64 `json:"price"`
	AvailableQuantity int     `json:"available_quantity"`
	Category          string  `json:"category"`
	Brand             string  `json:"brand"`
}

// CreateReservationRequest 是创建预约的入参。
// ExpirationMinutes 为 0 时使用服务配置的默认保留时长。
type CreateReservationRequest struct {
	ItemID            int64  `json:"item_id"`
	CustomerID        string `json:"customer_id"`
	Quantity          int    `json:"quantity"`
	ExpirationMinutes int    `json:"expiration_minutes"`
}
