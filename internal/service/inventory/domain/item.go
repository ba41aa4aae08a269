// internal/service/inventory/domain/item.go
package domain

import (
	"time"
)

// Item 是库存台账的聚合根。
// AvailableQuantity 和 ReservedQuantity 只能通过本实体的方法变更，
// 两者之和仅在 AddSupply 时增长，Reserve/Release 只在两个口袋之间搬运。
type Item struct {
	ID          int64
	Name        string
	Description string
	SKU         string
	Price       float64
	Category    string
	Brand       string

	AvailableQuantity int
	ReservedQuantity  int

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version 供仓储做提交前的乐观校验，领域逻辑不读它
	Version int64
}

// NewItem 工厂函数，校验必填字段后创建一个上架状态的商品。
func NewItem(name, description, sku string, price float64, availableQuantity int, category, brand string) (*Item, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if sku == "" {
		return nil, ErrSKURequired
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if availableQuantity < 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now()
	return &Item{
		Name:              name,
		Description:       description,
		SKU:               sku,
		Price:             price,
		Category:          category,
		Brand:             brand,
		AvailableQuantity: availableQuantity,
		ReservedQuantity:  0,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Reserve 将 quantity 从可用库存搬到预留库存。
// 必须在持有该商品行锁的事务内调用。
func (i *Item) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.AvailableQuantity < quantity {
		return ErrInsufficientStock
	}
	i.AvailableQuantity -= quantity
	i.ReservedQuantity += quantity
	i.UpdatedAt = time.Now()
	return nil
}

// Release 是 Reserve 的精确逆操作，把 quantity 归还到可用库存。
// 预留量不足说明账目已经被破坏，返回 ErrInconsistentState 而不是静默截断。
func (i *Item) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.ReservedQuantity < quantity {
		return ErrInconsistentState
	}
	i.ReservedQuantity -= quantity
	i.AvailableQuantity += quantity
	i.UpdatedAt = time.Now()
	return nil
}

// Fulfill 在预约被确认时调用：占用的数量转为已售出，
// 只扣减预留库存，不归还可用库存。
func (i *Item) Fulfill(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.ReservedQuantity < quantity {
		return ErrInconsistentState
	}
	i.ReservedQuantity -= quantity
	i.UpdatedAt = time.Now()
	return nil
}

// AddSupply 补货，只增加可用库存。
func (i *Item) AddSupply(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.AvailableQuantity += quantity
	i.UpdatedAt = time.Now()
	return nil
}

// HasAvailable 判断可用库存是否满足请求数量。
func (i *Item) HasAvailable(quantity int) bool {
	return i.AvailableQuantity >= quantity
}

// IsSellable 判断商品是否可售。
func (i *Item) IsSellable() bool {
	return i.IsActive
}

// TotalQuantity 返回可用与预留之和。
func (i *Item) TotalQuantity() int {
	return i.AvailableQuantity + i.ReservedQuantity
}
