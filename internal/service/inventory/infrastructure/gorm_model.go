// internal/service/inventory/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"depot/internal/service/inventory/domain"
)

// ItemModel 对应数据库中的 items 表
type ItemModel struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	Name              string  `gorm:"size:255;uniqueIndex;not null"`
	Description       string  `gorm:"type:text"`
	SKU               string  `gorm:"column:sku;size:64;uniqueIndex;not null"`
	Price             float64 `gorm:"type:decimal(10,2);not null"`
	AvailableQuantity int     `gorm:"not null"`
	ReservedQuantity  int     `gorm:"not null;default:0"`
	Category          string  `gorm:"size:64;index"`
	Brand             string  `gorm:"size:64;index"`
	IsActive          bool    `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64 `gorm:"not null;default:0"`
}

// TableName 指定 GORM 应该使用的表名
func (ItemModel) TableName() string {
	return "items"
}

// ReservationModel 对应数据库中的 reservations 表
type ReservationModel struct {
	ID         int64         `gorm:"primaryKey;autoIncrement"`
	Reference  string        `gorm:"size:36;uniqueIndex;not null"`
	ItemID     int64         `gorm:"index;not null"`
	CustomerID string        `gorm:"size:64;index;not null"`
	Quantity   int           `gorm:"not null"`
	Status     domain.Status `gorm:"size:16;index;not null;default:ACTIVE"`
	ExpiresAt  time.Time     `gorm:"index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64 `gorm:"not null;default:0"`
}

// TableName 指定 GORM 应该使用的表名
func (ReservationModel) TableName() string {
	return "reservations"
}
