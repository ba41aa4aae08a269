// internal/service/inventory/infrastructure/mapper.go
package infrastructure

import (
	"depot/internal/service/inventory/domain"
)

// ToDomainItem 将数据库模型转换为领域模型
func ToDomainItem(model *ItemModel) *domain.Item {
	if model == nil {
		return nil
	}
	return &domain.Item{
		ID:                model.ID,
		Name:              model.Name,
		Description:       model.Description,
		SKU:               model.SKU,
		Price:             model.Price,
		Category:          model.Category,
		Brand:             model.Brand,
		AvailableQuantity: model.AvailableQuantity,
		ReservedQuantity:  model.ReservedQuantity,
		IsActive:          model.IsActive,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
		Version:           model.Version,
	}
}

// FromDomainItem 将领域模型转换为数据库模型
func FromDomainItem(item *domain.Item) *ItemModel {
	if item == nil {
		return nil
	}
	return &ItemModel{
		ID:                item.ID,
		Name:              item.Name,
		Description:       item.Description,
		SKU:               item.SKU,
		Price:             item.Price,
		Category:          item.Category,
		Brand:             item.Brand,
		AvailableQuantity: item.AvailableQuantity,
		ReservedQuantity:  item.ReservedQuantity,
		IsActive:          item.IsActive,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
		Version:           item.Version,
	}
}

// ToDomainReservation 将数据库模型转换为领域模型
func ToDomainReservation(model *ReservationModel) *domain.Reservation {
	if model == nil {
		return nil
	}
	return &domain.Reservation{
		ID:         model.ID,
		Reference:  model.Reference,
		ItemID:     model.ItemID,
		CustomerID: model.CustomerID,
		Quantity:   model.Quantity,
		Status:     model.Status,
		ExpiresAt:  model.ExpiresAt,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		Version:    model.Version,
	}
}

// FromDomainReservation 将领域模型转换为数据库模型
func FromDomainReservation(r *domain.Reservation) *ReservationModel {
	if r == nil {
		return nil
	}
	return &ReservationModel{
		ID:         r.ID,
		Reference:  r.Reference,
		ItemID:     r.ItemID,
		CustomerID: r.CustomerID,
		Quantity:   r.Quantity,
		Status:     r.Status,
		ExpiresAt:  r.ExpiresAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Version:    r.Version,
	}
}

func toDomainReservations(models []ReservationModel) []*domain.Reservation {
	out := make([]*domain.Reservation, 0, len(models))
	for i := range models {
		out = append(out, ToDomainReservation(&models[i]))
	}
	return out
}

func toDomainItems(models []ItemModel) []*domain.Item {
	out := make([]*domain.Item, 0, len(models))
	for i := range models {
		out = append(out, ToDomainItem(&models[i]))
	}
	return out
}
