// internal/service/inventory/domain/item_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T, available int) *Item {
	t.Helper()
	item, err := NewItem("MacBook Pro", "16寸 M3", "SKU-MBP-16", 19999.00, available, "laptop", "apple")
	require.NoError(t, err)
	return item
}

func TestNewItem_Validation(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		sku      string
		price    float64
		quantity int
		wantErr  error
	}{
		{"missing name", "", "SKU-1", 10, 1, ErrNameRequired},
		{"missing sku", "item", "", 10, 1, ErrSKURequired},
		{"zero price", "item", "SKU-1", 0, 1, ErrInvalidPrice},
		{"negative price", "item", "SKU-1", -1, 1, ErrInvalidPrice},
		{"negative quantity", "item", "SKU-1", 10, -1, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewItem(tt.itemName, "", tt.sku, tt.price, tt.quantity, "", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewItem_Defaults(t *testing.T) {
	item := newTestItem(t, 10)

	assert.True(t, item.IsActive)
	assert.Equal(t, 10, item.AvailableQuantity)
	assert.Equal(t, 0, item.ReservedQuantity)
}

func TestItem_Reserve(t *testing.T) {
	item := newTestItem(t, 10)

	require.NoError(t, item.Reserve(3))

	assert.Equal(t, 7, item.AvailableQuantity)
	assert.Equal(t, 3, item.ReservedQuantity)
	assert.Equal(t, 10, item.TotalQuantity())
}

func TestItem_Reserve_InsufficientStock(t *testing.T) {
	item := newTestItem(t, 2)

	err := item.Reserve(3)

	assert.ErrorIs(t, err, ErrInsufficientStock)
	// 失败的扣减不能留下任何痕迹
	assert.Equal(t, 2, item.AvailableQuantity)
	assert.Equal(t, 0, item.ReservedQuantity)
}

func TestItem_Reserve_ExactlyAvailable(t *testing.T) {
	item := newTestItem(t, 5)

	require.NoError(t, item.Reserve(5))

	assert.Equal(t, 0, item.AvailableQuantity)
	assert.Equal(t, 5, item.ReservedQuantity)
}

func TestItem_Reserve_InvalidQuantity(t *testing.T) {
	item := newTestItem(t, 5)

	assert.ErrorIs(t, item.Reserve(0), ErrInvalidQuantity)
	assert.ErrorIs(t, item.Reserve(-1), ErrInvalidQuantity)
}

func TestItem_Release_RestoresAvailable(t *testing.T) {
	item := newTestItem(t, 10)
	require.NoError(t, item.Reserve(4))

	require.NoError(t, item.Release(4))

	assert.Equal(t, 10, item.AvailableQuantity)
	assert.Equal(t, 0, item.ReservedQuantity)
}

func TestItem_Release_MoreThanReserved(t *testing.T) {
	item := newTestItem(t, 10)
	require.NoError(t, item.Reserve(2))

	err := item.Release(3)

	assert.ErrorIs(t, err, ErrInconsistentState)
	assert.Equal(t, 8, item.AvailableQuantity)
	assert.Equal(t, 2, item.ReservedQuantity)
}

func TestItem_Fulfill_DoesNotRestoreAvailable(t *testing.T) {
	item := newTestItem(t, 10)
	require.NoError(t, item.Reserve(4))

	require.NoError(t, item.Fulfill(4))

	// 确认后库存真正流出，总量减少
	assert.Equal(t, 6, item.AvailableQuantity)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 6, item.TotalQuantity())
}

func TestItem_Fulfill_MoreThanReserved(t *testing.T) {
	item := newTestItem(t, 10)
	require.NoError(t, item.Reserve(1))

	assert.ErrorIs(t, item.Fulfill(2), ErrInconsistentState)
}

func TestItem_AddSupply(t *testing.T) {
	item := newTestItem(t, 1)

	require.NoError(t, item.AddSupply(9))

	assert.Equal(t, 10, item.AvailableQuantity)
	assert.ErrorIs(t, item.AddSupply(0), ErrInvalidQuantity)
	assert.ErrorIs(t, item.AddSupply(-5), ErrInvalidQuantity)
}

func TestItem_HasAvailable(t *testing.T) {
	item := newTestItem(t, 3)

	assert.True(t, item.HasAvailable(3))
	assert.False(t, item.HasAvailable(4))
}

func TestItem_IsSellable(t *testing.T) {
	item := newTestItem(t, 3)
	assert.True(t, item.IsSellable())

	item.IsActive = false
	assert.False(t, item.IsSellable())
}
