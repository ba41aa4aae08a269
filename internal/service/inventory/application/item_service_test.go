// internal/service/inventory/application/item_service_test.go
package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"depot/internal/service/inventory/domain"
)

type itemFixture struct {
	store   *fakeStore
	cache   *fakeCache
	service *ItemService
}

func setupItemService(t *testing.T) *itemFixture {
	t.Helper()
	store := newFakeStore()
	cache := &fakeCache{}
	service := NewItemService(
		&fakeItemRepo{store: store},
		fakeTxManager{store: store},
		cache,
		&fakePublisher{},
		otel.Tracer("test"),
	)
	return &itemFixture{store: store, cache: cache, service: service}
}

func TestCreateItem(t *testing.T) {
	fx := setupItemService(t)

	item, err := fx.service.CreateItem(context.Background(), &CreateItemRequest{
		Name:              "AirPods Pro",
		SKU:               "SKU-APP-2",
		Price:             1899.00,
		AvailableQuantity: 50,
		Category:          "audio",
		Brand:             "apple",
	})
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.True(t, item.IsActive)
	assert.Equal(t, 50, fx.store.item(item.ID).AvailableQuantity)
}

func TestCreateItem_Duplicates(t *testing.T) {
	fx := setupItemService(t)
	_, err := fx.service.CreateItem(context.Background(), &CreateItemRequest{
		Name: "AirPods Pro", SKU: "SKU-APP-2", Price: 1899.00,
	})
	require.NoError(t, err)

	_, err = fx.service.CreateItem(context.Background(), &CreateItemRequest{
		Name: "其他商品", SKU: "SKU-APP-2", Price: 1.00,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)

	_, err = fx.service.CreateItem(context.Background(), &CreateItemRequest{
		Name: "AirPods Pro", SKU: "SKU-OTHER", Price: 1.00,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestAddSupply(t *testing.T) {
	fx := setupItemService(t)
	item := seedItem(t, fx.store, 5)

	updated, err := fx.service.AddSupply(context.Background(), item.ID, 20)
	require.NoError(t, err)

	assert.Equal(t, 25, updated.AvailableQuantity)
	assert.Equal(t, 25, fx.store.item(item.ID).AvailableQuantity)
	assert.Contains(t, fx.cache.evictedItems, item.ID)
}

func TestAddSupply_Failures(t *testing.T) {
	fx := setupItemService(t)
	item := seedItem(t, fx.store, 5)

	_, err := fx.service.AddSupply(context.Background(), item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = fx.service.AddSupply(context.Background(), 999, 10)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	assert.Equal(t, 5, fx.store.item(item.ID).AvailableQuantity)
}

func TestAddSupplyBySKU(t *testing.T) {
	fx := setupItemService(t)
	item := seedItem(t, fx.store, 5)

	updated, err := fx.service.AddSupplyBySKU(context.Background(), item.SKU, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.AvailableQuantity)
}

func TestCheckAvailability(t *testing.T) {
	fx := setupItemService(t)
	item := seedItem(t, fx.store, 5)

	ok, err := fx.service.CheckAvailability(context.Background(), item.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.service.CheckAvailability(context.Background(), item.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	// 商品不存在视为不可用，不是错误
	ok, err = fx.service.CheckAvailability(context.Background(), 999, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckAvailability_InactiveItem(t *testing.T) {
	fx := setupItemService(t)
	item := seedItem(t, fx.store, 5)
	fx.store.mu.Lock()
	fx.store.items[item.ID].IsActive = false
	fx.store.mu.Unlock()

	ok, err := fx.service.CheckAvailability(context.Background(), item.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListItems(t *testing.T) {
	fx := setupItemService(t)
	_, err := fx.service.CreateItem(context.Background(), &CreateItemRequest{
		Name: "iPhone 15", SKU: "SKU-1", Price: 5999, AvailableQuantity: 3, Category: "phone", Brand: "apple",
	})
	require.NoError(t, err)
	_, err = fx.service.CreateItem(context.Background(), &CreateItemRequest{
		Name: "Galaxy S24", SKU: "SKU-2", Price: 5499, AvailableQuantity: 0, Category: "phone", Brand: "samsung",
	})
	require.NoError(t, err)

	all, err := fx.service.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := fx.service.ListAvailableItems(context.Background())
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "SKU-1", available[0].SKU)

	phones, err := fx.service.ListItemsByCategory(context.Background(), "phone")
	require.NoError(t, err)
	assert.Len(t, phones, 2)

	samsung, err := fx.service.ListItemsByBrand(context.Background(), "samsung")
	require.NoError(t, err)
	assert.Len(t, samsung, 1)
}

func TestEvictAllItemCache(t *testing.T) {
	fx := setupItemService(t)

	fx.service.EvictAllItemCache(context.Background())
	assert.Equal(t, 1, fx.cache.evictedAllCount)
}
