// internal/service/inventory/application/item_service.go
package application

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"depot/internal/pkg/logger"
	"depot/internal/service/inventory/domain"
	"depot/internal/service/inventory/domain/port"
)

// ItemService 提供商品目录与补货操作。
// 补货与预约共用同一把商品行锁，保证台账变更的全序。
type ItemService struct {
	itemRepo  domain.ItemRepository
	txManager domain.TxManager
	cache     port.CacheEvictor
	events    port.StockEventPublisher
	tracer    trace.Tracer
}

// NewItemService 创建一个新的商品服务实例
func NewItemService(
	itemRepo domain.ItemRepository,
	txManager domain.TxManager,
	cache port.CacheEvictor,
	events port.StockEventPublisher,
	tracer trace.Tracer,
) *ItemService {
	return &ItemService{
		itemRepo:  itemRepo,
		txManager: txManager,
		cache:     cache,
		events:    events,
		tracer:    tracer,
	}
}

// CreateItem 创建商品。重复的 sku 或名称在任何写入之前被拒绝；
// 与并发创建的竞争由唯一索引兜底（同样映射为重复错误）。
func (s *ItemService) CreateItem(ctx context.Context, req *CreateItemRequest) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "item.Create")
	defer span.End()
	span.SetAttributes(attribute.String("item.sku", req.SKU))

	item, err := domain.NewItem(req.Name, req.Description, req.SKU, req.Price, req.AvailableQuantity, req.Category, req.Brand)
	if err != nil {
		return nil, err
	}

	if exists, err := s.itemRepo.ExistsBySKU(ctx, req.SKU); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrDuplicateSKU
	}
	if exists, err := s.itemRepo.ExistsByName(ctx, req.Name); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrDuplicateName
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist item")
		return nil, err
	}

	s.cache.EvictItem(ctx, item.ID, item.SKU)
	logger.Ctx(ctx).Info().Int64("item_id", item.ID).Str("sku", item.SKU).Msg("item created")
	return item, nil
}

// GetItemByID 返回商品的提交后快照。
func (s *ItemService) GetItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	return s.itemRepo.FindByID(ctx, id)
}

// GetItemBySKU 按 SKU 返回商品。
func (s *ItemService) GetItemBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	return s.itemRepo.FindBySKU(ctx, sku)
}

// ListItems 列出全部商品。
func (s *ItemService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return s.itemRepo.FindAll(ctx)
}

// ListAvailableItems 列出可售且有余量的商品。
func (s *ItemService) ListAvailableItems(ctx context.Context) ([]*domain.Item, error) {
	return s.itemRepo.FindAvailable(ctx)
}

// ListItemsByCategory 列出某分类下的可售商品。
func (s *ItemService) ListItemsByCategory(ctx context.Context, category string) ([]*domain.Item, error) {
	return s.itemRepo.FindByCategory(ctx, category)
}

// ListItemsByBrand 列出某品牌下的可售商品。
func (s *ItemService) ListItemsByBrand(ctx context.Context, brand string) ([]*domain.Item, error) {
	return s.itemRepo.FindByBrand(ctx, brand)
}

// AddSupply 为商品补货。quantity 必须为正数。
func (s *ItemService) AddSupply(ctx context.Context, itemID int64, quantity int) (*domain.Item, error) {
	return s.addSupply(ctx, quantity, func(txCtx context.Context) (*domain.Item, error) {
		return s.itemRepo.FindByIDForUpdate(txCtx, itemID)
	})
}

// AddSupplyBySKU 按 SKU 为商品补货。
func (s *ItemService) AddSupplyBySKU(ctx context.Context, sku string, quantity int) (*domain.Item, error) {
	return s.addSupply(ctx, quantity, func(txCtx context.Context) (*domain.Item, error) {
		return s.itemRepo.FindBySKUForUpdate(txCtx, sku)
	})
}

func (s *ItemService) addSupply(ctx context.Context, quantity int, load func(ctx context.Context) (*domain.Item, error)) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "item.AddSupply")
	defer span.End()
	span.SetAttributes(attribute.Int("supply.quantity", quantity))

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var item *domain.Item
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = load(txCtx)
		if err != nil {
			return err
		}
		if err := item.AddSupply(quantity); err != nil {
			return err
		}
		return s.itemRepo.Save(txCtx, item)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.cache.EvictItem(ctx, item.ID, item.SKU)
	s.events.Publish(ctx, domain.StockEvent{
		Type:       domain.EventStockSupplied,
		ItemID:     item.ID,
		SKU:        item.SKU,
		Quantity:   quantity,
		Available:  item.AvailableQuantity,
		Reserved:   item.ReservedQuantity,
		OccurredAt: time.Now(),
	})
	logger.Ctx(ctx).Info().
		Int64("item_id", item.ID).
		Int("quantity", quantity).
		Int("available", item.AvailableQuantity).
		Msg("supply added")
	return item, nil
}

// CheckAvailability 判断商品是否可售且余量满足请求。
// 商品不存在时视为不可用，不返回错误。
func (s *ItemService) CheckAvailability(ctx context.Context, itemID int64, quantity int) (bool, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	return s.availability(item, quantity, err)
}

// CheckAvailabilityBySKU 按 SKU 判断可用性。
func (s *ItemService) CheckAvailabilityBySKU(ctx context.Context, sku string, quantity int) (bool, error) {
	item, err := s.itemRepo.FindBySKU(ctx, sku)
	return s.availability(item, quantity, err)
}

func (s *ItemService) availability(item *domain.Item, quantity int, err error) (bool, error) {
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return false, nil
		}
		return false, err
	}
	return item.IsSellable() && item.HasAvailable(quantity), nil
}

// EvictAllItemCache 整体失效商品读缓存。
func (s *ItemService) EvictAllItemCache(ctx context.Context) {
	s.cache.EvictAllItems(ctx)
}
