// internal/service/inventory/application/reservation_service.go
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

// ReservationService 编排预约的完整生命周期。
// 每个写操作都是一个独立的原子工作单元：在事务内先以排他行锁加载商品，
// 所有校验与扣减都在锁内完成，提交后才触发缓存失效与事件广播。
type ReservationService struct {
	itemRepo        domain.ItemRepository
	reservationRepo domain.ReservationRepository
	txManager       domain.TxManager
	cache           port.CacheEvictor
	events          port.StockEventPublisher
	policy          port.ReservationPolicy // 可为 nil，表示不启用准入规则
	tracer          trace.Tracer
	defaultTTL      time.Duration
}

// NewReservationService 创建一个新的预约服务实例
func NewReservationService(
	itemRepo domain.ItemRepository,
	reservationRepo domain.ReservationRepository,
	txManager domain.TxManager,
	cache port.CacheEvictor,
	events port.StockEventPublisher,
	policy port.ReservationPolicy,
	tracer trace.Tracer,
	defaultTTL time.Duration,
) *ReservationService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &ReservationService{
		itemRepo:        itemRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		cache:           cache,
		events:          events,
		policy:          policy,
		tracer:          tracer,
		defaultTTL:      defaultTTL,
	}
}

// CreateReservation 为客户创建一条库存预约。
// 商品不存在返回 ErrItemNotFound；商品不可售或库存不足分别返回
// ErrItemInactive / ErrInsufficientStock，均不产生任何副作用。
func (s *ReservationService) CreateReservation(ctx context.Context, req *CreateReservationRequest) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("item.id", req.ItemID),
		attribute.String("customer.id", req.CustomerID),
		attribute.Int("reservation.quantity", req.Quantity),
	)

	// 入参校验先行，任何校验失败都发生在第一笔写之前
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.CustomerID == "" {
		return nil, domain.ErrCustomerRequired
	}

	ttl := s.defaultTTL
	if req.ExpirationMinutes > 0 {
		ttl = time.Duration(req.ExpirationMinutes) * time.Minute
	}

	var (
		item        *domain.Item
		reservation *domain.Reservation
	)
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		// 1. 排他锁加载商品，同一商品的写操作在此串行化
		item, err = s.itemRepo.FindByIDForUpdate(txCtx, req.ItemID)
		if err != nil {
			return err
		}

		// 2. 锁内校验可售与余量
		if !item.IsSellable() {
			return domain.ErrItemInactive
		}
		if !item.HasAvailable(req.Quantity) {
			return domain.ErrInsufficientStock
		}

		// 3. 准入规则判定（如启用）
		if s.policy != nil {
			allowed, err := s.policy.Allow(txCtx, port.ReservationFact{
				SKU:        item.SKU,
				Category:   item.Category,
				Brand:      item.Brand,
				Quantity:   req.Quantity,
				CustomerID: req.CustomerID,
				Available:  item.AvailableQuantity,
			})
			if err != nil {
				return err
			}
			if !allowed {
				return domain.ErrPolicyRejected
			}
		}

		// 4. 扣减库存并持久化台账
		if err := item.Reserve(req.Quantity); err != nil {
			return err
		}
		if err := s.itemRepo.Save(txCtx, item); err != nil {
			return err
		}

		// 5. 落预约记录
		reservation, err = domain.NewReservation(item.ID, req.CustomerID, req.Quantity, ttl)
		if err != nil {
			return err
		}
		return s.reservationRepo.Save(txCtx, reservation)
	})
	if err != nil {
		s.recordFailure(ctx, span, err)
		return nil, err
	}

	// 提交之后：失效读缓存并广播事件，二者都不影响已提交的事务
	s.cache.EvictItem(ctx, item.ID, item.SKU)
	s.events.Publish(ctx, s.stockEvent(domain.EventReservationCreated, item, reservation))
	reservationsCreated.Inc()

	span.SetAttributes(attribute.Int64("reservation.id", reservation.ID))
	logger.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Int64("item_id", item.ID).
		Int("quantity", reservation.Quantity).
		Time("expires_at", reservation.ExpiresAt).
		Msg("reservation created")
	return reservation, nil
}

// CancelReservation 取消一条 ACTIVE 预约并把数量归还到可用库存。
// 非 ACTIVE 状态返回 ErrReservationNotActive，保证重复取消只生效一次。
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID int64) error {
	return s.resolve(ctx, "reservation.Cancel", reservationID, resolveCancel)
}

// ConfirmReservation 将一条 ACTIVE 预约确认为已售出。
// 占用的数量不再归还：预留计数扣减，可用计数保持不变。
func (s *ReservationService) ConfirmReservation(ctx context.Context, reservationID int64) error {
	return s.resolve(ctx, "reservation.Confirm", reservationID, resolveConfirm)
}

type resolveMode int

const (
	resolveCancel resolveMode = iota
	resolveConfirm
)

// resolve 是取消与确认共用的原子流程：
// 先无锁读出预约定位商品，再锁商品、锁内复核预约状态后执行流转。
// 商品锁串行化了同一商品下所有预约的写操作，复核保证并发竞争者中
// 只有一个真正执行库存变更。
func (s *ReservationService) resolve(ctx context.Context, spanName string, reservationID int64, mode resolveMode) error {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.Int64("reservation.id", reservationID))

	var (
		item        *domain.Item
		reservation *domain.Reservation
	)
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		// 1. 读预约，拿到商品 id；快速失败挡掉明显的非 ACTIVE 请求
		reservation, err = s.reservationRepo.FindByID(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			return domain.ErrReservationNotActive
		}

		// 2. 锁商品行
		item, err = s.itemRepo.FindByIDForUpdate(txCtx, reservation.ItemID)
		if err != nil {
			return err
		}

		// 3. 锁内复核：并发的取消/过期可能在拿锁期间抢先提交。
		// 必须用锁定读，普通查询只能看到事务开始时的快照
		reservation, err = s.reservationRepo.FindByIDForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			return domain.ErrReservationNotActive
		}

		// 4. 库存流转
		switch mode {
		case resolveCancel:
			if err := item.Release(reservation.Quantity); err != nil {
				return err
			}
			if err := reservation.Cancel(); err != nil {
				return err
			}
		case resolveConfirm:
			if err := item.Fulfill(reservation.Quantity); err != nil {
				return err
			}
			if err := reservation.Confirm(); err != nil {
				return err
			}
		}

		if err := s.itemRepo.Save(txCtx, item); err != nil {
			return err
		}
		return s.reservationRepo.Save(txCtx, reservation)
	})
	if err != nil {
		s.recordFailure(ctx, span, err)
		return err
	}

	s.cache.EvictItem(ctx, item.ID, item.SKU)
	s.cache.EvictReservation(ctx, reservation.ID)
	switch mode {
	case resolveCancel:
		s.events.Publish(ctx, s.stockEvent(domain.EventReservationCancelled, item, reservation))
		reservationsCancelled.Inc()
	case resolveConfirm:
		s.events.Publish(ctx, s.stockEvent(domain.EventReservationConfirmed, item, reservation))
		reservationsConfirmed.Inc()
	}

	logger.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Int64("item_id", item.ID).
		Str("status", string(reservation.Status)).
		Msg("reservation resolved")
	return nil
}

// GetReservation 返回预约的提交后快照，不加任何锁。
func (s *ReservationService) GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	return s.reservationRepo.FindByID(ctx, reservationID)
}

// ListReservationsByCustomer 列出某客户的全部预约。
func (s *ReservationService) ListReservationsByCustomer(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	return s.reservationRepo.FindByCustomer(ctx, customerID)
}

// ListReservationsByItem 列出某商品下的全部预约。
func (s *ReservationService) ListReservationsByItem(ctx context.Context, itemID int64) ([]*domain.Reservation, error) {
	return s.reservationRepo.FindByItem(ctx, itemID)
}

func (s *ReservationService) stockEvent(eventType domain.StockEventType, item *domain.Item, r *domain.Reservation) domain.StockEvent {
	return domain.StockEvent{
		Type:          eventType,
		ItemID:        item.ID,
		SKU:           item.SKU,
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		Quantity:      r.Quantity,
		Available:     item.AvailableQuantity,
		Reserved:      item.ReservedQuantity,
		OccurredAt:    time.Now(),
	}
}

func (s *ReservationService) recordFailure(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrItemInactive) {
		reservationConflicts.Inc()
	}
	if errors.Is(err, domain.ErrInconsistentState) || errors.Is(err, domain.ErrVersionConflict) {
		// 不变量被破坏属于内部严重错误，必须显式暴露
		logger.Ctx(ctx).Error().Err(err).Msg("CRITICAL: stock bookkeeping invariant violated")
	}
}
