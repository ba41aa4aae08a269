// internal/service/inventory/application/sweeper.go
package application

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"depot/internal/pkg/logger"
	"depot/internal/service/inventory/domain"
	"depot/internal/service/inventory/domain/port"
)

// ExpirationSweeper 回收超期的 ACTIVE 预约。
// 调度由外部负责（cmd/stock-sweeper 的 ticker），这里只保证
// 单次 Sweep 的正确性：每条预约独立事务、锁内复核、互不阻塞。
type ExpirationSweeper struct {
	itemRepo        domain.ItemRepository
	reservationRepo domain.ReservationRepository
	txManager       domain.TxManager
	cache           port.CacheEvictor
	events          port.StockEventPublisher
	tracer          trace.Tracer
	concurrency     int
}

// NewExpirationSweeper 创建一个新的过期扫描器
func NewExpirationSweeper(
	itemRepo domain.ItemRepository,
	reservationRepo domain.ReservationRepository,
	txManager domain.TxManager,
	cache port.CacheEvictor,
	events port.StockEventPublisher,
	tracer trace.Tracer,
	concurrency int,
) *ExpirationSweeper {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ExpirationSweeper{
		itemRepo:        itemRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		cache:           cache,
		events:          events,
		tracer:          tracer,
		concurrency:     concurrency,
	}
}

// Sweep 执行一轮过期回收，返回本轮成功回收的预约数。
// 单条预约的失败只记日志不中断扫描；失败的预约仍是 ACTIVE 且超期，
// 下一轮会再次被捞出重试。
func (s *ExpirationSweeper) Sweep(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "sweeper.Sweep")
	defer span.End()

	runID := uuid.New().String()[:8]
	now := time.Now()

	overdue, err := s.reservationRepo.FindExpiredActive(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query overdue reservations")
		return 0, err
	}
	span.SetAttributes(
		attribute.String("sweep.run_id", runID),
		attribute.Int("sweep.candidates", len(overdue)),
	)
	if len(overdue) == 0 {
		return 0, nil
	}

	var resolved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, candidate := range overdue {
		g.Go(func() error {
			// 失败只计数，永远返回 nil：一条预约的失败不能取消同组其他任务
			ok, err := s.expireOne(gctx, candidate.ID)
			if err != nil {
				sweepFailures.Inc()
				logger.Ctx(gctx).Warn().Err(err).
					Str("run_id", runID).
					Int64("reservation_id", candidate.ID).
					Msg("failed to expire reservation, will retry next sweep")
				return nil
			}
			if ok {
				resolved.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	count := int(resolved.Load())
	span.SetAttributes(attribute.Int("sweep.resolved", count))
	logger.Ctx(ctx).Info().
		Str("run_id", runID).
		Int("candidates", len(overdue)).
		Int("resolved", count).
		Msg("expiration sweep finished")
	return count, nil
}

// expireOne 在独立事务内回收一条预约。
// 返回 (false, nil) 表示预约已被并发的取消/确认抢先处理，本次为空操作；
// 这次锁内复核是防止重复归还库存的关键。
func (s *ExpirationSweeper) expireOne(ctx context.Context, reservationID int64) (bool, error) {
	var (
		item        *domain.Item
		reservation *domain.Reservation
		skipped     bool
	)
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		reservation, err = s.reservationRepo.FindByID(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			skipped = true
			return nil
		}

		item, err = s.itemRepo.FindByIDForUpdate(txCtx, reservation.ItemID)
		if err != nil {
			return err
		}

		// 锁内复核状态，竞争者可能在拿锁前已经提交。
		// 锁定读绕过事务快照，拿到的是已提交的当前状态
		reservation, err = s.reservationRepo.FindByIDForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			skipped = true
			return nil
		}

		if err := item.Release(reservation.Quantity); err != nil {
			return err
		}
		if err := reservation.MarkExpired(); err != nil {
			return err
		}
		if err := s.itemRepo.Save(txCtx, item); err != nil {
			return err
		}
		return s.reservationRepo.Save(txCtx, reservation)
	})
	if err != nil {
		return false, err
	}
	if skipped {
		return false, nil
	}

	s.cache.EvictItem(ctx, item.ID, item.SKU)
	s.cache.EvictReservation(ctx, reservation.ID)
	s.events.Publish(ctx, domain.StockEvent{
		Type:          domain.EventReservationExpired,
		ItemID:        item.ID,
		SKU:           item.SKU,
		ReservationID: reservation.ID,
		CustomerID:    reservation.CustomerID,
		Quantity:      reservation.Quantity,
		Available:     item.AvailableQuantity,
		Reserved:      item.ReservedQuantity,
		OccurredAt:    time.Now(),
	})
	reservationsExpired.Inc()
	return true, nil
}
