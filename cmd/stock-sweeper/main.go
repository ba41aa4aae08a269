package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"depot/internal/pkg/bootstrap"
	"depot/internal/pkg/config"
	"depot/internal/pkg/logger"
	"depot/internal/pkg/mq"
	"depot/internal/pkg/redis"
	"depot/internal/pkg/tracing"
	"depot/internal/pkg/zookeeper"
	"depot/internal/service/inventory/application"
	"depot/internal/service/inventory/infrastructure"
	"depot/internal/service/inventory/infrastructure/adapter"
)

const lockWaitFor = 5 * time.Second

// stock-sweeper 周期性回收过期的 ACTIVE 预约。
// 多副本部署时通过 zookeeper 锁保证同一时刻只有一个实例在扫描，
// 抢锁失败的副本直接跳过本轮。
func main() {
	bootstrap.Init()
	cfg := config.Get()

	tp, err := tracing.InitTracerProvider("stock-sweeper", cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}

	db, err := infrastructure.OpenDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	redisClient, err := redis.NewClient(context.Background(), cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		log.Fatalf("failed to connect to zookeeper: %v", err)
	}

	kafkaWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic)
	publisher := adapter.NewStockEventKafkaAdapter(kafkaWriter)

	sweeper := application.NewExpirationSweeper(
		infrastructure.NewGormItemRepository(db),
		infrastructure.NewGormReservationRepository(db),
		infrastructure.NewGormTxManager(db),
		infrastructure.NewRedisCacheEvictor(redisClient),
		publisher,
		otel.Tracer("stock-sweeper"),
		cfg.Reservation.SweepConcurrency,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.Reservation.SweepInterval.Std())
	defer ticker.Stop()

	log.Printf("stock-sweeper started, interval=%s concurrency=%d", cfg.Reservation.SweepInterval.Std(), cfg.Reservation.SweepConcurrency)
	for {
		select {
		case <-ticker.C:
			runSweep(ctx, zkConn, sweeper)
		case <-ctx.Done():
			log.Println("Shutting down stock-sweeper...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := publisher.Close(); err != nil {
				log.Printf("Error closing kafka writer: %v", err)
			}
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down tracer provider: %v", err)
			}
			cancel()
			return
		}
	}
}

// runSweep 抢到领导锁后执行一轮扫描，锁持有到本轮结束。
func runSweep(ctx context.Context, zkConn *zookeeper.Conn, sweeper *application.ExpirationSweeper) {
	lock, err := zookeeper.NewDistributedLock(zkConn, "reservation-sweeper", lockWaitFor)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to create sweeper lock")
		return
	}
	if err := lock.Lock(); err != nil {
		// 锁被其他副本持有，本轮由它负责
		logger.Ctx(ctx).Debug().Err(err).Msg("sweeper lock held elsewhere, skipping round")
		return
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to release sweeper lock")
		}
	}()

	if _, err := sweeper.Sweep(ctx); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("sweep round failed")
	}
}
