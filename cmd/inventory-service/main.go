package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"depot/internal/pkg/bootstrap"
	"depot/internal/pkg/config"
	"depot/internal/pkg/mq"
	"depot/internal/pkg/redis"
	"depot/internal/service/inventory/application"
	"depot/internal/service/inventory/domain/port"
	"depot/internal/service/inventory/infrastructure"
	"depot/internal/service/inventory/infrastructure/adapter"
	"depot/internal/service/inventory/infrastructure/rule"
	"depot/internal/service/inventory/interfaces"
	"depot/internal/service/inventory/interfaces/stockfeed"
)

func main() {
	bootstrap.Init()
	cfg := config.Get()

	// 1. 基础设施: MySQL / Redis / Kafka
	db, err := infrastructure.OpenDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	redisClient, err := redis.NewClient(context.Background(), cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	kafkaWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic)
	kafkaPublisher := adapter.NewStockEventKafkaAdapter(kafkaWriter)

	// 2. 事件广播: Kafka + WebSocket 双通道
	hub := stockfeed.NewHub()
	go hub.Run()
	publisher := adapter.NewCompositePublisher(kafkaPublisher, hub)

	// 3. 预约准入规则（可选）
	policy, err := rule.NewCELPolicyAdapter(cfg.Reservation.PolicyExpression)
	if err != nil {
		log.Fatalf("invalid reservation policy expression: %v", err)
	}

	// 4. 仓储与应用服务
	tracer := otel.Tracer("inventory-service")
	itemRepo := infrastructure.NewGormItemRepository(db)
	reservationRepo := infrastructure.NewGormReservationRepository(db)
	txManager := infrastructure.NewGormTxManager(db)
	cacheEvictor := infrastructure.NewRedisCacheEvictor(redisClient)

	itemService := application.NewItemService(itemRepo, txManager, cacheEvictor, publisher, tracer)
	reservationService := application.NewReservationService(
		itemRepo, reservationRepo, txManager, cacheEvictor, publisher,
		policyOrNil(policy), tracer, cfg.Reservation.DefaultExpiration.Std(),
	)

	handler := interfaces.NewInventoryHandler(itemService, reservationService)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.Service.Name,
		Port:        cfg.Service.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
			appCtx.Mux.HandleFunc("GET /ws/stock", hub.ServeWs)
			appCtx.Mux.Handle("GET /metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})
		},
		OnShutdown: func(ctx context.Context) {
			hub.Close()
			if err := kafkaPublisher.Close(); err != nil {
				log.Printf("Error closing kafka writer: %v", err)
			}
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
		},
	})
}

// policyOrNil 避免把带类型的 nil 指针装进接口
func policyOrNil(p *rule.CELPolicyAdapter) port.ReservationPolicy {
	if p == nil {
		return nil
	}
	return p
}
