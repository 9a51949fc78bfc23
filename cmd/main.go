package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident_orchestrator/internal/alert"
	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/shenikar/incident_orchestrator/internal/deletion"
	"github.com/shenikar/incident_orchestrator/internal/gateway"
	v1 "github.com/shenikar/incident_orchestrator/internal/handler/http/v1"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/notify"
	"github.com/shenikar/incident_orchestrator/internal/ops"
	"github.com/shenikar/incident_orchestrator/internal/registry"
	"github.com/shenikar/incident_orchestrator/internal/repository"
	"github.com/shenikar/incident_orchestrator/internal/routing"
	"github.com/shenikar/incident_orchestrator/internal/service"
	"github.com/shenikar/incident_orchestrator/internal/webhook"
	"github.com/shenikar/incident_orchestrator/pkg/logger"
	natsclient "github.com/shenikar/incident_orchestrator/pkg/nats"
	"github.com/shenikar/incident_orchestrator/pkg/postgres"
	redisclient "github.com/shenikar/incident_orchestrator/pkg/redis"

	_ "github.com/shenikar/incident_orchestrator/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// stores - реализации хранилищ для выбранного STORE_DRIVER
type stores struct {
	incidents service.IncidentRepository
	alerts    alert.Repository
	jobs      deletion.JobStore
	eraser    deletion.DataEraser
	redis     *redis.Client
	shutdown  func()
}

// openStores подключает PostgreSQL и Redis либо поднимает хранилище в памяти
func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("Using in-memory store, data will not survive a restart")
		mem := repository.NewMemoryStore()
		return &stores{incidents: mem, alerts: mem, jobs: mem, eraser: mem, shutdown: func() {}}, nil
	}

	log.Info("Running database migrations...")
	if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	log.Info("Database migrations applied successfully")

	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	log.Info("Successfully connected to PostgreSQL")

	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("Successfully connected to Redis")

	deletions := repository.NewDeletionRepository(dbpool, redisClient)
	return &stores{
		incidents: repository.NewIncidentRepository(dbpool, redisClient),
		alerts:    repository.NewAlertRepository(dbpool, redisClient),
		jobs:      deletions,
		eraser:    deletions,
		redis:     redisClient,
		shutdown: func() {
			redisClient.Close()
			dbpool.Close()
		},
	}, nil
}

// newNotifier подключает транспорты, для которых заданы учетные данные
func newNotifier(ctx context.Context, cfg *config.Config, log *logrus.Logger) *notify.Dispatcher {
	dispatcher := notify.NewDispatcher(log)
	if cfg.TwilioAccountSID != "" {
		dispatcher.Register(models.ChannelSMS, notify.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber))
		dispatcher.Register(models.ChannelCall, notify.NewTwilioVoice(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber))
	} else {
		log.Warn("Twilio is not configured, sms and call channels are disabled")
	}

	if cfg.FirebaseProjectID != "" {
		push, err := notify.NewFirebasePush(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
		if err != nil {
			log.WithError(err).Error("Push channel is disabled")
		} else {
			dispatcher.Register(models.ChannelPush, push)
		}
	} else {
		log.Warn("Firebase is not configured, push channel is disabled")
	}
	return dispatcher
}

// @title Incident Orchestrator API
// @version 1.0
// @description Emergency incident orchestration core: signals, routing, alert distribution and data deletion.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, "incident-orchestrator")

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer st.shutdown()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Операторский канал NATS необязателен
	var alerter *ops.Alerter
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = natsclient.NewConnection(cfg.NATSURL, "incident-orchestrator", log)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		alerter = ops.NewAlerter(nc, log)
		log.Info("Successfully connected to NATS")
	}

	// Внешние сервисы
	profiles := gateway.NewProfileClient(cfg.ProfileURL, cfg.GatewayTimeout)
	classifier := gateway.NewClassifierClient(cfg.ClassifierURL, cfg.GatewayTimeout)
	serviceRegistry, err := registry.New(
		gateway.NewRegistryClient(cfg.RegistryURL, cfg.GatewayTimeout),
		cfg.RegistryCacheSize, cfg.RegistryCacheTTL, cfg.RegistryPushTTL, log,
	)
	if err != nil {
		log.Fatalf("Failed to create service registry: %v", err)
	}

	policy, err := config.LoadRoutingPolicy(cfg.RoutingPolicyFile)
	if err != nil {
		log.Fatalf("Failed to load routing policy: %v", err)
	}
	router := routing.NewEngine(serviceRegistry, policy, routing.Options{
		ServicesPerTier: cfg.RoutingServicesPerTier,
		InitialRadiusKm: cfg.RoutingInitialRadiusKm,
		RadiusStepKm:    cfg.RoutingRadiusStepKm,
		MaxRadiusKm:     cfg.RoutingMaxRadiusKm,
		Budget:          cfg.RoutingBudget,
	}, log)

	notifier := newNotifier(ctx, cfg, log)

	// Планировщик удаления персональных данных
	scheduler := deletion.NewScheduler(st.jobs, st.eraser, st.incidents, profiles, notifier, m, deletion.Options{
		Delay:           cfg.DeletionDelay,
		RetryInterval:   cfg.DeletionRetryInterval,
		EscalationAfter: cfg.DeletionEscalationAfter,
		PollInterval:    cfg.DeletionPollInterval,
		AuditRetention:  cfg.AuditRetention,
		BatchSize:       deletion.DefaultOptions().BatchSize,
	}, log)
	if alerter != nil {
		scheduler.WithEscalator(alerter)
	}

	// Смены статуса уходят в шлюз интеграции через очередь Redis
	var publisher webhook.WebhookPublisher
	if st.redis != nil {
		publisher = webhook.NewRedisWebhookPublisher(st.redis)
		webhook.NewWebhookWorker(st.redis, log, cfg).Start(ctx)
	}

	incidentService := service.NewIncidentService(st.incidents, scheduler, publisher, m, log)

	distributor := alert.NewDistributor(notifier, st.alerts, incidentService, m, alert.Options{
		Workers:          cfg.AlertWorkers,
		MaxAttempts:      cfg.AlertMaxAttempts,
		BaseBackoff:      cfg.AlertBaseBackoff,
		MaxBackoff:       cfg.AlertMaxBackoff,
		AttemptTimeout:   cfg.AlertAttemptTimeout,
		ResponderTarget:  cfg.ResponderTargetLatency,
		ContactTarget:    cfg.ContactTargetLatency,
		LocationShareURL: cfg.LocationShareURL,
		LocationShareKey: cfg.LocationShareKey,
	}, log)
	if alerter != nil {
		distributor.WithOperatorAlerter(alerter)
	}
	recovered, err := distributor.Recover(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to recover pending alerts")
	} else if recovered > 0 {
		log.WithField("recovered", recovered).Info("Pending alerts requeued")
	}
	distributor.Start(ctx)
	scheduler.Start(ctx)

	orchestrator := service.NewOrchestrator(incidentService, classifier, profiles, router, distributor, m, service.OrchestratorOptions{
		ClassifyTimeout:  cfg.ClassifyTimeout,
		FallbackGuidance: cfg.FallbackGuidance,
	}, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, orchestrator, serviceRegistry, scheduler, log, cfg)

	// Настройка Gin роутера
	engine := gin.Default()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// Добавление маршрута для Swagger UI
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: engine,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	cancel()
	distributor.Wait()
	if nc != nil {
		if err := nc.Drain(); err != nil {
			log.WithError(err).Warn("Failed to drain NATS connection")
		}
	}

	log.Info("Server gracefully stopped")
}
