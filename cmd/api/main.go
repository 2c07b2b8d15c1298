package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/cache"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
	v1 "github.com/dmehra2102/prod-golang-projects/medbook/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/jobs"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/tracer"
)

// repositories is the storage surface shared by both drivers.
type repositories struct {
	appointments appointment.Repository
	schedules    schedule.Repository
	doctors      doctor.Repository
	patients     patient.Repository
	users        service.UserRepository
	audit        service.AuditRepository
	ownership    access.OwnershipResolver
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("medbook: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	tp, err := tracer.Init(context.Background(), cfg.Tracing, cfg.App)
	if err != nil {
		return fmt.Errorf("initialising tracing: %w", err)
	}

	clk, err := clock.NewSystem(cfg.Scheduling.Timezone)
	if err != nil {
		return err
	}

	repos, err := openRepositories(cfg.Database, zlog)
	if err != nil {
		return err
	}

	m := metrics.NewCollector("medbook", prometheus.DefaultRegisterer)

	var slotCache service.SlotCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		perr := rdb.Ping(pingCtx).Err()
		cancel()
		if perr != nil {
			// Listings are always computable from the store.
			zlog.Warn("redis unavailable, slot cache disabled", zap.Error(perr))
		} else {
			slotCache = cache.NewSlotCache(rdb, cfg.Scheduling.SlotCacheTTL)
			zlog.Info("slot cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	auditSvc := service.NewAuditService(repos.audit, m, zlog)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	deps := v1.Deps{
		Auth: service.NewAuthService(repos.users, jwtManager, auditSvc, clk, zlog),
		Scheduling: service.NewSchedulingService(service.SchedulingDeps{
			Schedules:    repos.schedules,
			Appointments: repos.appointments,
			Doctors:      repos.doctors,
			Patients:     repos.patients,
			Resolver:     repos.ownership,
			Clock:        clk,
			Cache:        slotCache,
			Audit:        auditSvc,
			Metrics:      m,
			Log:          zlog,
			SlotWidth:    cfg.Scheduling.SlotWidth,
		}),
		Schedules:     service.NewScheduleService(repos.schedules, repos.doctors, slotCache, auditSvc, m, zlog),
		Resources:     service.NewResourceService(repos.ownership, m, zlog),
		Admin:         service.NewAdminService(repos.users, auditSvc, m, zlog),
		Directory:     service.NewDirectoryService(repos.doctors, m, zlog),
		JWT:           jwtManager,
		LoginLimiter:  middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
		Clock:         clk,
		Log:           zlog,
		HideForbidden: cfg.Security.HideForbidden,
	}

	var delivery jobs.Notifier = jobs.NewLogNotifier(zlog)
	var kafkaNotifier *jobs.KafkaNotifier
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier = jobs.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		delivery = kafkaNotifier
		zlog.Info("reminders published to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	scheduler := jobs.NewScheduler(clk.Location(), zlog)
	if cfg.Scheduling.ReminderSpec != "" {
		job := jobs.NewReminderJob(repos.appointments, jobs.NewBreakerNotifier(delivery, zlog), clk, m, zlog,
			cfg.Scheduling.ReminderLeadTime, cfg.Scheduling.ReminderWindow)
		if err := scheduler.AddReminders(cfg.Scheduling.ReminderSpec, job, cfg.Scheduling.ReminderWindow); err != nil {
			return err
		}
	}
	scheduler.Start()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.Recovery(zlog),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(zlog),
		middleware.Metrics(m),
	)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler(prometheus.DefaultGatherer)))
	v1.NewHandler(deps).Register(router.Group("/v1"))

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("db_driver", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		zlog.Error("server failed", zap.Error(err))
	case sig := <-quit:
		zlog.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("http server shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)
	auditSvc.Shutdown()
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			zlog.Warn("closing kafka writer", zap.Error(err))
		}
	}
	if err := tp.Shutdown(ctx); err != nil {
		zlog.Warn("tracer shutdown", zap.Error(err))
	}

	zlog.Info("server stopped")
	return nil
}

func openRepositories(cfg config.DatabaseConfig, zlog *zap.Logger) (*repositories, error) {
	if cfg.Driver == "memory" {
		zlog.Warn("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return &repositories{
			appointments: s.Appointments(),
			schedules:    s.Schedules(),
			doctors:      s.Doctors(),
			patients:     s.Patients(),
			users:        s.Users(),
			audit:        s.AuditLogs(),
			ownership:    s.Ownership(),
		}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, zlog); err != nil {
		return nil, err
	}

	s := postgres.NewStore(db)
	return &repositories{
		appointments: s.Appointments(),
		schedules:    s.Schedules(),
		doctors:      s.Doctors(),
		patients:     s.Patients(),
		users:        s.Users(),
		audit:        s.AuditLogs(),
		ownership:    s.Ownership(),
	}, nil
}
