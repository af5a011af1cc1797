package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bellhart/clinic-portal/internal/api"
	"github.com/bellhart/clinic-portal/internal/config"
	"github.com/bellhart/clinic-portal/internal/db"
	"github.com/bellhart/clinic-portal/internal/events"
	"github.com/bellhart/clinic-portal/internal/logger"
	"github.com/bellhart/clinic-portal/internal/overrides"
	"github.com/bellhart/clinic-portal/internal/records"
	"github.com/bellhart/clinic-portal/internal/schedule"
	"github.com/bellhart/clinic-portal/internal/validation"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("portal-server starting",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("schedule_source", cfg.ScheduleSource),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.ScheduleSource == config.SchedulePostgres || cfg.StoreBackend == config.StorePostgres {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err = db.Connect(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatal("postgres connection error", zap.Error(err))
		}
		defer pool.Close()
		log.Info("connected to Postgres")
	}

	base, err := loadBaseSchedule(rootCtx, cfg, pool)
	if err != nil {
		log.Fatal("base schedule load error", zap.Error(err))
	}
	log.Info("base schedule loaded", zap.Int("slots", len(base)))

	store, checks, err := buildStore(rootCtx, cfg, pool, log)
	if err != nil {
		log.Fatal("override store error", zap.Error(err))
	}

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		log.Debug("schedule changed",
			zap.String("slot_id", e.SlotID),
			zap.String("booking_id", e.BookingID),
		)
	})

	svc := schedule.NewService(base, store, bus, log)

	rules, err := validation.LoadRules(cfg.ValidationRulesPath)
	if err != nil {
		log.Fatal("validation rules error", zap.Error(err))
	}

	recs, err := records.Load(cfg.RecordsPath)
	if err != nil {
		log.Fatal("records feed error", zap.Error(err))
	}

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Records: recs,
		Rules:   rules,
		Checks:  checks,
		Logger:  log,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down portal-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

func loadBaseSchedule(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) ([]schedule.Slot, error) {
	var loader schedule.Loader
	switch cfg.ScheduleSource {
	case config.ScheduleFile:
		fl, err := schedule.NewFileLoader(cfg.SchedulePath)
		if err != nil {
			return nil, err
		}
		loader = fl
	case config.SchedulePostgres:
		loader = schedule.NewPgLoader(pool)
	default:
		loader = schedule.NewEmbeddedLoader()
	}

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return loader.Load(loadCtx)
}

func buildStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, log *zap.Logger) (schedule.Store, []api.Check, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := overrides.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		store := overrides.NewRedisStore(client, cfg.StoreKey, log)
		return store, []api.Check{{Name: "redis", Ping: store.Ping}}, nil

	case config.StorePostgres:
		store := overrides.NewPgStore(pool, cfg.StoreKey, log)
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.Init(initCtx); err != nil {
			return nil, nil, err
		}
		return store, []api.Check{{Name: "postgres", Ping: store.Ping}}, nil

	default:
		return overrides.NewFileStore(cfg.StorePath, log), nil, nil
	}
}
