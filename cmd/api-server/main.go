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

	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/api"
	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/chatbot"
	"github.com/clinica-jazmin/dental-ledger/internal/config"
	"github.com/clinica-jazmin/dental-ledger/internal/db"
	"github.com/clinica-jazmin/dental-ledger/internal/inventory"
	"github.com/clinica-jazmin/dental-ledger/internal/logger"
	redisclient "github.com/clinica-jazmin/dental-ledger/internal/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("exclude_cancelled", cfg.ExcludeCancelled),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.NewMigrator(pgPool, log).Up(migCtx)
	cancelMig()
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}()
	log.Info("connected to Redis")

	accountRepo := account.NewPgRepository(pgPool)
	catalogRepo := catalog.NewPgRepository(pgPool)

	accounts := account.NewService(accountRepo, log.Named("account"))
	services := catalog.NewService(catalogRepo, log.Named("catalog"))
	supplies := inventory.NewService(inventory.NewPgRepository(pgPool), log.Named("inventory"))

	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	appointments := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		accountRepo,
		catalogRepo,
		locker,
		cfg,
		log.Named("appointment"),
	)

	router := api.NewRouter(api.RouterConfig{
		Appointments: appointments,
		Accounts:     accounts,
		Catalog:      services,
		Inventory:    supplies,
		Bot:          chatbot.NewResponder(services, cfg.ChatbotPriceLimit, log.Named("chatbot")),
		Postgres:     pgPool,
		Redis:        api.PingFunc(func(ctx context.Context) error { return redisclient.Ping(ctx, rdb) }),
		Logger:       log.Named("http"),
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitRPS: cfg.RateLimitRPS,
		Env:          cfg.Env,
		Version:      cfg.Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-rootCtx.Done():
	}

	log.Info("shutting down api-server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("api-server stopped")
	return nil
}
