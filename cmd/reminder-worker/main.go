package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/account"
	"github.com/clinica-jazmin/dental-ledger/internal/appointment"
	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
	"github.com/clinica-jazmin/dental-ledger/internal/config"
	"github.com/clinica-jazmin/dental-ledger/internal/db"
	"github.com/clinica-jazmin/dental-ledger/internal/logger"
	redisclient "github.com/clinica-jazmin/dental-ledger/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("reminder-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.ReminderInterval),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}()
	log.Info("connected to Redis")

	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		account.NewPgRepository(pgPool),
		catalog.NewPgRepository(pgPool),
		redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL),
		cfg,
		log.Named("appointment"),
	)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	tomorrow := appointment.DateOf(start).AddDays(1)

	reminders, err := svc.GenerateReminders(runCtx, tomorrow)
	if err != nil {
		log.Error("reminder run error", zap.String("day", tomorrow.String()), zap.Error(err))
	}
	for _, r := range reminders {
		log.Info("reminder ready",
			zap.String("appointment_id", r.AppointmentID.String()),
			zap.String("patient", r.PatientName),
			zap.String("link", r.Link),
		)
	}

	log.Info("reminder run complete",
		zap.String("day", tomorrow.String()),
		zap.Int("generated", len(reminders)),
		zap.Duration("took", time.Since(start)),
	)
}
