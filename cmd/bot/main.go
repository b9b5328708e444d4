package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/audit"
	"github.com/xela07ax/timeoff-flow-prototype/internal/flow"
	"github.com/xela07ax/timeoff-flow-prototype/internal/handler"
	"github.com/xela07ax/timeoff-flow-prototype/internal/infra"
	"github.com/xela07ax/timeoff-flow-prototype/internal/ledger"
	"github.com/xela07ax/timeoff-flow-prototype/internal/repository/postgres"
	"github.com/xela07ax/timeoff-flow-prototype/internal/roster"
	"github.com/xela07ax/timeoff-flow-prototype/internal/sheets"
	slackapi "github.com/xela07ax/timeoff-flow-prototype/internal/slack"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Внешние клиенты
	chat := slackapi.NewClient(cfg.Slack.BotToken, logger)

	sheetClient, err := sheets.NewClient(cfg.Sheets, logger)
	if err != nil {
		logger.Fatal("failed to init sheets client", zap.Error(err))
	}

	// 3. Mutual-Exclusion Ledger: процесс-локальный либо распределенный
	var ldg ledger.Ledger
	switch cfg.Ledger.Mode {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.Error(err))
		}
		ldg = ledger.NewRedis(rdb, infra.RedisKeyActionLock, cfg.Ledger.Hold, cfg.Ledger.Grace, logger)
	default:
		ldg = ledger.NewMemory(cfg.Ledger.Hold, cfg.Ledger.Grace, logger)
	}

	// 4. Журнал решений: таблица Google + опциональное зеркало в Postgres
	sinks := []audit.Sink{audit.NewSheetSink(sheetClient, cfg.Sheets.LogTab, cfg.Sheets.LogRange)}
	if cfg.Audit.PostgresURL != "" {
		pgRepo := postgres.NewAuditRepo(cfg.Audit.PostgresURL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := pgRepo.Ping(pingCtx); err != nil {
			logger.Fatal("postgres unreachable", zap.Error(err))
		}
		cancel()
		sinks = append(sinks, pgRepo)
	}

	trail := audit.NewTrail(cfg.Audit.BufferSize, cfg.Audit.FlushInterval, logger, sinks...)
	trail.Start()

	// 5. Метрики
	reg := prometheus.NewRegistry()
	metrics := flow.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()

	// 6. Сборка ядра согласования
	resolver := roster.NewResolver(sheetClient, cfg.Sheets.RosterTab, cfg.Sheets.RosterRange, logger)
	engine := flow.NewEngine(ldg, chat, resolver, trail, metrics, logger,
		cfg.Slack.ReviewChannel, cfg.Slack.AnnounceChannel)

	// 7. HTTP Server (вебхуки Slack)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.NewServer(engine, chat, cfg.Slack.SigningSecret, logger).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("timeoff bot started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("timeoff bot stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// Дожимаем буфер журнала перед выходом
	trail.Stop()
	logger.Info("timeoff bot exited properly")
}
