package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"crowd-monitor/internal/adapters/populartimes"
	"crowd-monitor/internal/adapters/storage"
	"crowd-monitor/internal/adapters/telegram"
	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/config"
	applog "crowd-monitor/internal/infra/log"
	"crowd-monitor/internal/infra/metrics"
	"crowd-monitor/internal/usecase/monitor"
)

// monitord runs the publish cycle on a fixed interval instead of waiting
// for an HTTP trigger.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}
	if cfg.Google.APIKey == "" || cfg.Google.PlaceID == "" || cfg.Google.BaseURL == "" {
		logger.Fatal().Msg("GOOGLE_API_KEY, PLACE_ID and POPULARTIMES_BASE_URL are required")
	}

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("failed to load timezone")
	}
	hours, err := config.LoadHours(cfg.Monitor.HoursFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load operating hours")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init telegram bot")
	}

	var state domain.MessageStateStore
	if cfg.Storage.RedisAddr != "" {
		state = storage.NewRedisStateStore(redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr}))
		logger.Info().Str("addr", cfg.Storage.RedisAddr).Msg("using redis message state")
	} else {
		state = storage.NewFileStateStore(cfg.Storage.DataDir)
	}

	provider := populartimes.NewClient(cfg.Google.BaseURL, cfg.Google.APIKey, cfg.Google.Timeout)
	archive := storage.NewFSArchive(cfg.Storage.DataDir)
	publisher := telegram.NewPublisher(bot, cfg.Telegram.ChatID, state, logger)
	svc := monitor.NewService(hours, provider, publisher, archive, loc, cfg.Google.PlaceID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger, ":9090")

	// First cycle right away, then on the interval.
	svc.RunCycle(ctx)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Monitor.Interval), func() {
		svc.RunCycle(ctx)
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule cycles")
	}
	scheduler.Start()
	logger.Info().Dur("interval", cfg.Monitor.Interval).Msg("monitor loop started")

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	<-scheduler.Stop().Done()
}
