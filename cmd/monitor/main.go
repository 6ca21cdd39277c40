package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"crowd-monitor/internal/adapters/populartimes"
	"crowd-monitor/internal/adapters/storage"
	"crowd-monitor/internal/adapters/telegram"
	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/config"
	infrahttp "crowd-monitor/internal/infra/http"
	applog "crowd-monitor/internal/infra/log"
	"crowd-monitor/internal/infra/metrics"
	"crowd-monitor/internal/usecase/monitor"
)

const lastCycleKey = "last_cycle"

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

	results := gocache.New(2*cfg.Monitor.Interval, cfg.Monitor.Interval)

	server := infrahttp.NewServer(logger)
	server.Router.Post("/run", func(w http.ResponseWriter, r *http.Request) {
		res := svc.RunCycle(r.Context())
		results.Set(lastCycleKey, res, gocache.DefaultExpiration)
		w.WriteHeader(http.StatusOK)
		if res.Open {
			fmt.Fprintf(w, "cycle complete: open, level=%s\n", res.Level.Label)
			return
		}
		fmt.Fprintln(w, "cycle complete: closed")
	})
	server.Router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		cached, ok := results.Get(lastCycleKey)
		if !ok {
			http.Error(w, "no cycle has run yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cached)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
