package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes the configuration shared by all binaries.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Jerusalem"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token  string `envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
	} `envconfig:""`

	Google struct {
		APIKey  string        `envconfig:"GOOGLE_API_KEY"`
		PlaceID string        `envconfig:"PLACE_ID"`
		BaseURL string        `envconfig:"POPULARTIMES_BASE_URL"`
		Timeout time.Duration `envconfig:"POPULARTIMES_TIMEOUT" default:"15s"`
	} `envconfig:""`

	Storage struct {
		DataDir   string `envconfig:"DATA_DIR" default:"./data"`
		RedisAddr string `envconfig:"REDIS_ADDR"`
	} `envconfig:""`

	Monitor struct {
		Interval  time.Duration `envconfig:"CHECK_INTERVAL" default:"30m"`
		HoursFile string        `envconfig:"HOURS_FILE"`
	} `envconfig:""`

	Sync struct {
		DBDSN         string `envconfig:"SYNC_DB_DSN" default:"./data/readings.db"`
		LocationsFile string `envconfig:"LOCATIONS_FILE"`
	} `envconfig:""`
}

// Load reads the configuration from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
