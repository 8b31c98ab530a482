package config

import (
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// API is the backend service the client core talks to
	API struct {
		BaseURL string `env:"IEI_API_BASE_URL" envDefault:"http://localhost:8000"`

		// Request timeout in seconds
		Timeout int `env:"IEI_API_TIMEOUT" envDefault:"15"`

		// Retries applied to idempotent reads only
		ReadRetries int `env:"IEI_API_READ_RETRIES" envDefault:"2"`
	}

	// Profile is the local store for session id and cached results
	Profile struct {
		// Empty keeps the profile in memory
		Path string `env:"IEI_PROFILE_PATH" envDefault:""`
	}

	Telemetry struct {
		Enabled      bool   `env:"IEI_TELEMETRY_ENABLED" envDefault:"true"`
		BufferSize   int    `env:"IEI_TELEMETRY_BUFFER" envDefault:"64"`
		Timeout      int    `env:"IEI_TELEMETRY_TIMEOUT" envDefault:"5"`
		EventVersion string `env:"IEI_EVENT_VERSION" envDefault:"v1"`
	}

	Commercial struct {
		DefaultReserveHours int      `env:"IEI_RESERVE_HOURS" envDefault:"72"`
		ReservableTiers     []string `env:"IEI_RESERVABLE_TIERS" envSeparator:"," envDefault:"A"`
		PageSize            int      `env:"IEI_PAGE_SIZE" envDefault:"50"`
	}

	// Stub configures the reference backend served by cmd/server
	Stub struct {
		Addr                string   `env:"IEI_STUB_ADDR" envDefault:":8000"`
		AdminPassword       string   `env:"IEI_ADMIN_PASSWORD" envDefault:"change-me"`
		DuplicateWindowDays int      `env:"IEI_DUPLICATE_WINDOW_DAYS" envDefault:"30"`
		ZonesFile           string   `env:"IEI_ZONES_FILE" envDefault:""`
		AllowedOrigins      []string `env:"IEI_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		// Seconds between reservation expiry sweeps
		SweepInterval int `env:"IEI_SWEEP_INTERVAL" envDefault:"60"`
	}

	Log struct {
		Level  string `env:"IEI_LOG_LEVEL" envDefault:"info"`
		Format string `env:"IEI_LOG_FORMAT" envDefault:"json"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger from the Log section
func NewLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(cfg.Log.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.WithField("level", cfg.Log.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
