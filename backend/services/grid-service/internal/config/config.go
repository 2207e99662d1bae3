package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "gridpulse/backend/libs/config"
)

// Source describes one upstream page.
type Source struct {
	URL       string        `yaml:"url"`
	Tag       string        `yaml:"tag"`
	UserAgent string        `yaml:"userAgent"`
	Accept    string        `yaml:"accept"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Config defines grid service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"GRID_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"GRID_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"GRID_REDIS_ADDR"`
		Password string        `yaml:"password" env:"GRID_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"GRID_REDIS_DB"`
		LockTTL  time.Duration `yaml:"lockTTL" env:"GRID_REDIS_LOCK_TTL"`
	} `yaml:"redis"`
	Sources struct {
		Telemetry Source `yaml:"telemetry" env:"GRID_TELEMETRY"`
		News      Source `yaml:"news" env:"GRID_NEWS"`
	} `yaml:"sources"`
	Schedule struct {
		TelemetryInterval time.Duration `yaml:"telemetryInterval" env:"GRID_TELEMETRY_INTERVAL"`
		NewsInterval      time.Duration `yaml:"newsInterval" env:"GRID_NEWS_INTERVAL"`
	} `yaml:"schedule"`
	News struct {
		MaxInsert           int    `yaml:"maxInsert" env:"GRID_NEWS_MAX_INSERT"`
		DedupWindow         int    `yaml:"dedupWindow" env:"GRID_NEWS_DEDUP_WINDOW"`
		SentinelTitle       string `yaml:"sentinelTitle" env:"GRID_NEWS_SENTINEL_TITLE"`
		SentinelDescription string `yaml:"sentinelDescription" env:"GRID_NEWS_SENTINEL_DESCRIPTION"`
	} `yaml:"news"`
	Kafka struct {
		Brokers []string `yaml:"brokers" env:"GRID_KAFKA_BROKERS"`
		Topic   string   `yaml:"topic" env:"GRID_KAFKA_TOPIC"`
	} `yaml:"kafka"`
	WebSocket struct {
		PingInterval time.Duration `yaml:"pingInterval" env:"GRID_WS_PING_INTERVAL"`
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"GRID_WS_WRITE_TIMEOUT"`
		SendBuffer   int           `yaml:"sendBuffer" env:"GRID_WS_SEND_BUFFER"`
	} `yaml:"websocket"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" env:"GRID_TRIGGER_RPS"`
		Burst int     `yaml:"burst" env:"GRID_TRIGGER_BURST"`
	} `yaml:"ratelimit"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8084"
	cfg.Redis.LockTTL = 10 * time.Minute

	cfg.Sources.Telemetry = Source{
		URL:     "http://power.gov.ng/",
		Tag:     "power.gov.ng",
		Timeout: 15 * time.Second,
	}
	cfg.Sources.News = Source{
		URL:     "https://nerc.gov.ng/media-category/news/",
		Tag:     "nerc.gov.ng",
		Timeout: 15 * time.Second,
	}

	cfg.Schedule.TelemetryInterval = 5 * time.Minute
	cfg.Schedule.NewsInterval = 30 * time.Minute

	cfg.News.MaxInsert = 5
	cfg.News.DedupWindow = 50

	cfg.Kafka.Topic = "grid-events"

	cfg.WebSocket.PingInterval = 30 * time.Second
	cfg.WebSocket.WriteTimeout = 10 * time.Second
	cfg.WebSocket.SendBuffer = 32

	cfg.RateLimit.RPS = 0.2
	cfg.RateLimit.Burst = 2
	return cfg
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("config: database dsn required"))
	}
	if strings.TrimSpace(c.Sources.Telemetry.URL) == "" {
		errs = append(errs, errors.New("config: telemetry source url required"))
	}
	if strings.TrimSpace(c.Sources.News.URL) == "" {
		errs = append(errs, errors.New("config: news source url required"))
	}
	if c.Schedule.TelemetryInterval <= 0 || c.Schedule.NewsInterval <= 0 {
		errs = append(errs, errors.New("config: schedule intervals must be positive"))
	}
	return errors.Join(errs...)
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8084"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// KafkaEnabled reports whether export is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) != ""
}

// RedisEnabled reports whether the shared run lock is configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
