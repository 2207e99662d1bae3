package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GRID_POSTGRES_DSN", "postgres://grid@localhost/grid")
	t.Setenv("GRID_NEWS_INTERVAL", "45m")
	t.Setenv("GRID_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("GRID_TELEMETRY_TIMEOUT", "20s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Schedule.TelemetryInterval != 5*time.Minute {
		t.Fatalf("telemetry interval = %s", cfg.Schedule.TelemetryInterval)
	}
	if cfg.Schedule.NewsInterval != 45*time.Minute {
		t.Fatalf("news interval = %s", cfg.Schedule.NewsInterval)
	}
	if cfg.Sources.Telemetry.URL != "http://power.gov.ng/" || cfg.Sources.Telemetry.Timeout != 20*time.Second {
		t.Fatalf("unexpected telemetry source %+v", cfg.Sources.Telemetry)
	}
	if !cfg.KafkaEnabled() || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.RedisEnabled() {
		t.Fatal("redis must be disabled without an address")
	}
	if cfg.News.MaxInsert != 5 || cfg.News.DedupWindow != 50 {
		t.Fatalf("unexpected news policy %+v", cfg.News)
	}
	if cfg.HTTPAddress() != ":8084" {
		t.Fatalf("addr = %s", cfg.HTTPAddress())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	content := `
http:
  port: ":9000"
database:
  dsn: postgres://file
redis:
  addr: localhost:6379
schedule:
  telemetryInterval: 1m
news:
  maxInsert: 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GRID_POSTGRES_DSN", "postgres://env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.DSN != "postgres://env" {
		t.Fatalf("env must override file, got %s", cfg.Database.DSN)
	}
	if cfg.HTTPAddress() != ":9000" || cfg.Schedule.TelemetryInterval != time.Minute || cfg.News.MaxInsert != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Schedule.NewsInterval != 30*time.Minute {
		t.Fatalf("unset values keep defaults, got %s", cfg.Schedule.NewsInterval)
	}
	if !cfg.RedisEnabled() {
		t.Fatal("redis configured in file")
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.Sources.News.URL = ""
	cfg.Schedule.TelemetryInterval = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"dsn", "news source", "intervals"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
