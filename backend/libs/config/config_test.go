package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	HTTP struct {
		Port string `yaml:"port" env:"SAMPLE_HTTP_PORT"`
	} `yaml:"http"`
	Schedule struct {
		Interval time.Duration `yaml:"interval" env:"SAMPLE_INTERVAL"`
	} `yaml:"schedule"`
	Brokers []string `yaml:"brokers" env:"SAMPLE_BROKERS"`
	Retries int      `yaml:"retries"`
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("http:\n  port: \"9000\"\nschedule:\n  interval: 1m\nretries: 2\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SAMPLE_INTERVAL", "90s")
	t.Setenv("SAMPLE_BROKERS", "kafka-1:9092, kafka-2:9092,")

	var cfg sampleConfig
	if err := LoadConfig(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != "9000" {
		t.Fatalf("expected port from file, got %q", cfg.HTTP.Port)
	}
	if cfg.Schedule.Interval != 90*time.Second {
		t.Fatalf("expected env interval to win, got %s", cfg.Schedule.Interval)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "kafka-1:9092" || cfg.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.Retries != 2 {
		t.Fatalf("expected retries 2, got %d", cfg.Retries)
	}
}

func TestLoadConfigGeneratedKey(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RETRIES", "7")

	var cfg sampleConfig
	if err := LoadConfig(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Retries != 7 {
		t.Fatalf("expected retries 7, got %d", cfg.Retries)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SAMPLE_INTERVAL", "soon")

	var cfg sampleConfig
	if err := LoadConfig(&cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(sampleConfig{}); err == nil {
		t.Fatal("expected error for non-pointer target")
	}
	if err := LoadConfig(nil); err == nil {
		t.Fatal("expected error for nil target")
	}
}
