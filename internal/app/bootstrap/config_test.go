package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Timezone != "America/Mexico_City" || cfg.WeekStartDay != time.Wednesday || cfg.WeekStartHour != 0 {
		t.Fatalf("unexpected schedule defaults: %+v", cfg)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("stores should default to in-memory: %+v", cfg)
	}
	if !cfg.FeatureEventConsumption || !cfg.FeatureSnapshotEmission {
		t.Fatalf("feature flags should default on")
	}
}

func TestLoadConfigFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
service:
  id: commission-test
  http_port: 8181
dependencies:
  postgres_url: postgres://file
  kafka_brokers: [" broker-a:9092 ", ""]
schedule:
  timezone: UTC
  week_start_day: mon
  week_start_hour: 6
  max_catch_up_weeks: 3
feature_flags:
  snapshot_emission: false
`)
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("SUMMARY_CACHE_MINUTES", "1.5")
	t.Setenv("FEATURE_EVENT_CONSUMPTION", "no")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceID != "commission-test" || cfg.HTTPPort != 8181 || cfg.GRPCPort != 9090 {
		t.Fatalf("service section: %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Fatalf("database url = %q, want env override", cfg.DatabaseURL)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "broker-a:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.Timezone != "UTC" || cfg.WeekStartDay != time.Monday || cfg.WeekStartHour != 6 || cfg.MaxCatchUpWeeks != 3 {
		t.Fatalf("schedule: %+v", cfg)
	}
	if cfg.SummaryCacheTTL != 90*time.Second {
		t.Fatalf("summary ttl = %v", cfg.SummaryCacheTTL)
	}
	if cfg.FeatureSnapshotEmission || cfg.FeatureEventConsumption || !cfg.FeatureStatementEmission {
		t.Fatalf("feature flags: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadSchedule(t *testing.T) {
	for name, body := range map[string]string{
		"weekday":  "schedule:\n  week_start_day: someday\n",
		"hour":     "schedule:\n  week_start_hour: 24\n",
		"timezone": "schedule:\n  timezone: Mars/Olympus_Mons\n",
	} {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
