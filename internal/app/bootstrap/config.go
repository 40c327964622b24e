package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns                  int32
	KafkaConsumerGroup          string
	KafkaTopicAgentUpserted     string
	KafkaTopicSaleAttributed    string
	// Outbound topics left empty publish to commission-engine.<event>.v1.
	KafkaTopicCampaignCreated   string
	KafkaTopicSnapshotComputed  string
	KafkaTopicStatementComputed string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration
	SchedulerInterval    time.Duration
	HealthProbeInterval  time.Duration

	JWTSecret string
	JWTIssuer string

	Timezone      string
	WeekStartDay  time.Weekday
	WeekStartHour int

	WeekLockTTL     time.Duration
	SummaryCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	EventDedupTTL   time.Duration
	MaxCatchUpWeeks int

	FeatureEventConsumption  bool
	FeatureSnapshotEmission  bool
	FeatureStatementEmission bool
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL                 string   `yaml:"postgres_url"`
		RedisURL                    string   `yaml:"redis_url"`
		KafkaBrokers                []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup          string   `yaml:"kafka_consumer_group"`
		KafkaTopicAgentUpserted     string   `yaml:"kafka_topic_agent_upserted"`
		KafkaTopicSaleAttributed    string   `yaml:"kafka_topic_sale_attributed"`
		KafkaTopicCampaignCreated   string   `yaml:"kafka_topic_campaign_created"`
		KafkaTopicSnapshotComputed  string   `yaml:"kafka_topic_snapshot_computed"`
		KafkaTopicStatementComputed string   `yaml:"kafka_topic_statement_computed"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"auth"`
	Schedule struct {
		Timezone        string `yaml:"timezone"`
		WeekStartDay    string `yaml:"week_start_day"`
		WeekStartHour   *int   `yaml:"week_start_hour"`
		IntervalSeconds int    `yaml:"interval_seconds"`
		LockTTLMinutes  int    `yaml:"lock_ttl_minutes"`
		MaxCatchUpWeeks int    `yaml:"max_catch_up_weeks"`
	} `yaml:"schedule"`
	FeatureFlags struct {
		EventConsumption  *bool `yaml:"event_consumption"`
		SnapshotEmission  *bool `yaml:"snapshot_emission"`
		StatementEmission *bool `yaml:"statement_emission"`
	} `yaml:"feature_flags"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                   "M42-Commission-Engine",
		HTTPPort:                    8080,
		GRPCPort:                    9090,
		MaxDBConns:                  20,
		KafkaConsumerGroup:          "m42-commission-engine",
		KafkaTopicAgentUpserted:     "agent.upserted",
		KafkaTopicSaleAttributed:    "campaign.sale_attributed",
		OutboxPollInterval:          2 * time.Second,
		OutboxBatchSize:             100,
		ConsumerPollInterval:        2 * time.Second,
		SchedulerInterval:           time.Minute,
		HealthProbeInterval:         10 * time.Second,
		JWTSecret:                   "m42-local-secret",
		Timezone:                    "America/Mexico_City",
		WeekStartDay:                time.Wednesday,
		WeekStartHour:               0,
		WeekLockTTL:                 15 * time.Minute,
		SummaryCacheTTL:             5 * time.Minute,
		IdempotencyTTL:              7 * 24 * time.Hour,
		EventDedupTTL:               7 * 24 * time.Hour,
		MaxCatchUpWeeks:             8,
		FeatureEventConsumption:     true,
		FeatureSnapshotEmission:     true,
		FeatureStatementEmission:    true,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		cfg.DatabaseURL = f.Dependencies.PostgresURL
		cfg.RedisURL = f.Dependencies.RedisURL
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.KafkaTopicAgentUpserted != "" {
			cfg.KafkaTopicAgentUpserted = f.Dependencies.KafkaTopicAgentUpserted
		}
		if f.Dependencies.KafkaTopicSaleAttributed != "" {
			cfg.KafkaTopicSaleAttributed = f.Dependencies.KafkaTopicSaleAttributed
		}
		if f.Dependencies.KafkaTopicCampaignCreated != "" {
			cfg.KafkaTopicCampaignCreated = f.Dependencies.KafkaTopicCampaignCreated
		}
		if f.Dependencies.KafkaTopicSnapshotComputed != "" {
			cfg.KafkaTopicSnapshotComputed = f.Dependencies.KafkaTopicSnapshotComputed
		}
		if f.Dependencies.KafkaTopicStatementComputed != "" {
			cfg.KafkaTopicStatementComputed = f.Dependencies.KafkaTopicStatementComputed
		}
		if f.Auth.JWTSecret != "" {
			cfg.JWTSecret = f.Auth.JWTSecret
		}
		cfg.JWTIssuer = f.Auth.JWTIssuer
		if f.Schedule.Timezone != "" {
			cfg.Timezone = f.Schedule.Timezone
		}
		if f.Schedule.WeekStartDay != "" {
			day, dayErr := parseWeekday(f.Schedule.WeekStartDay)
			if dayErr != nil {
				return Config{}, dayErr
			}
			cfg.WeekStartDay = day
		}
		if f.Schedule.WeekStartHour != nil {
			cfg.WeekStartHour = *f.Schedule.WeekStartHour
		}
		if f.Schedule.IntervalSeconds > 0 {
			cfg.SchedulerInterval = time.Duration(f.Schedule.IntervalSeconds) * time.Second
		}
		if f.Schedule.LockTTLMinutes > 0 {
			cfg.WeekLockTTL = time.Duration(f.Schedule.LockTTLMinutes) * time.Minute
		}
		if f.Schedule.MaxCatchUpWeeks > 0 {
			cfg.MaxCatchUpWeeks = f.Schedule.MaxCatchUpWeeks
		}
		if f.FeatureFlags.EventConsumption != nil {
			cfg.FeatureEventConsumption = *f.FeatureFlags.EventConsumption
		}
		if f.FeatureFlags.SnapshotEmission != nil {
			cfg.FeatureSnapshotEmission = *f.FeatureFlags.SnapshotEmission
		}
		if f.FeatureFlags.StatementEmission != nil {
			cfg.FeatureStatementEmission = *f.FeatureFlags.StatementEmission
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicAgentUpserted = envOrDefault("KAFKA_TOPIC_AGENT_UPSERTED", cfg.KafkaTopicAgentUpserted)
	cfg.KafkaTopicSaleAttributed = envOrDefault("KAFKA_TOPIC_SALE_ATTRIBUTED", cfg.KafkaTopicSaleAttributed)
	cfg.KafkaTopicCampaignCreated = envOrDefault("KAFKA_TOPIC_CAMPAIGN_CREATED", cfg.KafkaTopicCampaignCreated)
	cfg.KafkaTopicSnapshotComputed = envOrDefault("KAFKA_TOPIC_SNAPSHOT_COMPUTED", cfg.KafkaTopicSnapshotComputed)
	cfg.KafkaTopicStatementComputed = envOrDefault("KAFKA_TOPIC_STATEMENT_COMPUTED", cfg.KafkaTopicStatementComputed)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.Timezone = envOrDefault("COMMISSION_TIMEZONE", cfg.Timezone)
	if raw := strings.TrimSpace(os.Getenv("COMMISSION_WEEK_START_DAY")); raw != "" {
		day, dayErr := parseWeekday(raw)
		if dayErr != nil {
			return Config{}, dayErr
		}
		cfg.WeekStartDay = day
	}
	cfg.WeekStartHour = envInt("COMMISSION_WEEK_START_HOUR", cfg.WeekStartHour)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.SchedulerInterval = time.Duration(envInt("SCHEDULER_INTERVAL_SECONDS", int(cfg.SchedulerInterval.Seconds()))) * time.Second
	cfg.WeekLockTTL = time.Duration(envInt("WEEK_LOCK_TTL_MINUTES", int(cfg.WeekLockTTL.Minutes()))) * time.Minute
	cfg.SummaryCacheTTL = time.Duration(envFloat("SUMMARY_CACHE_MINUTES", cfg.SummaryCacheTTL.Minutes()) * float64(time.Minute))
	cfg.MaxCatchUpWeeks = envInt("MAX_CATCH_UP_WEEKS", cfg.MaxCatchUpWeeks)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.FeatureEventConsumption = envBool("FEATURE_EVENT_CONSUMPTION", cfg.FeatureEventConsumption)
	cfg.FeatureSnapshotEmission = envBool("FEATURE_SNAPSHOT_EMISSION", cfg.FeatureSnapshotEmission)
	cfg.FeatureStatementEmission = envBool("FEATURE_STATEMENT_EMISSION", cfg.FeatureStatementEmission)

	if cfg.WeekStartHour < 0 || cfg.WeekStartHour > 23 {
		return Config{}, fmt.Errorf("week start hour must be within 0-23, got %d", cfg.WeekStartHour)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	return cfg, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name || strings.ToLower(d.String()[:3]) == name {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown week start day %q", raw)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
