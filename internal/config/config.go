package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the data quality monitor.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Alerting   AlertingConfig   `yaml:"alerting"`
	Snapshots  SnapshotConfig   `yaml:"snapshots"`
	Suites     []SuiteConfig    `yaml:"suites"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the configured host, defaulting to localhost.
func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection for trend/history storage.
// An empty URL switches the server to in-memory repositories (dev mode).
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis connection for distributed run locking.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PipelineConfig controls the validation pipeline schedule and limits.
type PipelineConfig struct {
	Name                  string `yaml:"name"`
	DailyAt               string `yaml:"daily_at"`                // "06:00", empty disables daily firing
	IntervalSeconds       int    `yaml:"interval_seconds"`        // >0 enables interval firing (dev/testing)
	DatasetTimeoutSeconds int    `yaml:"dataset_timeout_seconds"` // per-dataset evaluation timeout
	MaxParallelDatasets   int    `yaml:"max_parallel_datasets"`   // 0 = one worker per dataset
	LockTTLSeconds        int    `yaml:"lock_ttl_seconds"`
	RetentionDays         int    `yaml:"retention_days"` // run history retention window
}

// Interval returns the interval-mode firing period.
func (c PipelineConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// DatasetTimeout returns the per-dataset evaluation timeout.
func (c PipelineConfig) DatasetTimeout() time.Duration {
	return time.Duration(c.DatasetTimeoutSeconds) * time.Second
}

// LockTTL returns the distributed lock TTL.
func (c PipelineConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ThresholdConfig holds the success-rate cutoffs for outcome status.
// A rate of exactly 100 is success; a rate at or above CriticalBelow is
// warning; anything below CriticalBelow is critical.
type ThresholdConfig struct {
	CriticalBelow float64 `yaml:"critical_below"`
}

// AlertingConfig controls alert dispatch policy and delivery.
type AlertingConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	InfoOnSuccess   bool   `yaml:"info_on_success"` // emit a confirmation alert for clean runs
	MaxAttempts     int    `yaml:"max_attempts"`    // notifier retry budget
}

// SnapshotConfig selects the dataset snapshot provider.
type SnapshotConfig struct {
	// Source is "postgres", "snowflake", or "static" (bundled sample data).
	Source string `yaml:"source"`
	// DSN for the postgres source.
	DSN string `yaml:"dsn"`
	// Snowflake connection settings, used when Source is "snowflake".
	Snowflake SnowflakeConfig `yaml:"snowflake"`
}

// SnowflakeConfig holds warehouse connection settings.
type SnowflakeConfig struct {
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Account   string `yaml:"account"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
}

// DSN builds the gosnowflake connection string.
func (c SnowflakeConfig) DSN() string {
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s", c.User, c.Password, c.Account, c.Database, c.Schema)
	if c.Warehouse != "" {
		dsn += "?warehouse=" + c.Warehouse
	}
	return dsn
}

// SuiteConfig declares one expectation suite bound to a dataset.
type SuiteConfig struct {
	Dataset      string              `yaml:"dataset"`
	Expectations []ExpectationConfig `yaml:"expectations"`
}

// ExpectationConfig declares a single check within a suite.
type ExpectationConfig struct {
	Type    string   `yaml:"type"`
	Column  string   `yaml:"column"`
	Pattern string   `yaml:"pattern"`
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
}

// Load reads and parses the YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Pipeline.Name == "" {
		cfg.Pipeline.Name = "data_quality_monitoring"
	}
	if cfg.Pipeline.DailyAt == "" && cfg.Pipeline.IntervalSeconds == 0 {
		cfg.Pipeline.DailyAt = "06:00"
	}
	if cfg.Pipeline.DatasetTimeoutSeconds == 0 {
		cfg.Pipeline.DatasetTimeoutSeconds = 120
	}
	if cfg.Pipeline.LockTTLSeconds == 0 {
		cfg.Pipeline.LockTTLSeconds = 900
	}
	if cfg.Pipeline.RetentionDays == 0 {
		cfg.Pipeline.RetentionDays = 90
	}
	if cfg.Thresholds.CriticalBelow == 0 {
		cfg.Thresholds.CriticalBelow = 70
	}
	if cfg.Alerting.MaxAttempts == 0 {
		cfg.Alerting.MaxAttempts = 3
	}
	if cfg.Snapshots.Source == "" {
		cfg.Snapshots.Source = "static"
	}

	return &cfg, nil
}

// LoadFromEnv loads the config file and applies environment overrides.
// A .env file is honored when present.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if hook := os.Getenv("SLACK_WEBHOOK_URL"); hook != "" {
		cfg.Alerting.SlackWebhookURL = hook
	}
	if dsn := os.Getenv("SNAPSHOT_DSN"); dsn != "" {
		cfg.Snapshots.DSN = dsn
	}
	if pw := os.Getenv("SNOWFLAKE_PASSWORD"); pw != "" {
		cfg.Snapshots.Snowflake.Password = pw
	}

	return cfg, nil
}
