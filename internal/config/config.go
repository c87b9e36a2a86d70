// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type WebConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // bearer key guarding /api/v1
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // duplicate-cache entry TTL
}

type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MinWidth     int           `yaml:"min_width"`
	MinHeight    int           `yaml:"min_height"`
	MaxBytes     int64         `yaml:"max_bytes"`
	AllowedTypes []string      `yaml:"allowed_types"`
}

type ScorerConfig struct {
	Mode      string        `yaml:"mode"` // test | http
	APIURL    string        `yaml:"api_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	Threshold float64       `yaml:"threshold"` // approval quality gate
}

type StorageConfig struct {
	Mode       string `yaml:"mode"` // supabase | memory
	ProjectURL string `yaml:"project_url"`
	ServiceKey string `yaml:"service_key"`
	Bucket     string `yaml:"bucket"`
}

type PipelineConfig struct {
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`  // per-stage transient retry budget
	RetryBackoff time.Duration `yaml:"retry_backoff"` // base for exponential backoff
	TaskBudget   time.Duration `yaml:"task_budget"`   // overall wall-clock per task
}

type SyncConfig struct {
	AutoInterval time.Duration `yaml:"auto_interval"`
	AutoStoreIDs []string      `yaml:"auto_store_ids"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Scorer   ScorerConfig   `yaml:"scorer"`
	Storage  StorageConfig  `yaml:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sync     SyncConfig     `yaml:"sync"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Scorer.Mode == "http" && cfg.Scorer.APIURL == "" {
		return nil, errors.New("scorer.api_url is required in http mode")
	}
	if cfg.Storage.Mode == "supabase" && (cfg.Storage.ProjectURL == "" || cfg.Storage.Bucket == "") {
		return nil, errors.New("storage.project_url and storage.bucket are required in supabase mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills every zero value with the documented default so a
// sparse config file still yields a runnable pipeline.
func (cfg *Config) ApplyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port <= 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.MinWidth <= 0 {
		cfg.Fetch.MinWidth = 100
	}
	if cfg.Fetch.MinHeight <= 0 {
		cfg.Fetch.MinHeight = 100
	}
	if cfg.Fetch.MaxBytes <= 0 {
		cfg.Fetch.MaxBytes = 10 << 20 // 10 MB
	}
	if len(cfg.Fetch.AllowedTypes) == 0 {
		cfg.Fetch.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	if cfg.Scorer.Mode == "" {
		cfg.Scorer.Mode = "test"
	}
	if cfg.Scorer.Timeout <= 0 {
		cfg.Scorer.Timeout = 60 * time.Second
	}
	if cfg.Scorer.Threshold <= 0 {
		cfg.Scorer.Threshold = 0.7
	}
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = "memory"
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 8
	}
	if cfg.Pipeline.QueueSize <= 0 {
		cfg.Pipeline.QueueSize = cfg.Pipeline.Workers * 4
	}
	if cfg.Pipeline.PollInterval <= 0 {
		cfg.Pipeline.PollInterval = 200 * time.Millisecond
	}
	if cfg.Pipeline.MaxAttempts <= 0 {
		cfg.Pipeline.MaxAttempts = 3
	}
	if cfg.Pipeline.RetryBackoff <= 0 {
		cfg.Pipeline.RetryBackoff = time.Second
	}
	if cfg.Pipeline.TaskBudget <= 0 {
		cfg.Pipeline.TaskBudget = 5 * time.Minute
	}
	if cfg.Sync.AutoInterval <= 0 {
		cfg.Sync.AutoInterval = time.Hour
	}
}
