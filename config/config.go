package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Scoring strategy names accepted by pipeline.strategy.
const (
	StrategyPolarity = "polarity"
	StrategyBuzz     = "buzz"
)

// Config holds all configuration for the marketbuzz service
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Source   SourceConfig   `mapstructure:"source"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address  string `mapstructure:"address"`
	Schedule string `mapstructure:"schedule"` // cron spec for periodic runs, empty disables
}

// PipelineConfig carries every tunable constant of the signal pipeline.
type PipelineConfig struct {
	WindowWidth time.Duration    `mapstructure:"window_width"`
	Strategy    string           `mapstructure:"strategy"`
	VocabLimit  int              `mapstructure:"vocab_limit"`
	Blend       BlendConfig      `mapstructure:"blend"`
	Engagement  EngagementConfig `mapstructure:"engagement"`
}

// BlendConfig weights the linear combination of the text score and the
// normalized engagement signal into the composite score.
type BlendConfig struct {
	Score      float64 `mapstructure:"score"`
	Engagement float64 `mapstructure:"engagement"`
}

// EngagementConfig weights the raw counters inside the engagement magnitude.
type EngagementConfig struct {
	Likes    float64 `mapstructure:"likes"`
	Reshares float64 `mapstructure:"reshares"`
	Replies  float64 `mapstructure:"replies"`
}

// SourceConfig selects where records come from in serve/scheduled mode.
type SourceConfig struct {
	Kind        string `mapstructure:"kind"` // "file" or "sample"
	Path        string `mapstructure:"path"`
	SampleCount int    `mapstructure:"sample_count"`
}

// StorageConfig groups persistence backends.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig describes the aggregate/record store connection.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string, preferring the explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", errors.New("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig describes the aggregate cache connection.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Validate rejects pipeline settings that cannot produce a meaningful run.
func (p PipelineConfig) Validate() error {
	if p.WindowWidth <= 0 {
		return fmt.Errorf("pipeline.window_width must be positive, got %s", p.WindowWidth)
	}
	switch p.Strategy {
	case StrategyPolarity, StrategyBuzz:
	default:
		return fmt.Errorf("pipeline.strategy must be %q or %q, got %q", StrategyPolarity, StrategyBuzz, p.Strategy)
	}
	if p.VocabLimit <= 0 {
		return fmt.Errorf("pipeline.vocab_limit must be positive, got %d", p.VocabLimit)
	}
	for name, w := range map[string]float64{
		"pipeline.blend.score":         p.Blend.Score,
		"pipeline.blend.engagement":    p.Blend.Engagement,
		"pipeline.engagement.likes":    p.Engagement.Likes,
		"pipeline.engagement.reshares": p.Engagement.Reshares,
		"pipeline.engagement.replies":  p.Engagement.Replies,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%s must be a non-negative finite number, got %v", name, w)
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":10030")
	viper.SetDefault("pipeline.window_width", 15*time.Minute)
	viper.SetDefault("pipeline.strategy", StrategyPolarity)
	viper.SetDefault("pipeline.vocab_limit", 2048)
	viper.SetDefault("pipeline.blend.score", 0.7)
	viper.SetDefault("pipeline.blend.engagement", 0.3)
	viper.SetDefault("pipeline.engagement.likes", 1.0)
	viper.SetDefault("pipeline.engagement.reshares", 1.5)
	viper.SetDefault("pipeline.engagement.replies", 1.0)
	viper.SetDefault("source.kind", "sample")
	viper.SetDefault("source.sample_count", 200)
	viper.SetDefault("storage.redis.ttl", time.Hour)
}

// LoadConfig reads configuration from the given file (or the default search
// paths when path is empty), applies MARKETBUZZ_* environment overrides and
// returns the validated config. A missing config file is not an error: the
// documented defaults describe a complete pipeline.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MARKETBUZZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
