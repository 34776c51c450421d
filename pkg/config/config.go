package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Providers ProviderConfig  `mapstructure:"providers"`
}

type AppConfig struct {
	Port           string        `mapstructure:"port"`
	Env            string        `mapstructure:"env"` // e.g., "local", "prod"
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// CacheConfig carries TTLs per data class. Prices move constantly,
// ratios and earnings dates only change with filings.
type CacheConfig struct {
	PortfolioTTL time.Duration `mapstructure:"portfolio_ttl"`
	PriceTTL     time.Duration `mapstructure:"price_ttl"`
	RatioTTL     time.Duration `mapstructure:"ratio_ttl"`
}

type QueueConfig struct {
	Stream string `mapstructure:"stream"`
	Group  string `mapstructure:"group"`
}

type WorkerConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
	BatchDelay   time.Duration `mapstructure:"batch_delay"`
	// Upper bound on one message's rebuild, covering every store call it makes
	MessageTimeout time.Duration `mapstructure:"message_timeout"`
}

type SchedulerConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	TickTimeout time.Duration `mapstructure:"tick_timeout"`
}

type ProviderConfig struct {
	YahooBaseURL  string        `mapstructure:"yahoo_base_url"`
	StooqBaseURL  string        `mapstructure:"stooq_base_url"`
	GoogleBaseURL string        `mapstructure:"google_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// Minimum spacing between calls to the same upstream. These sources are
	// unauthenticated and ban aggressive clients.
	YahooMinInterval  time.Duration `mapstructure:"yahoo_min_interval"`
	StooqMinInterval  time.Duration `mapstructure:"stooq_min_interval"`
	GoogleMinInterval time.Duration `mapstructure:"google_min_interval"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env file into System Environment (if it exists)
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.request_timeout", "25s")

	v.SetDefault("logger.level", "info")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "portfolio")

	v.SetDefault("cache.portfolio_ttl", "60s")
	v.SetDefault("cache.price_ttl", "50s")
	v.SetDefault("cache.ratio_ttl", "10m")

	v.SetDefault("queue.stream", "portfolio_refresh")
	v.SetDefault("queue.group", "refresh_workers")

	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.block_timeout", "5s")
	v.SetDefault("worker.batch_delay", "15s")
	v.SetDefault("worker.message_timeout", "30s")

	v.SetDefault("scheduler.interval", "45s")
	v.SetDefault("scheduler.tick_timeout", "30s")

	v.SetDefault("providers.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.stooq_base_url", "https://stooq.com")
	v.SetDefault("providers.google_base_url", "https://www.google.com")
	v.SetDefault("providers.timeout", "8s")
	v.SetDefault("providers.yahoo_min_interval", "300ms")
	v.SetDefault("providers.stooq_min_interval", "500ms")
	v.SetDefault("providers.google_min_interval", "1s")

	// Map dot-notation to underscores (e.g., "redis.addr" -> "REDIS_ADDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind env vars so flat vars map onto nested structs
	bindEnv(v, "app.port", "app.env", "app.request_timeout")
	bindEnv(v, "logger.level")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "mongo.uri", "mongo.database")
	bindEnv(v, "cache.portfolio_ttl", "cache.price_ttl", "cache.ratio_ttl")
	bindEnv(v, "queue.stream", "queue.group")
	bindEnv(v, "worker.batch_size", "worker.block_timeout", "worker.batch_delay", "worker.message_timeout")
	bindEnv(v, "scheduler.interval", "scheduler.tick_timeout")
	bindEnv(v, "providers.yahoo_base_url", "providers.stooq_base_url", "providers.google_base_url")
	bindEnv(v, "providers.timeout", "providers.yahoo_min_interval", "providers.stooq_min_interval", "providers.google_min_interval")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if cfg.Worker.BatchSize <= 0 {
		return nil, fmt.Errorf("worker batch size must be positive")
	}
	if cfg.Queue.Stream == "" || cfg.Queue.Group == "" {
		return nil, fmt.Errorf("queue stream and group cannot be empty")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
