package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the three services.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Board     BoardConfig     `mapstructure:"board"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Env   string `mapstructure:"env"`   // "local" builds a console logger
	Level string `mapstructure:"level"` // zap level name, empty keeps the preset default
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// FeedConfig controls the synthetic universe. Records and the board's
// RenderCost are the two primary load knobs.
type FeedConfig struct {
	Records int   `mapstructure:"records"`
	TickMs  int   `mapstructure:"tick_ms"`
	Seed    int64 `mapstructure:"seed"` // 0 means seed from wall clock
}

type ProcessorConfig struct {
	NumWorkers int `mapstructure:"num_workers"`
}

type BoardConfig struct {
	RenderCost int `mapstructure:"render_cost"` // synthetic per-row workload iterations
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the process environment first so plain env vars and
	// .env entries go through the same viper path.
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.env", "local")
	v.SetDefault("logger.level", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "ticker_ticks")
	v.SetDefault("kafka.group_id", "ticker-processor-group")

	v.SetDefault("feed.records", 1000)
	v.SetDefault("feed.tick_ms", 100)
	v.SetDefault("feed.seed", 0)

	v.SetDefault("processor.num_workers", 4)

	v.SetDefault("board.render_cost", 10000)

	// Dot-notation keys map to underscore env vars (feed.tick_ms -> FEED_TICK_MS).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only maps flat env vars onto nested structs when the keys are
	// bound explicitly.
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "logger.env", "logger.level")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "feed.records", "feed.tick_ms", "feed.seed")
	bindEnv(v, "processor.num_workers")
	bindEnv(v, "board.render_cost")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}
	if cfg.Feed.Records <= 0 {
		return nil, fmt.Errorf("feed.records must be positive, got %d", cfg.Feed.Records)
	}
	if cfg.Feed.TickMs <= 0 {
		return nil, fmt.Errorf("feed.tick_ms must be positive, got %d", cfg.Feed.TickMs)
	}
	if cfg.Processor.NumWorkers <= 0 {
		return nil, fmt.Errorf("processor.num_workers must be positive, got %d", cfg.Processor.NumWorkers)
	}

	return &cfg, nil
}

// NewLogger builds the service logger from config.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Env == "local" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid logger level %q: %v", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return zcfg.Build()
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
