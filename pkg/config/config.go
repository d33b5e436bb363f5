package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the broadcaster
type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	Redis RedisConfig `mapstructure:"redis"`
	Store StoreConfig `mapstructure:"store"`
	Hub   HubConfig   `mapstructure:"hub"`
}

type AppConfig struct {
	Port          string        `mapstructure:"port"`
	Env           string        `mapstructure:"env"` // e.g., "local", "prod"
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
	// Replay controls whether consumption starts at the earliest retained
	// offset (pre-populating the store with history) or only at new records.
	Replay bool `mapstructure:"replay"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "memory" or "redis"
}

type HubConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	SessionBuffer     int           `mapstructure:"session_buffer"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the system environment first so viper sees those
	// variables the same way it sees real env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.shutdown_grace", 10*time.Second)

	v.SetDefault("kafka.brokers", []string{"localhost:29092"})
	v.SetDefault("kafka.topic", "rsi-data")
	v.SetDefault("kafka.group_id", "")
	v.SetDefault("kafka.replay", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("store.backend", "memory")

	v.SetDefault("hub.heartbeat_interval", 15*time.Second)
	v.SetDefault("hub.session_buffer", 64)

	// Maps dot-notation to underscores (e.g., "kafka.topic" -> "KAFKA_TOPIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit binds so flat env vars land in the nested struct
	bindEnv(v, "app.port", "app.env", "app.shutdown_grace")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id", "kafka.replay")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "store.backend")
	bindEnv(v, "hub.heartbeat_interval", "hub.session_buffer")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}
	if cfg.Kafka.Topic == "" {
		return nil, fmt.Errorf("kafka topic cannot be empty")
	}
	switch cfg.Store.Backend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory or redis)", cfg.Store.Backend)
	}
	if cfg.Hub.SessionBuffer <= 0 {
		return nil, fmt.Errorf("hub session buffer must be positive")
	}
	if cfg.Hub.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("hub heartbeat interval must be positive")
	}

	return &cfg, nil
}

// GroupIDOrDerived returns the configured consumer group, or one derived from
// process start so every replica replays the topic independently.
func (k KafkaConfig) GroupIDOrDerived(startedAt time.Time) string {
	if k.GroupID != "" {
		return k.GroupID
	}
	return fmt.Sprintf("rsi-broadcaster-%d", startedAt.UnixNano())
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
