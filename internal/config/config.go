// Package config loads storefront settings from built-in defaults, an
// optional YAML file and STOREFRONT_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "STOREFRONT_"
	ConfigPathEnvVar  = "CONFIG_PATH"
	DefaultConfigPath = "config.yaml"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Cart     CartConfig     `koanf:"cart"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Orders   OrdersConfig   `koanf:"orders"`
	Checkout CheckoutConfig `koanf:"checkout"`
	Notify   NotifyConfig   `koanf:"notify"`
	Redis    RedisConfig    `koanf:"redis"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Postgres PostgresConfig `koanf:"postgres"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Admin    AdminConfig    `koanf:"admin"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"`
	RateWindow      time.Duration `koanf:"rate_window"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type CartConfig struct {
	Driver      string        `koanf:"driver" validate:"oneof=memory redis"`
	IdleTTL     time.Duration `koanf:"idle_ttl"`
	SaveTimeout time.Duration `koanf:"save_timeout"`
	TTL         time.Duration `koanf:"ttl"`
	TTLJitter   time.Duration `koanf:"ttl_jitter"`
}

type CatalogConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory mongo sqlite"`
	// SeedFile is an optional JSON array of products loaded at startup
	SeedFile string `koanf:"seed_file"`
}

type OrdersConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory mongo postgres"`
}

type CheckoutConfig struct {
	ReadConcurrency     int           `koanf:"read_concurrency" validate:"min=0"`
	NotifyTimeout       time.Duration `koanf:"notify_timeout"`
	CompensationTimeout time.Duration `koanf:"compensation_timeout"`
}

type NotifyConfig struct {
	Driver           string        `koanf:"driver" validate:"oneof=log kafka"`
	AdminEmail       string        `koanf:"admin_email"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type MongoConfig struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	MaxPoolSize    uint64        `koanf:"max_pool_size"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type PostgresConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	User          string `koanf:"user"`
	Password      string `koanf:"password"`
	DBName        string `koanf:"dbname"`
	SSLMode       string `koanf:"sslmode"`
	MigrationsDir string `koanf:"migrations_dir"`
}

type SQLiteConfig struct {
	Path          string `koanf:"path"`
	MigrationsDir string `koanf:"migrations_dir"`
}

type KafkaConfig struct {
	Brokers       []string `koanf:"brokers"`
	CustomerTopic string   `koanf:"customer_topic"`
	AdminTopic    string   `koanf:"admin_topic"`
}

type AdminConfig struct {
	// Key guards the admin routes. Empty disables them.
	Key string `koanf:"key"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300,
			RateWindow:      time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Cart: CartConfig{
			Driver:      "memory",
			IdleTTL:     30 * time.Minute,
			SaveTimeout: 5 * time.Second,
			TTL:         30 * 24 * time.Hour,
			TTLJitter:   4 * time.Hour,
		},
		Catalog: CatalogConfig{Driver: "memory"},
		Orders:  OrdersConfig{Driver: "memory"},
		Checkout: CheckoutConfig{
			ReadConcurrency:     8,
			NotifyTimeout:       30 * time.Second,
			CompensationTimeout: 10 * time.Second,
		},
		Notify: NotifyConfig{
			Driver:           "log",
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Mongo:    MongoConfig{URI: "mongodb://localhost:27017", Database: "storefront"},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			User:          "storefront",
			DBName:        "storefront",
			SSLMode:       "disable",
			MigrationsDir: "internal/orders/migrations",
		},
		SQLite: SQLiteConfig{
			Path:          "storefront.db",
			MigrationsDir: "internal/catalog/migrations",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			CustomerTopic: "order-confirmations",
			AdminTopic:    "order-alerts",
		},
	}
}

// Load builds the configuration. Precedence is environment over file over
// defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path, err := configFile(); err != nil {
		return nil, err
	} else if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for _, path := range []string{"server.cors_origins", "kafka.brokers"} {
		if err := splitList(k, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// configFile returns CONFIG_PATH, which must exist when set, or
// config.yaml when present.
func configFile() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file %s: %w", p, err)
		}
		return p, nil
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath, nil
	}
	return "", nil
}

// envKey maps STOREFRONT_SERVER__REQUEST_TIMEOUT to server.request_timeout.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// splitList turns a comma-separated env value into a list.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and the settings each selected driver
// needs.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.Cart.Driver == "redis" && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required for the redis cart driver"))
	}
	if (c.Catalog.Driver == "mongo" || c.Orders.Driver == "mongo") && (c.Mongo.URI == "" || c.Mongo.Database == "") {
		errs = append(errs, errors.New("mongo.uri and mongo.database are required for the mongo driver"))
	}
	if c.Catalog.Driver == "sqlite" && c.SQLite.Path == "" {
		errs = append(errs, errors.New("sqlite.path is required for the sqlite catalog driver"))
	}
	if c.Orders.Driver == "postgres" && (c.Postgres.Host == "" || c.Postgres.DBName == "") {
		errs = append(errs, errors.New("postgres.host and postgres.dbname are required for the postgres orders driver"))
	}
	if c.Notify.Driver == "kafka" && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required for the kafka notifier"))
	}
	return errors.Join(errs...)
}
