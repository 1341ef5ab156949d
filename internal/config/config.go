// Package config loads service configuration from a YAML file, a .env file
// and CAIXINHA_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. CAIXINHA_STORE_DRIVER
const EnvPrefix = "CAIXINHA"

// Store drivers
const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	GRPC            GRPCConfig    `mapstructure:"grpc"`
	API             APIConfig     `mapstructure:"api"`
	Metrics         MetricsConfig `mapstructure:"metrics"`
	Store           StoreConfig   `mapstructure:"store"`
	Redis           RedisConfig   `mapstructure:"redis"`
	Kafka           KafkaConfig   `mapstructure:"kafka"`
	Ledger          LedgerConfig  `mapstructure:"ledger"`
	Log             LogConfig     `mapstructure:"log"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type APIConfig struct {
	Token string `mapstructure:"token"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig selects the key-value backend.
// Path is used by badger and sqlite, DSN by postgres.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// KafkaConfig configures ledger event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LedgerConfig struct {
	InitialBalance string `mapstructure:"initial_balance"`
	SeedDemo       bool   `mapstructure:"seed_demo"`
}

// OpeningBalance parses InitialBalance with the same rules and bounds as user input
func (c LedgerConfig) OpeningBalance() (decimal.Decimal, error) {
	balance, err := domain.ParseAmount(c.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger.initial_balance: %w", err)
	}
	return balance, nil
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. path may be empty, in which case only
// defaults, .env and the environment are used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grpc.addr", ":8080")
	v.SetDefault("api.token", "dev-token")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("store.driver", DriverBadger)
	v.SetDefault("store.path", "data/caixinha")
	v.SetDefault("store.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=caixinha sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "caixinha")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "caixinha.ledger.events")
	v.SetDefault("ledger.initial_balance", "0.00")
	v.SetDefault("ledger.seed_demo", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Validate checks values that cannot be caught at decode time
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	case DriverBadger, DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", c.Store.Driver)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	balance, err := c.Ledger.OpeningBalance()
	if err != nil {
		return err
	}
	if balance.IsNegative() {
		return errors.New("ledger.initial_balance cannot be negative")
	}

	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr cannot be empty")
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}

	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}

	return nil
}
