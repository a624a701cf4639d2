package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

// Generator holds dataset sizes and the randomness seed.
type Generator struct {
	OutputDir        string
	Seed             uint64
	Users            int
	Products         int
	Orders           int
	MaxItemsPerOrder int
}

// Loader configures how CSV files are copied into the database.
type Loader struct {
	InputDir  string
	BatchSize int
}

// Messaging configures the dataset event bus.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency.
type Worker struct {
	Enabled     bool
	Concurrency int
}

// Database holds the load target connection settings.
type Database struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	EnableMetrics   bool
	MetricsExporter string
	PushgatewayURL  string
}

// Config wraps all application configuration knobs.
type Config struct {
	Generator     Generator
	Loader        Loader
	Messaging     Messaging
	Database      Database
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from environment variables or defaults.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	outputDir := getEnv("GEN_OUTPUT_DIR", "data")

	cfg := Config{
		Generator: Generator{
			OutputDir:        outputDir,
			Seed:             getEnvAsUint64("GEN_SEED", 42),
			Users:            getEnvAsInt("GEN_USERS", 100),
			Products:         getEnvAsInt("GEN_PRODUCTS", 80),
			Orders:           getEnvAsInt("GEN_ORDERS", 250),
			MaxItemsPerOrder: getEnvAsInt("GEN_MAX_ITEMS_PER_ORDER", 5),
		},
		Loader: Loader{
			InputDir:  getEnv("LOAD_INPUT_DIR", outputDir),
			BatchSize: getEnvAsInt("LOAD_BATCH_SIZE", 500),
		},
		Messaging: Messaging{
			Driver:  getEnv("MESSAGING_DRIVER", "kafka"),
			Enabled: getEnvAsBool("MESSAGING_ENABLED", false),
			Kafka: Kafka{
				Brokers:        getEnvAsStringSlice("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       getEnv("KAFKA_CLIENT_ID", "shopdata"),
				Topic:          getEnv("KAFKA_TOPIC", "datasets.generated"),
				CommitInterval: getEnvAsDuration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       getEnvAsInt("KAFKA_MIN_BYTES", 1),
				MaxBytes:       getEnvAsInt("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: getEnvAsDuration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "shopdata-loader"),
			Workers: Worker{
				Enabled:     getEnvAsBool("WORKER_ENABLED", true),
				Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 1),
			},
		},
		Database: Database{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_DSN", "file:backend/ecommerce.db?_foreign_keys=on"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 0),
		},
		Observability: Observability{
			ServiceName:     getEnv("OBS_SERVICE_NAME", "shopdata"),
			Environment:     getEnv("OBS_ENVIRONMENT", "local"),
			LogLevel:        getEnv("OBS_LOG_LEVEL", "info"),
			LogEncoding:     getEnv("OBS_LOG_ENCODING", "console"),
			EnableTracing:   getEnvAsBool("OBS_ENABLE_TRACING", false),
			TraceExporter:   getEnv("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   getEnv("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   getEnvAsBool("OBS_OTLP_INSECURE", true),
			EnableMetrics:   getEnvAsBool("OBS_ENABLE_METRICS", true),
			MetricsExporter: getEnv("OBS_METRICS_EXPORTER", "prometheus"),
			PushgatewayURL:  getEnv("OBS_PUSHGATEWAY_URL", ""),
		},
	}

	if err := cfg.Normalize(); err != nil {
		return Config{}, errorbank.InvalidConfig("invalid configuration", errorbank.WithCause(err))
	}
	return cfg, nil
}

// Normalize applies defaults to empty knobs and rejects unusable values.
// It is safe to call again after command-line overrides.
func (cfg *Config) Normalize() error {
	gen := cfg.Generator
	if strings.TrimSpace(gen.OutputDir) == "" {
		return fmt.Errorf("GEN_OUTPUT_DIR must be provided")
	}
	if gen.Users <= 0 {
		return fmt.Errorf("invalid user count: %d", gen.Users)
	}
	if gen.Products <= 0 {
		return fmt.Errorf("invalid product count: %d", gen.Products)
	}
	if gen.Orders < 0 {
		return fmt.Errorf("invalid order count: %d", gen.Orders)
	}
	if gen.MaxItemsPerOrder <= 0 {
		return fmt.Errorf("invalid max items per order: %d", gen.MaxItemsPerOrder)
	}

	if strings.TrimSpace(cfg.Loader.InputDir) == "" {
		cfg.Loader.InputDir = gen.OutputDir
	}
	if cfg.Loader.BatchSize <= 0 {
		cfg.Loader.BatchSize = 500
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "sqlite", "postgres", "mysql":
		// supported
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("missing DB_DSN")
	}

	obs := &cfg.Observability
	obs.LogLevel = strings.ToLower(strings.TrimSpace(obs.LogLevel))
	if obs.LogLevel == "" {
		obs.LogLevel = "info"
	}
	obs.LogEncoding = strings.ToLower(strings.TrimSpace(obs.LogEncoding))
	if obs.LogEncoding == "" {
		obs.LogEncoding = "console"
	}
	obs.TraceExporter = strings.ToLower(strings.TrimSpace(obs.TraceExporter))
	if obs.TraceExporter == "" {
		obs.TraceExporter = "stdout"
	}
	obs.MetricsExporter = strings.ToLower(strings.TrimSpace(obs.MetricsExporter))
	if obs.MetricsExporter == "" {
		obs.MetricsExporter = "prometheus"
	}

	if !cfg.Messaging.Enabled {
		cfg.Messaging.Driver = "noop"
	}

	switch cfg.Messaging.Driver {
	case "kafka", "noop":
		// supported
	default:
		return fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}

	if cfg.Messaging.Driver == "kafka" {
		if len(cfg.Messaging.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS must be provided")
		}
		if cfg.Messaging.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC must be provided")
		}
		if cfg.Messaging.ConsumerGroup == "" {
			return fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	if cfg.Messaging.Workers.Concurrency <= 0 {
		cfg.Messaging.Workers.Concurrency = 1
	}

	return nil
}
