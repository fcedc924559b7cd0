package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the replenishment system.
// One struct serves all three binaries; each reads the sections it needs.
type Config struct {
	App      AppConfig
	Kafka    KafkaConfig
	Retry    RetryConfig
	Supplier SupplierConfig
	Stock    StockConfig
	Emitter  EmitterConfig
	Redis    RedisConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// KafkaConfig defines the broker list and the topics of the event channel.
type KafkaConfig struct {
	Brokers             []string
	EventsTopic         string
	DLQTopic            string
	ConsumerGroup       string
	CommitOnSuccessOnly bool
}

// RetryConfig controls the worker's retry and backoff behaviour.
type RetryConfig struct {
	MaxAttempts       int
	BaseBackoffMs     int
	MaxBackoffMs      int
	Jitter            bool
	WorkerConcurrency int
	MsgMaxBytes       int
}

// SupplierConfig locates the supplier API and bounds each outbound attempt.
type SupplierConfig struct {
	BaseURL        string
	TimeoutSeconds int
	SupplierID     string
}

// StockConfig holds the replenishment threshold applied by the backend.
type StockConfig struct {
	Threshold int
}

// EmitterConfig sizes the backend's bounded event-emission queue.
type EmitterConfig struct {
	QueueSize int
	Workers   int
}

// RedisConfig selects the correlation-store backend. An empty address keeps
// the worker on the in-process store.
type RedisConfig struct {
	Addr       string
	TTLSeconds int
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", true)
	cfg.Kafka.EventsTopic = ldr.getString("INVENTORY_EVENTS_TOPIC", "inventory-events", false)
	cfg.Kafka.DLQTopic = ldr.getString("INVENTORY_DLQ_TOPIC", "inventory-events-dlq", false)
	cfg.Kafka.ConsumerGroup = ldr.getString("CONSUMER_GROUP", "replenishment-worker", false)
	cfg.Kafka.CommitOnSuccessOnly = ldr.getBool("COMMIT_ON_SUCCESS_ONLY", true, false)

	cfg.Retry.MaxAttempts = ldr.getInt("MAX_ATTEMPTS", 3, false)
	cfg.Retry.BaseBackoffMs = ldr.getInt("BASE_BACKOFF_MS", 2000, false)
	cfg.Retry.MaxBackoffMs = ldr.getInt("MAX_BACKOFF_MS", 60000, false)
	cfg.Retry.Jitter = ldr.getBool("BACKOFF_JITTER", false, false)
	cfg.Retry.WorkerConcurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)
	cfg.Retry.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 65536, false)

	cfg.Supplier.BaseURL = ldr.getString("SUPPLIER_API_URL", "http://localhost:8001", false)
	cfg.Supplier.TimeoutSeconds = ldr.getInt("SUPPLIER_TIMEOUT_SECONDS", 30, false)
	cfg.Supplier.SupplierID = ldr.getString("SUPPLIER_ID", "ACME-SUPPLIER-001", false)

	cfg.Stock.Threshold = ldr.getInt("STOCK_THRESHOLD", 10, false)

	cfg.Emitter.QueueSize = ldr.getInt("EMITTER_QUEUE_SIZE", 64, false)
	cfg.Emitter.Workers = ldr.getInt("EMITTER_WORKERS", 1, false)

	cfg.Redis.Addr = ldr.getString("REDIS_ADDR", "", false)
	cfg.Redis.TTLSeconds = ldr.getInt("REDIS_TTL_SECONDS", 86400, false)

	if cfg.Retry.MaxAttempts < 1 {
		ldr.addError("MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Stock.Threshold < 0 {
		ldr.addError("STOCK_THRESHOLD cannot be negative")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid integer", key))
			return def
		}
		return i
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid boolean", key))
			return def
		}
		return parsed
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
