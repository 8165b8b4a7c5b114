package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config описывает настройки запуска приложения.
// Все значения переопределяются переменными окружения с префиксом ECOM_.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver string
	PostgresDSN   string

	RedisAddr    string
	KafkaBrokers []string

	JWTSecret string
	TokenTTL  time.Duration

	IdempotencyTTL             time.Duration
	IdempotencyCleanupInterval time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
}

// DefaultConfig возвращает настройки для локальной разработки:
// in-memory хранилище, без Redis и Kafka.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",

		StorageDriver: StorageMemory,

		JWTSecret: "dev-secret-change-me",
		TokenTTL:  15 * time.Minute,

		IdempotencyTTL:             24 * time.Hour,
		IdempotencyCleanupInterval: 10 * time.Minute,

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
	}
}

// ReadConfig собирает конфигурацию: .env (если есть), затем окружение.
func ReadConfig() (Config, error) {
	// .env — удобство локального запуска; отсутствие файла не ошибка.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("ECOM_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("ECOM_METRICS_ADDR", cfg.MetricsAddr)
	cfg.StorageDriver = strings.ToLower(envString("ECOM_STORAGE_DRIVER", cfg.StorageDriver))
	cfg.PostgresDSN = envString("ECOM_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = envString("ECOM_REDIS_ADDR", cfg.RedisAddr)
	cfg.JWTSecret = envString("ECOM_JWT_SECRET", cfg.JWTSecret)

	if brokers := envString("ECOM_KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitBrokers(brokers)
	}

	var err error
	if cfg.TokenTTL, err = envDuration("ECOM_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = envDuration("ECOM_IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyCleanupInterval, err = envDuration("ECOM_IDEMPOTENCY_CLEANUP_INTERVAL", cfg.IdempotencyCleanupInterval); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = envDuration("ECOM_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.OutboxBatchSize, err = envInt("ECOM_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize); err != nil {
		return Config{}, err
	}
	if cfg.OutboxMaxAttempts, err = envInt("ECOM_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("ECOM_POSTGRES_DSN is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q (use %s|%s)", c.StorageDriver, StorageMemory, StoragePostgres)
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("ECOM_JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("ECOM_TOKEN_TTL must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("ECOM_OUTBOX_BATCH_SIZE must be positive")
	}
	if c.OutboxMaxAttempts <= 0 {
		return fmt.Errorf("ECOM_OUTBOX_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func envString(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", name, raw)
	}
	return v, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", name, raw)
	}
	return v, nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
