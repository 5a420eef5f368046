package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oladanielT/support-system/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Lifecycle    LifecycleConfig
	Blob         BlobConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures the lifecycle event stream. No brokers means no forwarding.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Enabled reports whether a broker list was supplied.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
	Service     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	LoginRateLimit        int
}

// NotificationConfig controls notification delivery.
type NotificationConfig struct {
	Persist        bool
	RedisChannel   string
	DeliverTimeout time.Duration
}

// LifecycleConfig holds the complaint rules that operators may tune.
type LifecycleConfig struct {
	SLA            domain.SLAPolicy
	OpenQuota      int
	StoreTimeout   time.Duration
	MaxBulkSyncLen int
}

// BlobConfig points at the attachment store.
type BlobConfig struct {
	Dir          string
	MaxFileBytes int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	quota := getEnvAsInt("COMPLAINT_OPEN_QUOTA", 5)
	if quota <= 0 {
		return nil, fmt.Errorf("invalid COMPLAINT_OPEN_QUOTA: %d", quota)
	}

	appName := getEnv("APP_NAME", "support-system")
	appEnv := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   appEnv,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvAsList("KAFKA_BROKERS"),
			Topic:        getEnv("KAFKA_TOPIC", "complaint-events"),
			WriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Encoding:    getEnv("LOG_ENCODING", "json"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", appEnv == "development"),
			Service:     appName,
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginRateLimit:        getEnvAsInt("AUTH_LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		},
		Notification: NotificationConfig{
			Persist:        getEnvAsBool("NOTIFY_PERSIST", true),
			RedisChannel:   getEnv("NOTIFY_REDIS_CHANNEL_PREFIX", "notifications"),
			DeliverTimeout: getEnvAsDuration("NOTIFY_DELIVER_TIMEOUT", 3*time.Second),
		},
		Lifecycle: LifecycleConfig{
			SLA: domain.SLAPolicy{
				domain.PriorityCritical: time.Duration(getEnvAsInt("SLA_CRITICAL_HOURS", 2)) * time.Hour,
				domain.PriorityHigh:     time.Duration(getEnvAsInt("SLA_HIGH_HOURS", 24)) * time.Hour,
				domain.PriorityMedium:   time.Duration(getEnvAsInt("SLA_MEDIUM_HOURS", 72)) * time.Hour,
				domain.PriorityLow:      time.Duration(getEnvAsInt("SLA_LOW_HOURS", 168)) * time.Hour,
			},
			OpenQuota:      quota,
			StoreTimeout:   getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
			MaxBulkSyncLen: getEnvAsInt("BULK_SYNC_MAX_ITEMS", 100),
		},
		Blob: BlobConfig{
			Dir:          getEnv("BLOB_DIR", "./data/attachments"),
			MaxFileBytes: int64(getEnvAsInt("BLOB_MAX_FILE_BYTES", 10<<20)),
		},
	}

	return cfg, nil
}

// DefaultLifecycle mirrors the defaults Load applies when no overrides are set.
func DefaultLifecycle() LifecycleConfig {
	return LifecycleConfig{
		SLA:            domain.DefaultSLA(),
		OpenQuota:      5,
		StoreTimeout:   5 * time.Second,
		MaxBulkSyncLen: 100,
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
