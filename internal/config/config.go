package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Notify    NotifyConfig
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

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines advisor authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SchedulerConfig drives the periodic engine.
type SchedulerConfig struct {
	QueueTickInterval   time.Duration
	MessageTickInterval time.Duration
	NoShowTimeout       time.Duration
	ProximityThreshold  int
	DeliveryBatchSize   int
}

// NotifyConfig selects and configures the outbound channel.
type NotifyConfig struct {
	Provider       string
	SendTimeout    time.Duration
	TelegramToken  string
	TelegramAPIURL string
	PubNubPubKey   string
	PubNubSubKey   string
	PubNubUserID   string
	SnapshotTTL    time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticketero-queue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Scheduler: SchedulerConfig{
			QueueTickInterval:   time.Duration(getEnvAsInt("SCHEDULER_QUEUE_TICK_MS", 5000)) * time.Millisecond,
			MessageTickInterval: time.Duration(getEnvAsInt("SCHEDULER_MESSAGE_TICK_MS", 60000)) * time.Millisecond,
			NoShowTimeout:       time.Duration(getEnvAsInt("SCHEDULER_NO_SHOW_TIMEOUT_SECONDS", 300)) * time.Second,
			ProximityThreshold:  getEnvAsInt("SCHEDULER_PROXIMITY_THRESHOLD", 3),
			DeliveryBatchSize:   getEnvAsInt("SCHEDULER_DELIVERY_BATCH_SIZE", 100),
		},
		Notify: NotifyConfig{
			Provider:       getEnv("NOTIFY_PROVIDER", "log"),
			SendTimeout:    time.Duration(getEnvAsInt("NOTIFY_SEND_TIMEOUT_SECONDS", 10)) * time.Second,
			TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramAPIURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org/bot"),
			PubNubPubKey:   os.Getenv("PUBNUB_PUBLISH_KEY"),
			PubNubSubKey:   os.Getenv("PUBNUB_SUBSCRIBE_KEY"),
			PubNubUserID:   getEnv("PUBNUB_USER_ID", "ticketero-server"),
			SnapshotTTL:    time.Duration(getEnvAsInt("QUEUE_SNAPSHOT_TTL_SECONDS", 30)) * time.Second,
		},
	}

	if cfg.Scheduler.ProximityThreshold < 1 {
		return nil, fmt.Errorf("SCHEDULER_PROXIMITY_THRESHOLD must be >= 1")
	}

	return cfg, nil
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
