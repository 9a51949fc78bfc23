package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxConns     int    `env:"DB_MAX_CONNS" envDefault:"10"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"postgres"`
	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Webhook Config (рассылка смены статуса службам)
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// NATS Config (операторский канал)
	NATSURL string `env:"NATS_URL"`

	// Twilio / Firebase
	TwilioAccountSID        string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken         string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber        string `env:"TWILIO_FROM_NUMBER"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`

	// Внешние сервисы
	RegistryURL       string        `env:"REGISTRY_URL"`
	ProfileURL        string        `env:"PROFILE_URL"`
	ClassifierURL     string        `env:"CLASSIFIER_URL"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"3s"`
	ClassifyTimeout   time.Duration `env:"CLASSIFY_TIMEOUT" envDefault:"2s"`
	RegistryCacheSize int           `env:"REGISTRY_CACHE_SIZE" envDefault:"256"`
	RegistryCacheTTL  time.Duration `env:"REGISTRY_CACHE_TTL" envDefault:"30s"`
	RegistryPushTTL   time.Duration `env:"REGISTRY_PUSH_TTL" envDefault:"2m"`
	LocationShareURL  string        `env:"LOCATION_SHARE_URL" envDefault:"https://share.example.org/live"`
	LocationShareKey  string        `env:"LOCATION_SHARE_KEY"`
	FallbackGuidance  []string      `env:"FALLBACK_NUMBERS"`

	// Routing Config
	RoutingPolicyFile      string        `env:"ROUTING_POLICY_FILE"`
	RoutingServicesPerTier int           `env:"ROUTING_SERVICES_PER_TIER" envDefault:"3"`
	RoutingInitialRadiusKm float64       `env:"ROUTING_INITIAL_RADIUS_KM" envDefault:"10"`
	RoutingRadiusStepKm    float64       `env:"ROUTING_RADIUS_STEP_KM" envDefault:"50"`
	RoutingMaxRadiusKm     float64       `env:"ROUTING_MAX_RADIUS_KM" envDefault:"500"`
	RoutingBudget          time.Duration `env:"ROUTING_BUDGET" envDefault:"5s"`

	// Alert Config
	AlertWorkers           int           `env:"ALERT_WORKERS" envDefault:"8"`
	AlertMaxAttempts       int           `env:"ALERT_MAX_ATTEMPTS" envDefault:"3"`
	AlertBaseBackoff       time.Duration `env:"ALERT_BASE_BACKOFF" envDefault:"500ms"`
	AlertMaxBackoff        time.Duration `env:"ALERT_MAX_BACKOFF" envDefault:"5s"`
	AlertAttemptTimeout    time.Duration `env:"ALERT_ATTEMPT_TIMEOUT" envDefault:"10s"`
	ResponderTargetLatency time.Duration `env:"RESPONDER_TARGET_LATENCY" envDefault:"3s"`
	ContactTargetLatency   time.Duration `env:"CONTACT_TARGET_LATENCY" envDefault:"5s"`

	// Deletion Config
	DeletionDelay           time.Duration `env:"DELETION_DELAY" envDefault:"24h"`
	DeletionRetryInterval   time.Duration `env:"DELETION_RETRY_INTERVAL" envDefault:"1h"`
	DeletionEscalationAfter time.Duration `env:"DELETION_ESCALATION_AFTER" envDefault:"48h"`
	DeletionPollInterval    time.Duration `env:"DELETION_POLL_INTERVAL" envDefault:"1m"`
	AuditRetention          time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`

	// API Keys for authentication
	APIKeys          []string `env:"API_KEYS"`
	// Секрет для подписи токенов акторов (JWT HS256)
	ActorTokenSecret string   `env:"ACTOR_TOKEN_SECRET"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		DBMaxConns:              getEnvAsInt("DB_MAX_CONNS", 10),
		MigrationsPath:          getEnv("MIGRATIONS_PATH", "file://migrations"),
		StoreDriver:             getEnv("STORE_DRIVER", "postgres"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:               os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getEnvAsInt("REDIS_DB", 0),
		RedisPoolSize:           getEnvAsInt("REDIS_POOL_SIZE", 10),
		WebhookURL:              os.Getenv("WEBHOOK_URL"),
		WebhookSecret:           os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:          getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:       getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:        getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		NATSURL:                 os.Getenv("NATS_URL"),
		TwilioAccountSID:        os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:         os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:        os.Getenv("TWILIO_FROM_NUMBER"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		RegistryURL:             os.Getenv("REGISTRY_URL"),
		ProfileURL:              os.Getenv("PROFILE_URL"),
		ClassifierURL:           os.Getenv("CLASSIFIER_URL"),
		GatewayTimeout:          getEnvAsDuration("GATEWAY_TIMEOUT", 3*time.Second),
		ClassifyTimeout:         getEnvAsDuration("CLASSIFY_TIMEOUT", 2*time.Second),
		RegistryCacheSize:       getEnvAsInt("REGISTRY_CACHE_SIZE", 256),
		RegistryCacheTTL:        getEnvAsDuration("REGISTRY_CACHE_TTL", 30*time.Second),
		RegistryPushTTL:         getEnvAsDuration("REGISTRY_PUSH_TTL", 2*time.Minute),
		LocationShareURL:        getEnv("LOCATION_SHARE_URL", "https://share.example.org/live"),
		LocationShareKey:        os.Getenv("LOCATION_SHARE_KEY"),
		FallbackGuidance:        getEnvAsList("FALLBACK_NUMBERS", []string{"112", "911"}),
		RoutingPolicyFile:       os.Getenv("ROUTING_POLICY_FILE"),
		RoutingServicesPerTier:  getEnvAsInt("ROUTING_SERVICES_PER_TIER", 3),
		RoutingInitialRadiusKm:  getEnvAsFloat("ROUTING_INITIAL_RADIUS_KM", 10),
		RoutingRadiusStepKm:     getEnvAsFloat("ROUTING_RADIUS_STEP_KM", 50),
		RoutingMaxRadiusKm:      getEnvAsFloat("ROUTING_MAX_RADIUS_KM", 500),
		RoutingBudget:           getEnvAsDuration("ROUTING_BUDGET", 5*time.Second),
		AlertWorkers:            getEnvAsInt("ALERT_WORKERS", 8),
		AlertMaxAttempts:        getEnvAsInt("ALERT_MAX_ATTEMPTS", 3),
		AlertBaseBackoff:        getEnvAsDuration("ALERT_BASE_BACKOFF", 500*time.Millisecond),
		AlertMaxBackoff:         getEnvAsDuration("ALERT_MAX_BACKOFF", 5*time.Second),
		AlertAttemptTimeout:     getEnvAsDuration("ALERT_ATTEMPT_TIMEOUT", 10*time.Second),
		ResponderTargetLatency:  getEnvAsDuration("RESPONDER_TARGET_LATENCY", 3*time.Second),
		ContactTargetLatency:    getEnvAsDuration("CONTACT_TARGET_LATENCY", 5*time.Second),
		DeletionDelay:           getEnvAsDuration("DELETION_DELAY", 24*time.Hour),
		DeletionRetryInterval:   getEnvAsDuration("DELETION_RETRY_INTERVAL", time.Hour),
		DeletionEscalationAfter: getEnvAsDuration("DELETION_ESCALATION_AFTER", 48*time.Hour),
		DeletionPollInterval:    getEnvAsDuration("DELETION_POLL_INTERVAL", time.Minute),
		AuditRetention:          getEnvAsDuration("AUDIT_RETENTION", 90*24*time.Hour),
		APIKeys:                 getEnvAsList("API_KEYS", nil),
		ActorTokenSecret:        os.Getenv("ACTOR_TOKEN_SECRET"),
	}

	if cfg.StoreDriver != "memory" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.AlertMaxAttempts < 1 || cfg.AlertMaxAttempts > 3 {
		return nil, fmt.Errorf("ALERT_MAX_ATTEMPTS must be between 1 and 3, got %d", cfg.AlertMaxAttempts)
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	items := strings.Split(value, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}
