package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Gemini   GeminiConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig points at the receipt archive. An empty URL disables it.
type DatabaseConfig struct {
	URL string
}

// RedisConfig configures notification fan-out. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures store event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	TopicStore    string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type BusinessConfig struct {
	NotificationTTL    time.Duration
	SessionIdleTimeout time.Duration
	JanitorInterval    time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	geminiTimeout, _ := strconv.Atoi(getEnv("GEMINI_TIMEOUT_SECONDS", "15"))
	notificationMillis, _ := strconv.Atoi(getEnv("NOTIFICATION_TTL_MS", "3000"))
	idleTimeout, _ := strconv.Atoi(getEnv("SESSION_IDLE_TIMEOUT_SECONDS", "1800"))
	janitorInterval, _ := strconv.Atoi(getEnv("SESSION_JANITOR_INTERVAL_SECONDS", "60"))

	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("API_KEY", "")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicStore:    getEnv("KAFKA_TOPIC_STORE_EVENTS", "store-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "tracer-store-receipts"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Gemini: GeminiConfig{
			APIKey:  apiKey,
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
			Timeout: time.Duration(positiveOr(geminiTimeout, 15)) * time.Second,
		},
		Business: BusinessConfig{
			NotificationTTL:    time.Duration(positiveOr(notificationMillis, 3000)) * time.Millisecond,
			SessionIdleTimeout: time.Duration(positiveOr(idleTimeout, 1800)) * time.Second,
			JanitorInterval:    time.Duration(positiveOr(janitorInterval, 60)) * time.Second,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
