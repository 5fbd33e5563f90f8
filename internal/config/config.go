package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
	Quota     QuotaConfig
	Cache     CacheConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	Provider      string // "gemini" or "ollama"
	Model         string
	GeminiAPIKey  string
	OllamaBaseURL string
	Timeout       time.Duration // sync completion budget before fallback
	StreamTimeout time.Duration // hard bound on streaming completions
}

type QueueConfig struct {
	Backend      string // "jetstream" or "channel"
	Topic        string
	MaxAttempts  int
	RetryBackoff time.Duration
}

type RateLimitConfig struct {
	Backend string // "memory" or "redis"
	Window  time.Duration
	Max     int
}

type QuotaConfig struct {
	BasicDaily int
	ProDaily   int
}

type CacheConfig struct {
	Backend         string // "memory" or "redis"
	ListTTL         time.Duration
	ConversationTTL time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			Provider:      getEnv("LLM_PROVIDER", "gemini"),
			Model:         getEnv("LLM_MODEL", "gemini-1.5-flash"),
			GeminiAPIKey:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Timeout:       getEnvAsDuration("AI_TIMEOUT", 15*time.Second),
			StreamTimeout: getEnvAsDuration("AI_STREAM_TIMEOUT", 2*time.Minute),
		},
		Queue: QueueConfig{
			Backend:      getEnv("QUEUE_BACKEND", "jetstream"),
			Topic:        getEnv("QUEUE_TOPIC", "jobs.chat"),
			MaxAttempts:  getEnvAsInt("JOB_MAX_ATTEMPTS", 3),
			RetryBackoff: getEnvAsDuration("JOB_RETRY_BACKOFF", 2*time.Second),
		},
		RateLimit: RateLimitConfig{
			Backend: getEnv("RATE_LIMIT_BACKEND", "memory"),
			Window:  getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			Max:     getEnvAsInt("RATE_LIMIT_MAX", 100),
		},
		Quota: QuotaConfig{
			BasicDaily: getEnvAsInt("QUOTA_BASIC_DAILY", 5),
			// Pro is "unlimited" product-wise; kept as a large constant so
			// remaining-count arithmetic stays well-defined.
			ProDaily: getEnvAsInt("QUOTA_PRO_DAILY", 10000),
		},
		Cache: CacheConfig{
			Backend:         getEnv("CACHE_BACKEND", "memory"),
			ListTTL:         getEnvAsDuration("CACHE_LIST_TTL", 120*time.Second),
			ConversationTTL: getEnvAsDuration("CACHE_CONVERSATION_TTL", 300*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
