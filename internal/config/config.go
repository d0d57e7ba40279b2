package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               string
	StoreBackend       string
	PostgresURL        string
	LLMProvider        string
	LLMModel           string
	LLMBaseURL         string
	OpenAIAPIKey       string
	OpenAIAPIKeyEnc    string
	SecretsKey         string
	EmbeddingModel     string
	EmbeddingBaseURL   string
	MaxTurnIterations  int
	DefaultSearchLimit int
	MaxThreads         int
	ThreadTTL          time.Duration
	MaxHistoryMessages int
}

func Load() Config {
	postgresURL := getEnv("POSTGRES_URL", "")
	if postgresURL == "" {
		postgresURL = buildPostgresURL()
	}
	return Config{
		Port:               getEnv("ENGINE_PORT", "8080"),
		StoreBackend:       getEnv("STORE_BACKEND", "postgres"),
		PostgresURL:        postgresURL,
		LLMProvider:        getEnv("LLM_PROVIDER", "openai"),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIKeyEnc:    getEnv("OPENAI_API_KEY_ENC", ""),
		SecretsKey:         getEnv("SECRETS_KEY", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		MaxTurnIterations:  getEnvInt("MAX_TURN_ITERATIONS", 8),
		DefaultSearchLimit: getEnvInt("DEFAULT_SEARCH_LIMIT", 5),
		MaxThreads:         getEnvInt("MAX_THREADS", 1024),
		ThreadTTL:          time.Duration(getEnvInt("THREAD_TTL_MINUTES", 60)) * time.Minute,
		MaxHistoryMessages: getEnvInt("MAX_HISTORY_MESSAGES", 80),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func buildPostgresURL() string {
	user := getEnv("POSTGRES_USER", "scholarline")
	password := getEnv("POSTGRES_PASSWORD", "scholarline")
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	database := getEnv("POSTGRES_DB", "scholarline")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, database)
}
