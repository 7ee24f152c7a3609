package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Recording  RecordingConfig
	Stt        SttConfig
	Enrichment EnrichmentConfig
	Retry      RetryConfig
	Ai         AIConfig
	Keys       APIKeys
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

type RecordingConfig struct {
	// IdleTimeout finalizes an ACTIVE session that stops receiving chunks.
	IdleTimeout     time.Duration
	MaxChunkBytes   int
	IngestQueueSize int
	VadThreshold    float64
}

type SttConfig struct {
	Provider            string // "whisper" or "cloudflare"
	WhisperBaseURL      string
	WhisperAPIKey       string
	WhisperModel        string
	CloudflareAccountID string
	CloudflareAPIToken  string
	CloudflareModel     string
}

type EnrichmentConfig struct {
	// Deadline bounds the whole post-processing pipeline per session.
	Deadline    time.Duration
	PoolWorkers int
	PoolQueue   int
}

type RetryConfig struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string // e.g. "llama3", "qwen2.5"
	LLMBaseURL        string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	EmbedTopic   string // Embedding topic
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Recording: RecordingConfig{
			IdleTimeout:     getEnvAsDuration("RECORDING_IDLE_TIMEOUT", 30*time.Second),
			MaxChunkBytes:   getEnvAsInt("RECORDING_MAX_CHUNK_BYTES", 1<<20),
			IngestQueueSize: getEnvAsInt("RECORDING_INGEST_QUEUE_SIZE", 64),
			VadThreshold:    getEnvAsFloat("VAD_THRESHOLD", 0.015),
		},
		Stt: SttConfig{
			Provider:            getEnv("STT_PROVIDER", "whisper"),
			WhisperBaseURL:      getEnv("WHISPER_BASE_URL", "https://api.openai.com/v1"),
			WhisperAPIKey:       getEnv("WHISPER_API_KEY", ""),
			WhisperModel:        getEnv("WHISPER_MODEL", "whisper-1"),
			CloudflareAccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			CloudflareAPIToken:  getEnv("CLOUDFLARE_API_TOKEN", ""),
			CloudflareModel:     getEnv("CLOUDFLARE_STT_MODEL", "@cf/openai/whisper"),
		},
		Enrichment: EnrichmentConfig{
			Deadline:    getEnvAsDuration("ENRICHMENT_DEADLINE", 120*time.Second),
			PoolWorkers: getEnvAsInt("ENRICHMENT_POOL_WORKERS", 8),
			PoolQueue:   getEnvAsInt("ENRICHMENT_POOL_QUEUE", 32),
		},
		Retry: RetryConfig{
			BaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
			MaxDelay:    getEnvAsDuration("RETRY_MAX_DELAY", 8*time.Second),
			MaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			EmbedTopic:   getEnv("EMBED_TRANSCRIPT_TOPIC_NAME", "EMBED_TRANSCRIPT_SEGMENT"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
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
