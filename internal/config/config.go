package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RAGConfig
	Intake   IntakeConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string // prompts and completions only
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string // empty selects the file-backed index
}

type AIConfig struct {
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	LLMBaseURL        string
	OpenAIAPIKey      string
	MaxTokens         int
	TopP              float64
	FrequencyPenalty  float64
	PresencePenalty   float64
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaEmbedModel  string // used instead of EmbeddingModel with EMBEDDING_PROVIDER=ollama
}

type RAGConfig struct {
	DocumentsDir string
	StorageDir   string
	TopK         int
	Temperature  float64
	ChunkSize    int
	ChunkOverlap int
	RebuildTopic string
}

type IntakeConfig struct {
	CatalogPath   string // empty uses the built-in questionnaire
	RevisionLimit int
	RetryAttempts int
	RetryInterval time.Duration
	SessionTTL    time.Duration // idle expiry of a live session, 0 disables it
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4-turbo"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 1024),
			TopP:              getEnvAsFloat("LLM_TOP_P", 1),
			FrequencyPenalty:  getEnvAsFloat("LLM_FREQUENCY_PENALTY", 0),
			PresencePenalty:   getEnvAsFloat("LLM_PRESENCE_PENALTY", 0),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Rag: RAGConfig{
			DocumentsDir: getEnv("RAG_DOCUMENTS_DIR", "./data_ai_act"),
			StorageDir:   getEnv("RAG_STORAGE_DIR", "./storage"),
			TopK:         getEnvAsInt("RAG_TOP_K", 5),
			Temperature:  getEnvAsFloat("RAG_TEMPERATURE", 0.1),
			ChunkSize:    getEnvAsInt("RAG_CHUNK_SIZE", 1024),
			ChunkOverlap: getEnvAsInt("RAG_CHUNK_OVERLAP", 200),
			RebuildTopic: getEnv("RAG_REBUILD_TOPIC", "REBUILD_INDEX"),
		},
		Intake: IntakeConfig{
			CatalogPath:   getEnv("INTAKE_CATALOG_PATH", ""),
			RevisionLimit: getEnvAsInt("INTAKE_REVISION_LIMIT", 1),
			RetryAttempts: getEnvAsInt("INTAKE_RETRY_ATTEMPTS", 1),
			RetryInterval: getEnvAsDuration("INTAKE_RETRY_INTERVAL", 500*time.Millisecond),
			SessionTTL:    getEnvAsDuration("INTAKE_SESSION_TTL", 0),
		},
	}
}

// Validate reports every setting the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Ai.LLMProvider {
	case "openai":
		if c.Ai.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for LLM_PROVIDER=openai"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.Ai.LLMProvider))
	}

	switch c.Ai.EmbeddingProvider {
	case "openai":
		if c.Ai.OpenAIAPIKey == "" && c.Ai.LLMProvider != "openai" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for EMBEDDING_PROVIDER=openai"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", c.Ai.EmbeddingProvider))
	}

	if c.Rag.TopK <= 0 {
		errs = append(errs, errors.New("RAG_TOP_K must be positive"))
	}
	if c.Rag.ChunkSize <= 0 {
		errs = append(errs, errors.New("RAG_CHUNK_SIZE must be positive"))
	}
	if c.Rag.ChunkOverlap < 0 || c.Rag.ChunkOverlap >= c.Rag.ChunkSize {
		errs = append(errs, errors.New("RAG_CHUNK_OVERLAP must be between 0 and RAG_CHUNK_SIZE"))
	}
	if c.Intake.RevisionLimit < 1 {
		errs = append(errs, errors.New("INTAKE_REVISION_LIMIT must be at least 1"))
	}
	if c.Intake.RetryAttempts < 0 {
		errs = append(errs, errors.New("INTAKE_RETRY_ATTEMPTS must not be negative"))
	}
	if c.Intake.SessionTTL < 0 {
		errs = append(errs, errors.New("INTAKE_SESSION_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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
