package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Jina        string
	HuggingFace string
}

type AIConfig struct {
	EmbeddingProvider string // "jina" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string // e.g. "qwen2.5", "llama3"
}

type ChatConfig struct {
	SessionStore      string // "memory" or "redis"
	SessionTTLMinutes int
	ClassifyTablePath string // optional JSON override of the pattern table
	EmbedTopic        string
	CorpusDir         string // directory of report corpus files for seeding
}

// Survey year window. One report per year, one source id per report.
const (
	FirstReportYear = 2020
	LastReportYear  = 2024
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Jina:        getEnv("JINA_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "jina"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
		},
		Chat: ChatConfig{
			SessionStore:      getEnv("SESSION_STORE", "memory"),
			SessionTTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
			ClassifyTablePath: getEnv("CLASSIFY_TABLE_PATH", ""),
			EmbedTopic:        getEnv("EMBED_REPORT_CHUNK_TOPIC_NAME", "EMBED_REPORT_CHUNK"),
			CorpusDir:         getEnv("CORPUS_DIR", "corpus"),
		},
	}
}

// ReportSources maps each survey year to its source document id.
func (c *Config) ReportSources() map[int]string {
	sources := make(map[int]string)
	for y := FirstReportYear; y <= LastReportYear; y++ {
		sources[y] = fmt.Sprintf("report_%d", y)
	}
	return sources
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
