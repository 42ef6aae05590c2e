package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	Debug       bool
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	OpenAIAPIKey      string
	Temperature       float64
}

// RetrievalConfig holds every retrieval knob. Values are fixed at Load and
// never mutated afterwards; per-call overrides go through retriever options.
type RetrievalConfig struct {
	RetrieverKind      string // bm25, tfidf, dense, mmr, contextual, hybrid
	TopK               int
	SeedK              int
	Window             int
	FetchK             int
	LambdaMult         float64
	Threshold          float64
	RunThreshold       float64
	UseBestSessionOnly bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log"),
			Debug:       getEnvAsBool("CHAT_DEBUG", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.1:8b"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		},
		Retrieval: RetrievalConfig{
			RetrieverKind:      getEnv("RETRIEVER_KIND", "hybrid"),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 5),
			SeedK:              getEnvAsInt("RETRIEVAL_SEED_K", 3),
			Window:             getEnvAsInt("RETRIEVAL_WINDOW", 1),
			FetchK:             getEnvAsInt("RETRIEVAL_FETCH_K", 40),
			LambdaMult:         getEnvAsFloat("RETRIEVAL_LAMBDA_MULT", 0.4),
			Threshold:          getEnvAsFloat("RETRIEVAL_THRESHOLD", 0.40),
			RunThreshold:       getEnvAsFloat("RETRIEVAL_RUN_THRESHOLD", 0.65),
			UseBestSessionOnly: getEnvAsBool("RETRIEVAL_BEST_SESSION_ONLY", true),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
