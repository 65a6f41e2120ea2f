package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Vision   VisionConfig
	Index    IndexConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	AuthDisabled       bool
}

type DatabaseConfig struct {
	Connection string
}

// VisionConfig points at the model servers. Both providers speak HTTP; the
// embedding server produces 768-dim vectors, the classifier multi-label
// pathology probabilities.
type VisionConfig struct {
	EmbeddingBaseURL  string
	EmbeddingModel    string
	ClassifierBaseURL string
	ClassifierModel   string
	RequestTimeout    time.Duration
}

// IndexConfig controls the retrieval index.
type IndexConfig struct {
	Backend       string // "pgvector" or "memory"
	MetadataDir   string // JSON case metadata for memory builds
	SearchTimeout time.Duration
	TopK          int
	WarmupTopic   string
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
			AuthDisabled:       getEnvAsBool("AUTH_DISABLED", true),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Vision: VisionConfig{
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "medclip-vit"),
			ClassifierBaseURL: getEnv("CLASSIFIER_BASE_URL", "http://localhost:8501"),
			ClassifierModel:   getEnv("CLASSIFIER_MODEL", "densenet121-chexnet"),
			RequestTimeout:    getEnvAsDuration("VISION_REQUEST_TIMEOUT", 30*time.Second),
		},
		Index: IndexConfig{
			Backend:       getEnv("INDEX_BACKEND", "pgvector"),
			MetadataDir:   getEnv("INDEX_METADATA_DIR", "./data/reference_cases"),
			SearchTimeout: getEnvAsDuration("INDEX_SEARCH_TIMEOUT", 5*time.Second),
			TopK:          getEnvAsInt("INDEX_TOP_K", 5),
			WarmupTopic:   getEnv("EMBED_IMAGE_TOPIC_NAME", "EMBED_IMAGE"),
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
