package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the complete application configuration, read once at startup.
// Every external collaborator is optional; a missing credential disables the
// corresponding feature instead of crashing the process.
type Config struct {
	Port string

	Gemini   GeminiConfig
	Qdrant   QdrantConfig
	Mongo    MongoConfig
	Database DatabaseConfig
	Search   SearchConfig
}

// GeminiConfig holds the Google Gemini provider configuration.
type GeminiConfig struct {
	APIKey          string
	GenerativeModel string
	EmbeddingModel  string
	Timeout         time.Duration
}

// QdrantConfig holds the vector knowledge base configuration.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// MongoConfig holds the transcript store configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DatabaseConfig holds the relational log store configuration.
// ConnectionString (DATABASE_URL) takes precedence over individual DB_* vars.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             string
	User             string
	Password         string
	Database         string
	SSLMode          string
}

// SearchConfig holds the knowledge-base search tuning knobs. ScoreThreshold
// is the recall/precision knob: lowering it favors internal matches over the
// external fallback.
type SearchConfig struct {
	ScoreThreshold float64
	Limit          int
}

// Capabilities are the feature flags derived from configuration once at
// startup and consulted per request. Read-only after startup.
type Capabilities struct {
	AI            bool
	KnowledgeBase bool
	Transcripts   bool
	LogStore      bool
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Gemini: GeminiConfig{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			GenerativeModel: getEnv("GEMINI_GENERATIVE_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:  getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			Timeout:         getEnvDuration("GEMINI_TIMEOUT_SECONDS", 60*time.Second),
		},
		Qdrant: QdrantConfig{
			URL:        os.Getenv("QDRANT_URL"),
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Collection: getEnv("QDRANT_COLLECTION", "factory_manuals"),
			Timeout:    getEnvDuration("QDRANT_TIMEOUT_SECONDS", 20*time.Second),
		},
		Mongo: MongoConfig{
			URI:        os.Getenv("MONGO_CONNECTION_STRING"),
			Database:   getEnv("MONGO_DATABASE_NAME", "ITKnowledgeBase"),
			Collection: getEnv("MONGO_COLLECTION_NAME", "Queries"),
		},
		Database: DatabaseConfig{
			ConnectionString: os.Getenv("DATABASE_URL"),
			Host:             os.Getenv("DB_HOST"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             os.Getenv("DB_USER"),
			Password:         os.Getenv("DB_PASSWORD"),
			Database:         os.Getenv("DB_NAME"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
		},
		Search: SearchConfig{
			ScoreThreshold: getEnvFloat("SEARCH_SCORE_THRESHOLD", 0.4),
			Limit:          getEnvInt("SEARCH_LIMIT", 50),
		},
	}
}

// Capabilities computes the feature flags from the presence of credentials.
// Callers flip a flag off when a client fails to initialize, then treat the
// struct as immutable.
func (c *Config) Capabilities() Capabilities {
	return Capabilities{
		AI:            c.Gemini.APIKey != "",
		KnowledgeBase: c.Qdrant.URL != "",
		Transcripts:   c.Mongo.URI != "",
		LogStore:      c.Database.DSN() != "",
	}
}

// DSN returns the Postgres connection string, preferring DATABASE_URL over
// the discrete DB_* variables. Empty when the log store is unconfigured.
func (d DatabaseConfig) DSN() string {
	if d.ConnectionString != "" {
		return d.ConnectionString
	}
	if d.Host == "" || d.User == "" || d.Database == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Database, d.Port, d.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
