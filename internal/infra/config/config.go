package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LLMProviderGemini = "gemini"
	LLMProviderOllama = "ollama"

	IndexBackendPgvector = "pgvector"
	IndexBackendChroma   = "chroma"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string
	H2C      bool

	LLM       LLMConfig
	Embedding EmbeddingConfig
	Index     IndexConfig
	DB        DBConfig
	RAG       RAGConfig
	Search    SearchConfig
	Router    RouterConfig
	Ingest    IngestConfig
	OTel      OTelConfig

	// RequestTimeout bounds a whole dispatcher call; zero leaves it to the caller.
	RequestTimeout time.Duration
}

// LLMConfig selects and tunes the generation backend shared by the router and both providers.
type LLMConfig struct {
	Provider       string
	Model          string
	Temperature    float64
	MaxTokens      int
	RouterTokens   int
	GoogleAPIKey   string
	OllamaURL      string
	TimeoutSeconds int
}

type EmbeddingConfig struct {
	URL            string
	Model          string
	TimeoutSeconds int
}

type IndexConfig struct {
	Backend    string
	Collection string
	ChromaURL  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN renders the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RAGConfig struct {
	TopK int
}

type SearchConfig struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Depth      string
	RatePerSec float64
	RetryCount int
	Timeout    time.Duration
}

type RouterConfig struct {
	CacheSize int
}

type IngestConfig struct {
	Dir           string
	ChunkSize     int
	ChunkOverlap  int
	BatchSize     int
	Concurrency   int
	WatchDebounce time.Duration
	PDFLicenseKey string
}

type OTelConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRatio float64
	Environment string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		H2C:      getEnvBool("ENABLE_H2C", false),
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderGemini)),
			Model:          getEnv("LLM_MODEL", "gemini-2.5-pro"),
			Temperature:    getEnvFloat64("LLM_TEMPERATURE", 0.1),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 0),
			RouterTokens:   getEnvInt("LLM_ROUTER_MAX_TOKENS", 0),
			GoogleAPIKey:   getSecret("GOOGLE_API_KEY", "GOOGLE_API_KEY_FILE", ""),
			OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
			TimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 120),
		},
		Embedding: EmbeddingConfig{
			URL:            getEnvWithAlt("EMBEDDING_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:          getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			TimeoutSeconds: getEnvInt("EMBEDDING_TIMEOUT_SECONDS", 30),
		},
		Index: IndexConfig{
			Backend:    strings.ToLower(getEnv("INDEX_BACKEND", IndexBackendPgvector)),
			Collection: getEnv("INDEX_COLLECTION", "course_catalog"),
			ChromaURL:  getEnv("CHROMA_URL", "http://localhost:8000"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "advisor"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "advisor"),
			Name:     getEnv("DB_NAME", "course_advisor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		RAG: RAGConfig{
			TopK: getEnvInt("RAG_TOP_K", 4),
		},
		Search: SearchConfig{
			BaseURL:    getEnv("TAVILY_URL", "https://api.tavily.com"),
			APIKey:     getSecret("TAVILY_API_KEY", "TAVILY_API_KEY_FILE", ""),
			MaxResults: getEnvInt("SEARCH_MAX_RESULTS", 5),
			Depth:      getEnv("SEARCH_DEPTH", "basic"),
			RatePerSec: getEnvFloat64("SEARCH_RATE_PER_SEC", 0),
			RetryCount: getEnvInt("SEARCH_RETRY_COUNT", 2),
			Timeout:    getEnvDuration("SEARCH_TIMEOUT", 30*time.Second),
		},
		Router: RouterConfig{
			CacheSize: getEnvInt("ROUTER_CACHE_SIZE", 512),
		},
		Ingest: IngestConfig{
			Dir:           getEnv("INGEST_DIR", "pdfs"),
			ChunkSize:     getEnvInt("CHUNK_SIZE", 1000),
			ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 200),
			BatchSize:     getEnvInt("EMBED_BATCH_SIZE", 32),
			Concurrency:   getEnvInt("EMBED_CONCURRENCY", 4),
			WatchDebounce: getEnvDuration("WATCH_DEBOUNCE", 2*time.Second),
			PDFLicenseKey: getSecret("UNIDOC_LICENSE_KEY", "UNIDOC_LICENSE_KEY_FILE", ""),
		},
		OTel: OTelConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "course-advisor"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			SampleRatio: getEnvFloat64("OTEL_SAMPLING_RATIO", 1.0),
			Environment: getEnv("ENV", "development"),
		},
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 0),
	}
}

// Validate reports every missing or inconsistent setting the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case LLMProviderGemini:
		if c.LLM.GoogleAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY not found in environment variables"))
		}
	case LLMProviderOllama:
		if c.LLM.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.Search.APIKey == "" {
		errs = append(errs, errors.New("TAVILY_API_KEY not found in environment variables"))
	}
	if c.Index.Backend != IndexBackendPgvector && c.Index.Backend != IndexBackendChroma {
		errs = append(errs, fmt.Errorf("unsupported INDEX_BACKEND %q", c.Index.Backend))
	}
	if c.RAG.TopK <= 0 {
		errs = append(errs, errors.New("RAG_TOP_K must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
