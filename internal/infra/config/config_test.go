package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LLM_PROVIDER", "LLM_MODEL", "LLM_TEMPERATURE", "RAG_TOP_K",
		"SEARCH_MAX_RESULTS", "SEARCH_DEPTH", "ROUTER_CACHE_SIZE", "CHUNK_SIZE", "CHUNK_OVERLAP",
		"INDEX_BACKEND", "INDEX_COLLECTION", "REQUEST_TIMEOUT"} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, LLMProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.Equal(t, 4, cfg.RAG.TopK, "top-k should default to 4")
	assert.Equal(t, 5, cfg.Search.MaxResults, "web results should default to 5")
	assert.Equal(t, "basic", cfg.Search.Depth)
	assert.Equal(t, 512, cfg.Router.CacheSize)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, IndexBackendPgvector, cfg.Index.Backend)
	assert.Equal(t, "course_catalog", cfg.Index.Collection)
	assert.Zero(t, cfg.RequestTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("RAG_TOP_K", "6")
	t.Setenv("SEARCH_RATE_PER_SEC", "2.5")
	t.Setenv("REQUEST_TIMEOUT", "45s")
	t.Setenv("ENABLE_H2C", "true")
	t.Setenv("INDEX_BACKEND", "CHROMA")

	cfg := Load()

	assert.Equal(t, LLMProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, 6, cfg.RAG.TopK)
	assert.Equal(t, 2.5, cfg.Search.RatePerSec)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.H2C)
	assert.Equal(t, IndexBackendChroma, cfg.Index.Backend)
}

func TestGetSecret_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tavily")
	require.NoError(t, os.WriteFile(path, []byte("tvly-secret\n"), 0o600))
	_ = os.Unsetenv("TAVILY_API_KEY")
	t.Setenv("TAVILY_API_KEY_FILE", path)

	assert.Equal(t, "tvly-secret", getSecret("TAVILY_API_KEY", "TAVILY_API_KEY_FILE", ""))
}

func TestGetEnvFloat64(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float64
		expected float64
	}{
		{name: "valid value", envValue: "0.7", fallback: 0.1, expected: 0.7},
		{name: "invalid value uses fallback", envValue: "not-a-number", fallback: 0.1, expected: 0.1},
		{name: "empty uses fallback", envValue: "", fallback: 0.1, expected: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			} else {
				_ = os.Unsetenv("TEST_FLOAT")
			}
			assert.Equal(t, tt.expected, getEnvFloat64("TEST_FLOAT", tt.fallback))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLM:    LLMConfig{Provider: LLMProviderGemini, GoogleAPIKey: "g"},
			Search: SearchConfig{APIKey: "t"},
			Index:  IndexConfig{Backend: IndexBackendPgvector},
			RAG:    RAGConfig{TopK: 4},
		}
	}

	assert.NoError(t, valid().Validate())

	missingKeys := valid()
	missingKeys.LLM.GoogleAPIKey = ""
	missingKeys.Search.APIKey = ""
	err := missingKeys.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")

	ollama := valid()
	ollama.LLM = LLMConfig{Provider: LLMProviderOllama, OllamaURL: "http://localhost:11434"}
	assert.NoError(t, ollama.Validate(), "ollama needs no google key")

	badBackend := valid()
	badBackend.Index.Backend = "milvus"
	assert.Error(t, badBackend.Validate())
}
