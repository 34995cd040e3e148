package di

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"course-advisor/internal/infra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewLLMClient_Ollama(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{
		Provider:       config.LLMProviderOllama,
		Model:          "llama3.1",
		OllamaURL:      "http://localhost:11434",
		TimeoutSeconds: 5,
	}}

	llm, err := NewLLMClient(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", llm.Version())
}

func TestNewLLMClient_Unsupported(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "openai"}}

	_, err := NewLLMClient(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}

func TestNewIndexComponents_UnsupportedBackend(t *testing.T) {
	cfg := &config.Config{Index: config.IndexConfig{Backend: "faiss"}}

	_, err := NewIndexComponents(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "unsupported index backend")
}

func TestNewApplicationComponents_RejectsInvalidConfig(t *testing.T) {
	cfg := &config.Config{
		LLM:   config.LLMConfig{Provider: config.LLMProviderGemini},
		Index: config.IndexConfig{Backend: config.IndexBackendPgvector},
		RAG:   config.RAGConfig{TopK: 4},
	}

	_, err := NewApplicationComponents(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")
}
