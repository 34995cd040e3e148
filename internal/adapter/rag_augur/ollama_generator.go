package rag_augur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"course-advisor/internal/domain"
	"course-advisor/internal/infra/httpclient"
)

const keepAliveSeconds = 600

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string                 `json:"model"`
	Messages  []chatMessage          `json:"messages"`
	Stream    bool                   `json:"stream"`
	KeepAlive int                    `json:"keep_alive"`
	Options   map[string]interface{} `json:"options,omitempty"`
	Think     interface{}            `json:"think,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// OllamaGenerator sends chat messages to Ollama's /api/chat endpoint.
type OllamaGenerator struct {
	BaseURL     string
	Model       string
	Temperature float64
	Client      *http.Client
	logger      *slog.Logger
}

// NewOllamaGenerator constructs a generator using the provided endpoint and model name.
func NewOllamaGenerator(baseURL, model string, timeoutSeconds int, temperature float64, logger *slog.Logger) *OllamaGenerator {
	timeout := 120 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &OllamaGenerator{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: temperature,
		Client:      httpclient.NewPooledClient(timeout),
		logger:      logger,
	}
}

func (g *OllamaGenerator) buildOptions(maxTokens int) map[string]interface{} {
	opts := map[string]interface{}{
		"temperature": g.Temperature,
	}
	if maxTokens > 0 {
		opts["num_predict"] = maxTokens
	}
	return opts
}

// getThinkParam disables reasoning traces on models that emit them by default.
func (g *OllamaGenerator) getThinkParam() interface{} {
	model := strings.ToLower(g.Model)
	if strings.HasPrefix(model, "qwen3") || strings.HasPrefix(model, "deepseek-r1") {
		return false
	}
	return nil
}

// Chat sends the messages to Ollama and returns the assistant message.
func (g *OllamaGenerator) Chat(ctx context.Context, messages []domain.Message, maxTokens int) (*domain.LLMResponse, error) {
	reqMessages := make([]chatMessage, len(messages))
	for i, m := range messages {
		reqMessages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	reqBody := chatRequest{
		Model:     g.Model,
		Messages:  reqMessages,
		Stream:    true,
		KeepAlive: keepAliveSeconds,
		Options:   g.buildOptions(maxTokens),
		Think:     g.getThinkParam(),
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	start := time.Now()
	url := fmt.Sprintf("%s/api/chat", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		g.logger.ErrorContext(ctx, "ollama_chat_failed",
			slog.String("model", g.Model),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call generation endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// The body is NDJSON when streaming; a single object is read the same way.
	var sb strings.Builder
	var done bool
	decoder := json.NewDecoder(resp.Body)
	for !done {
		var chunk chatResponse
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode generation response: %w", err)
		}
		sb.WriteString(chunk.Message.Content)
		done = chunk.Done
	}

	g.logger.DebugContext(ctx, "ollama_chat_completed",
		slog.String("model", g.Model),
		slog.Int("message_count", len(messages)),
		slog.Duration("elapsed", time.Since(start)))

	return &domain.LLMResponse{
		Text: strings.TrimSpace(sb.String()),
		Done: done,
	}, nil
}

// Version returns the wrapped model name.
func (g *OllamaGenerator) Version() string {
	return g.Model
}

var _ domain.LLMClient = (*OllamaGenerator)(nil)
