package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"course-advisor/internal/domain"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models used by the generator.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator sends chat messages to the Gemini API.
type Generator struct {
	models      contentGenerator
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewClient creates a Gemini API client for the given key.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGenerator wraps client.Models for the given model name.
func NewGenerator(client *genai.Client, model string, temperature float64, logger *slog.Logger) *Generator {
	return newGenerator(client.Models, model, temperature, logger)
}

func newGenerator(models contentGenerator, model string, temperature float64, logger *slog.Logger) *Generator {
	return &Generator{
		models:      models,
		model:       model,
		temperature: float32(temperature),
		logger:      logger,
	}
}

// Chat folds system messages into the system instruction and sends the rest as user turns.
func (g *Generator) Chat(ctx context.Context, messages []domain.Message, maxTokens int) (*domain.LLMResponse, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini chat requires at least one user message")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.ErrorContext(ctx, "gemini_generate_failed",
			slog.String("model", g.model),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	g.logger.DebugContext(ctx, "gemini_generate_completed",
		slog.String("model", g.model),
		slog.Duration("elapsed", time.Since(start)))

	return &domain.LLMResponse{
		Text: strings.TrimSpace(resp.Text()),
		Done: resp.Candidates[0].FinishReason == genai.FinishReasonStop,
	}, nil
}

// Version returns the wrapped model name.
func (g *Generator) Version() string {
	return g.model
}

var _ domain.LLMClient = (*Generator)(nil)
