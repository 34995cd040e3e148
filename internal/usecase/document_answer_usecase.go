package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"course-advisor/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultTopK is the number of index hits used to ground a document answer.
const DefaultTopK = 4

var errEmptyGeneration = errors.New("empty llm response")

// DocumentAnswerProvider answers from the indexed course catalog.
type DocumentAnswerProvider struct {
	index     domain.DocumentIndex
	llm       domain.LLMClient
	prompts   PromptBuilder
	topK      int
	maxTokens int
	logger    *slog.Logger
}

// NewDocumentAnswerProvider wires the index and generator used for catalog answers.
func NewDocumentAnswerProvider(
	index domain.DocumentIndex,
	llm domain.LLMClient,
	prompts PromptBuilder,
	topK, maxTokens int,
	logger *slog.Logger,
) *DocumentAnswerProvider {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &DocumentAnswerProvider{
		index:     index,
		llm:       llm,
		prompts:   prompts,
		topK:      topK,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (p *DocumentAnswerProvider) SourceTool() domain.SourceTool {
	return domain.SourceToolDocumentRetriever
}

func (p *DocumentAnswerProvider) Answer(ctx context.Context, query string) ProviderResult {
	ctx, span := otel.Tracer("course-advisor/usecase").Start(ctx, "provider.answer")
	defer span.End()
	span.SetAttributes(attribute.String("source_tool", string(p.SourceTool())), attribute.Int("top_k", p.topK))

	hits, err := p.index.Similar(ctx, query, p.topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return p.prepareFallback(ctx, fmt.Errorf("retrieval failed: %w", err))
	}
	span.SetAttributes(attribute.Int("hit_count", len(hits)))

	resp, err := p.llm.Chat(ctx, p.prompts.Document(query, hits), p.maxTokens)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return p.prepareFallback(ctx, fmt.Errorf("generation failed: %w", err))
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return p.prepareFallback(ctx, errEmptyGeneration)
	}

	contexts := make([]string, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, hit.Text)
	}

	p.logger.InfoContext(ctx, "document_answer_generated",
		slog.Int("hit_count", len(hits)),
		slog.Int("answer_length", len(resp.Text)))

	return ProviderResult{
		Answer:     strings.TrimSpace(resp.Text),
		SourceTool: p.SourceTool(),
		Contexts:   contexts,
	}
}

func (p *DocumentAnswerProvider) prepareFallback(ctx context.Context, err error) ProviderResult {
	p.logger.WarnContext(ctx, "provider_failed",
		slog.String("source_tool", string(p.SourceTool())),
		slog.String("error", err.Error()))
	return ProviderResult{
		Answer:     fmt.Sprintf("Sorry, I encountered an error while searching the course catalog: %v", err),
		SourceTool: p.SourceTool(),
		Contexts:   []string{},
		Err:        err,
	}
}
