package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"course-advisor/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMaxSearchResults is the number of web results requested per query.
const DefaultMaxSearchResults = 5

const noWebResultsAnswer = "I couldn't find relevant information for your query. Please try rephrasing your question."

// WebAnswerProvider answers general questions from live web search results.
type WebAnswerProvider struct {
	searcher   domain.WebSearcher
	llm        domain.LLMClient
	prompts    PromptBuilder
	maxResults int
	maxTokens  int
	logger     *slog.Logger
}

// NewWebAnswerProvider wires the searcher and generator used for general answers.
func NewWebAnswerProvider(
	searcher domain.WebSearcher,
	llm domain.LLMClient,
	prompts PromptBuilder,
	maxResults, maxTokens int,
	logger *slog.Logger,
) *WebAnswerProvider {
	if maxResults <= 0 {
		maxResults = DefaultMaxSearchResults
	}
	return &WebAnswerProvider{
		searcher:   searcher,
		llm:        llm,
		prompts:    prompts,
		maxResults: maxResults,
		maxTokens:  maxTokens,
		logger:     logger,
	}
}

func (p *WebAnswerProvider) SourceTool() domain.SourceTool {
	return domain.SourceToolWebSearch
}

func (p *WebAnswerProvider) Answer(ctx context.Context, query string) ProviderResult {
	ctx, span := otel.Tracer("course-advisor/usecase").Start(ctx, "provider.answer")
	defer span.End()
	span.SetAttributes(attribute.String("source_tool", string(p.SourceTool())))

	results, err := p.searcher.Search(ctx, query, p.maxResults)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		p.logger.WarnContext(ctx, "provider_failed",
			slog.String("source_tool", string(p.SourceTool())),
			slog.String("stage", "search"),
			slog.String("error", err.Error()))
		return ProviderResult{
			Answer:     fmt.Sprintf("Sorry, I couldn't perform a web search: %v", err),
			SourceTool: p.SourceTool(),
			Contexts:   []string{},
			Err:        err,
		}
	}
	span.SetAttributes(attribute.Int("result_count", len(results)))

	if len(results) == 0 {
		p.logger.InfoContext(ctx, "web_search_empty")
		return ProviderResult{
			Answer:     noWebResultsAnswer,
			SourceTool: p.SourceTool(),
			Contexts:   []string{},
		}
	}

	resp, err := p.llm.Chat(ctx, p.prompts.Web(query, results), p.maxTokens)
	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = errEmptyGeneration
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		p.logger.WarnContext(ctx, "provider_failed",
			slog.String("source_tool", string(p.SourceTool())),
			slog.String("stage", "generate"),
			slog.String("error", err.Error()))
		return ProviderResult{
			Answer:     fmt.Sprintf("Sorry, I encountered an error during web search: %v", err),
			SourceTool: p.SourceTool(),
			Contexts:   []string{},
			Err:        err,
		}
	}

	contexts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Content != "" {
			contexts = append(contexts, r.Content)
		}
	}

	p.logger.InfoContext(ctx, "web_answer_generated",
		slog.Int("result_count", len(results)),
		slog.Int("answer_length", len(resp.Text)))

	return ProviderResult{
		Answer:     strings.TrimSpace(resp.Text),
		SourceTool: p.SourceTool(),
		Contexts:   contexts,
	}
}
