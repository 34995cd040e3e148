package usecase

import (
	"context"

	"course-advisor/internal/domain"
)

// ProviderResult is what an answer provider hands back to the dispatcher.
// Providers never return Go errors; Err records the cause of an absorbed failure.
type ProviderResult struct {
	Answer     string
	SourceTool domain.SourceTool
	Contexts   []string
	Err        error
}

// AnswerProvider answers a query from one kind of source.
type AnswerProvider interface {
	Answer(ctx context.Context, query string) ProviderResult
	SourceTool() domain.SourceTool
}
