package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"course-advisor/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrEmptyQuery is returned when the query is empty or whitespace-only.
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrNoProvider is reported when a category has no registered provider.
	ErrNoProvider = errors.New("no answer provider registered for category")
)

// Dispatcher routes each query to exactly one answer provider.
// It is stateless and safe for concurrent use.
type Dispatcher struct {
	router    Router
	providers map[domain.Category]AnswerProvider
	timeout   time.Duration
	observer  QueryObserver
	logger    *slog.Logger
}

// NewDispatcher creates the agent. A zero timeout leaves the caller's deadline untouched.
func NewDispatcher(
	router Router,
	providers map[domain.Category]AnswerProvider,
	timeout time.Duration,
	observer QueryObserver,
	logger *slog.Logger,
) *Dispatcher {
	if observer == nil {
		observer = noopObserver{}
	}
	registered := make(map[domain.Category]AnswerProvider, len(providers))
	for category, provider := range providers {
		if provider != nil {
			registered[category] = provider
		}
	}
	return &Dispatcher{
		router:    router,
		providers: registered,
		timeout:   timeout,
		observer:  observer,
		logger:    logger,
	}
}

// Tools lists the source tags of the registered providers.
func (d *Dispatcher) Tools() []domain.SourceTool {
	tools := make([]domain.SourceTool, 0, len(d.providers))
	for _, p := range d.providers {
		tools = append(tools, p.SourceTool())
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i] < tools[j] })
	return tools
}

// Query classifies text and answers it with the matching provider.
// Every stage failure is absorbed into the result; only ErrEmptyQuery is returned.
func (d *Dispatcher) Query(ctx context.Context, text string) (result *domain.AnswerResult, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("course-advisor/usecase").Start(ctx, "dispatcher.query")
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = d.unexpected(ctx, fmt.Errorf("%v", r))
		}
		if result.SourceTool == domain.SourceToolError {
			span.SetStatus(codes.Error, result.Error)
		}
		span.SetAttributes(
			attribute.String("route", result.Route.String()),
			attribute.String("source_tool", string(result.SourceTool)))
		d.observer.StageCompleted(StageAgent, time.Since(start))
		d.observer.QueryAnswered(result.Route, result.SourceTool)
	}()

	// routing
	routeStart := time.Now()
	classification := d.router.Classify(ctx, text)
	d.observer.StageCompleted(StageRouter, time.Since(routeStart))

	var markers []string
	if classification.Err != nil {
		d.observer.FailureAbsorbed(StageRouter)
		markers = append(markers, "router error: "+classification.Err.Error())
	}

	// answering
	provider, ok := d.providers[classification.Category]
	if !ok {
		return d.unexpected(ctx, fmt.Errorf("%w: %s", ErrNoProvider, classification.Category)), nil
	}

	answerStart := time.Now()
	answer := provider.Answer(ctx, text)
	d.observer.StageCompleted(StageProvider, time.Since(answerStart))
	if answer.Err != nil {
		d.observer.FailureAbsorbed(StageProvider)
		markers = append(markers, answer.Err.Error())
	}

	// done
	contexts := answer.Contexts
	if contexts == nil {
		contexts = []string{}
	}
	result = &domain.AnswerResult{
		Answer:     answer.Answer,
		SourceTool: answer.SourceTool,
		Contexts:   contexts,
		Route:      classification.Category,
		Error:      strings.Join(markers, "; "),
	}

	d.logger.InfoContext(ctx, "query_answered",
		slog.String("route", result.Route.String()),
		slog.String("source_tool", string(result.SourceTool)),
		slog.Int("context_count", len(result.Contexts)),
		slog.Bool("degraded", result.Failed()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return result, nil
}

func (d *Dispatcher) unexpected(ctx context.Context, err error) *domain.AnswerResult {
	d.observer.FailureAbsorbed(StageAgent)
	d.logger.ErrorContext(ctx, "query_unexpected_error", slog.String("error", err.Error()))
	return &domain.AnswerResult{
		Answer:     fmt.Sprintf("Sorry, I encountered an unexpected error: %v", err),
		SourceTool: domain.SourceToolError,
		Contexts:   []string{},
		Route:      domain.CategoryUnknown,
		Error:      err.Error(),
	}
}
