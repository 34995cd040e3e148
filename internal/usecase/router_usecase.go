package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"course-advisor/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// Classification is the router's verdict. Category is always routable;
// Err is set when the generation call failed and the default was applied.
type Classification struct {
	Category domain.Category
	Err      error
}

// Router assigns one routable category to every query.
type Router interface {
	Classify(ctx context.Context, query string) Classification
}

// sharedClassifyTimeout bounds a coalesced classification call.
const sharedClassifyTimeout = 60 * time.Second

type llmRouter struct {
	llm       domain.LLMClient
	prompts   PromptBuilder
	maxTokens int
	cache     *lru.Cache[string, domain.Category]
	group     singleflight.Group
	logger    *slog.Logger
}

// NewRouter creates an LLM-backed router. cacheSize <= 0 disables memoization.
func NewRouter(llm domain.LLMClient, prompts PromptBuilder, cacheSize, maxTokens int, logger *slog.Logger) (Router, error) {
	r := &llmRouter{
		llm:       llm,
		prompts:   prompts,
		maxTokens: maxTokens,
		logger:    logger,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, domain.Category](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create router cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

type routerOutcome struct {
	category domain.Category
	valid    bool
}

func (r *llmRouter) Classify(ctx context.Context, query string) Classification {
	ctx, span := otel.Tracer("course-advisor/usecase").Start(ctx, "router.classify")
	defer span.End()

	key := cacheKey(query)
	if r.cache != nil {
		if category, ok := r.cache.Get(key); ok {
			span.SetAttributes(attribute.String("route", category.String()), attribute.Bool("cache_hit", true))
			return Classification{Category: category}
		}
	}

	// The shared call is detached from ctx; each caller only observes its own cancellation.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedClassifyTimeout)
		defer cancel()
		return r.classify(callCtx, query)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		r.logger.WarnContext(ctx, "router_failed",
			slog.String("error", err.Error()),
			slog.String("fallback_route", domain.DefaultCategory.String()))
		return Classification{Category: domain.DefaultCategory, Err: err}
	}

	outcome := v.(routerOutcome)
	span.SetAttributes(attribute.String("route", outcome.category.String()), attribute.Bool("shared", shared))
	if !outcome.valid {
		r.logger.InfoContext(ctx, "router_unrecognized_label",
			slog.String("fallback_route", domain.DefaultCategory.String()))
		return Classification{Category: domain.DefaultCategory}
	}
	if r.cache != nil {
		r.cache.Add(key, outcome.category)
	}
	r.logger.InfoContext(ctx, "router_classified", slog.String("route", outcome.category.String()))
	return Classification{Category: outcome.category}
}

func (r *llmRouter) classify(ctx context.Context, query string) (routerOutcome, error) {
	resp, err := r.llm.Chat(ctx, r.prompts.Route(query), r.maxTokens)
	if err != nil {
		return routerOutcome{}, err
	}
	if resp == nil {
		return routerOutcome{category: domain.DefaultCategory}, nil
	}
	category, ok := domain.ParseCategory(resp.Text)
	if !ok {
		return routerOutcome{category: domain.DefaultCategory}, nil
	}
	return routerOutcome{category: category, valid: true}, nil
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
