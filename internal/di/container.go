package di

import (
	"context"
	"fmt"
	"log/slog"

	"course-advisor/internal/adapter/chroma"
	"course-advisor/internal/adapter/gemini"
	"course-advisor/internal/adapter/loader"
	"course-advisor/internal/adapter/rag_augur"
	"course-advisor/internal/adapter/repository"
	"course-advisor/internal/adapter/tavily"
	"course-advisor/internal/domain"
	"course-advisor/internal/infra"
	"course-advisor/internal/infra/config"
	"course-advisor/internal/infra/metrics"
	"course-advisor/internal/usecase"
)

// IndexBackend is a document index that can also be written by ingestion.
type IndexBackend interface {
	domain.DocumentIndex
	domain.IndexWriter
}

// IndexComponents holds the configured index and the encoder it was built with.
type IndexComponents struct {
	Index   IndexBackend
	Encoder domain.VectorEncoder
	Close   func()
}

// ApplicationComponents holds everything the HTTP server needs.
type ApplicationComponents struct {
	Index      domain.DocumentIndex
	Dispatcher *usecase.Dispatcher
	Close      func()
}

// IngestComponents holds everything the ingestion CLI needs.
type IngestComponents struct {
	Index        IndexBackend
	Encoder      domain.VectorEncoder
	Chunker      domain.Chunker
	IndexUsecase usecase.IndexDocumentsUsecase
	Loader       *loader.Loader
	Close        func()
}

// NewIndexComponents connects the configured vector index.
func NewIndexComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*IndexComponents, error) {
	encoder := rag_augur.NewOllamaEmbedder(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.TimeoutSeconds, log)

	switch cfg.Index.Backend {
	case config.IndexBackendChroma:
		client, err := chroma.NewClient(cfg.Index.ChromaURL)
		if err != nil {
			return nil, err
		}
		index, err := chroma.NewIndex(ctx, client, cfg.Index.Collection, encoder, log)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		log.Info("index_connected", slog.String("backend", cfg.Index.Backend), slog.String("collection", cfg.Index.Collection))
		return &IndexComponents{Index: index, Encoder: encoder, Close: func() { _ = client.Close() }}, nil

	case config.IndexBackendPgvector:
		pool, err := infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{MaxConns: cfg.DB.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		index := repository.NewPgvectorIndex(pool, encoder, cfg.Index.Collection, log)
		if err := index.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("index_connected", slog.String("backend", cfg.Index.Backend), slog.String("table", cfg.Index.Collection))
		return &IndexComponents{Index: index, Encoder: encoder, Close: pool.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported index backend %q", cfg.Index.Backend)
	}
}

// NewLLMClient builds the generation backend shared by the router and both providers.
func NewLLMClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.LLMClient, error) {
	switch cfg.LLM.Provider {
	case config.LLMProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.LLM.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		return gemini.NewGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature, log), nil
	case config.LLMProviderOllama:
		return rag_augur.NewOllamaGenerator(cfg.LLM.OllamaURL, cfg.LLM.Model, cfg.LLM.TimeoutSeconds, cfg.LLM.Temperature, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLM.Provider)
	}
}

// NewApplicationComponents wires config into a ready Dispatcher.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	llm, err := NewLLMClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	indexComponents, err := NewIndexComponents(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	searcher := tavily.NewClient(tavily.Config{
		BaseURL:    cfg.Search.BaseURL,
		APIKey:     cfg.Search.APIKey,
		Depth:      cfg.Search.Depth,
		Timeout:    cfg.Search.Timeout,
		RatePerSec: cfg.Search.RatePerSec,
		RetryCount: cfg.Search.RetryCount,
	}, log)

	prompts := usecase.NewAdvisorPromptBuilder()

	router, err := usecase.NewRouter(llm, prompts, cfg.Router.CacheSize, cfg.LLM.RouterTokens, log)
	if err != nil {
		indexComponents.Close()
		return nil, err
	}

	documents := usecase.NewDocumentAnswerProvider(indexComponents.Index, llm, prompts, cfg.RAG.TopK, cfg.LLM.MaxTokens, log)
	web := usecase.NewWebAnswerProvider(searcher, llm, prompts, cfg.Search.MaxResults, cfg.LLM.MaxTokens, log)

	dispatcher := usecase.NewDispatcher(
		router,
		map[domain.Category]usecase.AnswerProvider{
			domain.CategoryDocumentRelated:  documents,
			domain.CategoryGeneralKnowledge: web,
		},
		cfg.RequestTimeout,
		metrics.NewRecorder(),
		log,
	)

	log.Info("agent_initialized",
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("llm_model", llm.Version()),
		slog.String("index_backend", cfg.Index.Backend),
		slog.Int("top_k", cfg.RAG.TopK),
		slog.Int("router_cache_size", cfg.Router.CacheSize))

	return &ApplicationComponents{
		Index:      indexComponents.Index,
		Dispatcher: dispatcher,
		Close:      indexComponents.Close,
	}, nil
}

// NewIngestComponents wires the loader, chunker and index for ingestion.
// Generation and web search credentials are not required here.
func NewIngestComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*IngestComponents, error) {
	indexComponents, err := NewIndexComponents(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	chunker := domain.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	indexUsecase := usecase.NewIndexDocumentsUsecase(
		indexComponents.Index,
		chunker,
		indexComponents.Encoder,
		cfg.Ingest.BatchSize,
		cfg.Ingest.Concurrency,
		log,
	)

	return &IngestComponents{
		Index:        indexComponents.Index,
		Encoder:      indexComponents.Encoder,
		Chunker:      chunker,
		IndexUsecase: indexUsecase,
		Loader:       loader.New(cfg.Ingest.PDFLicenseKey, log),
		Close:        indexComponents.Close,
	}, nil
}
