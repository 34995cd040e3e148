package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"course-advisor/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	defaultEmbedBatchSize   = 32
	defaultEmbedConcurrency = 4
)

// IndexDocumentsInput lists the loaded documents to ingest.
type IndexDocumentsInput struct {
	Documents []domain.SourceDocument
	// Force clears the whole index before ingesting.
	Force bool
}

// IndexDocumentsOutput summarizes an ingestion run.
type IndexDocumentsOutput struct {
	Sources   int
	Documents int
	Chunks    int
}

// IndexDocumentsUsecase builds and maintains the document index.
type IndexDocumentsUsecase interface {
	// Execute chunks, embeds and writes documents, replacing each source it sees.
	// Re-running on the same input is idempotent.
	Execute(ctx context.Context, input IndexDocumentsInput) (*IndexDocumentsOutput, error)
	// Reindex replaces every chunk of sourceName with the chunks of docs.
	// An empty docs slice only removes the source.
	Reindex(ctx context.Context, sourceName string, docs []domain.SourceDocument) (*IndexDocumentsOutput, error)
}

type indexDocumentsUsecase struct {
	writer      domain.IndexWriter
	chunker     domain.Chunker
	encoder     domain.VectorEncoder
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewIndexDocumentsUsecase creates the ingestion usecase.
func NewIndexDocumentsUsecase(
	writer domain.IndexWriter,
	chunker domain.Chunker,
	encoder domain.VectorEncoder,
	batchSize, concurrency int,
	logger *slog.Logger,
) IndexDocumentsUsecase {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	if concurrency <= 0 {
		concurrency = defaultEmbedConcurrency
	}
	return &indexDocumentsUsecase{
		writer:      writer,
		chunker:     chunker,
		encoder:     encoder,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Execute embeds every document before writing, then replaces each source
// so edited files leave no stale chunks behind.
func (u *indexDocumentsUsecase) Execute(ctx context.Context, input IndexDocumentsInput) (*IndexDocumentsOutput, error) {
	batch, err := u.prepare(ctx, input.Documents)
	if err != nil {
		return nil, err
	}
	if input.Force {
		if err := u.writer.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset index: %w", err)
		}
		u.logger.InfoContext(ctx, "index_reset")
	}
	return u.store(ctx, batch, len(input.Documents))
}

// Reindex leaves the indexed source untouched when chunking or embedding fails.
func (u *indexDocumentsUsecase) Reindex(ctx context.Context, sourceName string, docs []domain.SourceDocument) (*IndexDocumentsOutput, error) {
	batch, err := u.prepare(ctx, docs)
	if err != nil {
		return nil, err
	}
	batch.include(sourceName)
	return u.store(ctx, batch, len(docs))
}

// sourceBatch holds embedded chunks grouped by source, in first-seen order.
type sourceBatch struct {
	order  []string
	chunks map[string][]domain.IndexedChunk
}

func (b *sourceBatch) include(sourceName string) {
	if _, ok := b.chunks[sourceName]; !ok {
		b.order = append(b.order, sourceName)
		b.chunks[sourceName] = nil
	}
}

func (u *indexDocumentsUsecase) prepare(ctx context.Context, docs []domain.SourceDocument) (*sourceBatch, error) {
	batch := &sourceBatch{chunks: make(map[string][]domain.IndexedChunk)}

	// Ordinals run across all pages of a source so that chunk IDs stay unique per file.
	for _, doc := range docs {
		chunks, err := u.chunker.Chunk(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.SourceName, err)
		}
		batch.include(doc.SourceName)
		for _, c := range chunks {
			ordinal := len(batch.chunks[doc.SourceName])
			batch.chunks[doc.SourceName] = append(batch.chunks[doc.SourceName], domain.IndexedChunk{
				ID:         domain.ChunkID(doc.SourceName, ordinal, c.Hash),
				SourceName: doc.SourceName,
				Department: doc.Department,
				Ordinal:    ordinal,
				Content:    c.Content,
			})
		}
	}

	var pending []domain.IndexedChunk
	for _, name := range batch.order {
		pending = append(pending, batch.chunks[name]...)
	}
	if len(pending) == 0 {
		return batch, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for start := 0; start < len(pending); start += u.batchSize {
		end := min(start+u.batchSize, len(pending))
		part := pending[start:end]
		g.Go(func() error {
			return u.embed(gctx, part)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	offset := 0
	for _, name := range batch.order {
		n := len(batch.chunks[name])
		batch.chunks[name] = pending[offset : offset+n]
		offset += n
	}
	return batch, nil
}

func (u *indexDocumentsUsecase) store(ctx context.Context, batch *sourceBatch, documents int) (*IndexDocumentsOutput, error) {
	out := &IndexDocumentsOutput{Sources: len(batch.order), Documents: documents}
	for _, name := range batch.order {
		chunks := batch.chunks[name]
		if err := u.writer.ReplaceSource(ctx, name, chunks); err != nil {
			return nil, fmt.Errorf("failed to replace source %s: %w", name, err)
		}
		out.Chunks += len(chunks)
	}

	u.logger.InfoContext(ctx, "documents_indexed",
		slog.Int("sources", out.Sources),
		slog.Int("documents", out.Documents),
		slog.Int("chunks", out.Chunks),
		slog.String("chunker_version", string(u.chunker.Version())),
		slog.String("embedder_version", u.encoder.Version()))
	return out, nil
}

func (u *indexDocumentsUsecase) embed(ctx context.Context, batch []domain.IndexedChunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}
	embeddings, err := u.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embeddings count mismatch: got %d, want %d", len(embeddings), len(batch))
	}
	for i := range batch {
		batch[i].Embedding = embeddings[i]
	}
	return nil
}
