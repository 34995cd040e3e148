package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"course-advisor/internal/domain"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// Index keeps course chunks in a Chroma collection. Embeddings are computed
// locally by the encoder and passed to Chroma explicitly.
type Index struct {
	client  chromago.Client
	name    string
	encoder domain.VectorEncoder
	logger  *slog.Logger

	mu         sync.RWMutex
	collection chromago.Collection
}

// NewClient creates a Chroma v2 HTTP client for baseURL.
func NewClient(baseURL string) (chromago.Client, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	return client, nil
}

// NewIndex gets or creates the named collection.
func NewIndex(ctx context.Context, client chromago.Client, name string, encoder domain.VectorEncoder, logger *slog.Logger) (*Index, error) {
	idx := &Index{client: client, name: name, encoder: encoder, logger: logger}
	collection, err := idx.getOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	idx.collection = collection
	return idx, nil
}

func (i *Index) getOrCreate(ctx context.Context) (chromago.Collection, error) {
	collection, err := i.client.GetOrCreateCollection(ctx, i.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "University course catalog chunks"),
				chromago.NewStringAttribute("created_by", "course-advisor"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", i.name, err)
	}
	return collection, nil
}

func (i *Index) current() chromago.Collection {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.collection
}

func (i *Index) Similar(ctx context.Context, query string, k int) ([]domain.IndexHit, error) {
	vectors, err := i.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedder returned no vector for query")
	}

	results, err := i.current().Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vectors[0])),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return []domain.IndexHit{}, nil
	}

	hits := make([]domain.IndexHit, 0, len(documentGroups[0]))
	for n, doc := range documentGroups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}
		var meta map[string]interface{}
		if len(metadataGroups) > 0 && n < len(metadataGroups[0]) {
			meta = metadataMap(metadataGroups[0][n])
		}
		hits = append(hits, domain.IndexHit{
			Text:       text,
			SourceName: stringValue(meta, domain.MetadataSourceFile),
			Category:   stringValue(meta, domain.MetadataDepartment),
		})
	}
	return hits, nil
}

// metadataMap converts Chroma metadata through its JSON form; the metadata
// type exposes no accessor for the full attribute set.
func metadataMap(metadata interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func stringValue(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func (i *Index) Count(ctx context.Context) (int, error) {
	n, err := i.current().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chroma collection: %w", err)
	}
	return n, nil
}

func (i *Index) Upsert(ctx context.Context, chunks []domain.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(chunks))
	texts := make([]string, len(chunks))
	vectors := make([]embeddings.Embedding, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, len(chunks))
	for n, c := range chunks {
		ids[n] = chromago.DocumentID(c.ID.String())
		texts[n] = c.Content
		vectors[n] = embeddings.NewEmbeddingFromFloat32(c.Embedding)
		metadatas[n] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute(domain.MetadataSourceFile, c.SourceName),
			chromago.NewStringAttribute(domain.MetadataDepartment, c.Department),
			chromago.NewIntAttribute("chunk_num", int64(c.Ordinal)),
		)
	}

	err := i.current().Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert into chroma: %w", err)
	}
	return nil
}

func (i *Index) DeleteSource(ctx context.Context, sourceName string) error {
	where := chromago.EqString(domain.MetadataSourceFile, sourceName)
	if err := i.current().Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete source from chroma: %w", err)
	}
	i.logger.InfoContext(ctx, "index_source_deleted", slog.String("source_file", sourceName))
	return nil
}

// ReplaceSource deletes the source, then upserts chunks. Chroma has no
// transactions, so a failed upsert leaves the source empty.
func (i *Index) ReplaceSource(ctx context.Context, sourceName string, chunks []domain.IndexedChunk) error {
	if err := i.DeleteSource(ctx, sourceName); err != nil {
		return err
	}
	return i.Upsert(ctx, chunks)
}

// Reset drops and recreates the collection.
func (i *Index) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.client.DeleteCollection(ctx, i.name); err != nil {
		return fmt.Errorf("failed to delete chroma collection: %w", err)
	}
	collection, err := i.getOrCreate(ctx)
	if err != nil {
		return err
	}
	i.collection = collection
	return nil
}

var (
	_ domain.DocumentIndex = (*Index)(nil)
	_ domain.IndexWriter   = (*Index)(nil)
)
