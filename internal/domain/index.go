package domain

import (
	"context"
	"strconv"

	"github.com/google/uuid"
)

// Metadata keys stored alongside every indexed chunk.
const (
	MetadataSourceFile = "source_file"
	MetadataDepartment = "department"
)

// IndexHit is one nearest-neighbor match: the literal chunk text plus the two
// metadata fields used when formatting context for the LLM.
type IndexHit struct {
	Text       string
	SourceName string
	Category   string
}

// IndexedChunk is a persistable chunk with its embedding.
type IndexedChunk struct {
	ID         uuid.UUID
	SourceName string
	Department string
	Ordinal    int
	Content    string
	Embedding  []float32
}

// DocumentIndex is the similarity-searchable corpus index.
type DocumentIndex interface {
	// Similar returns up to k hits ranked by similarity to query.
	Similar(ctx context.Context, query string, k int) ([]IndexHit, error)

	// Count returns the number of chunks stored in the index.
	Count(ctx context.Context) (int, error)
}

// IndexWriter persists chunks into the index. Used by ingestion only.
type IndexWriter interface {
	// Upsert inserts chunks, replacing rows that share an ID.
	Upsert(ctx context.Context, chunks []IndexedChunk) error

	// DeleteSource removes every chunk that originated from sourceName.
	DeleteSource(ctx context.Context, sourceName string) error

	// ReplaceSource swaps every chunk of sourceName for chunks. An empty
	// chunks slice only removes the source.
	ReplaceSource(ctx context.Context, sourceName string, chunks []IndexedChunk) error

	// Reset removes every chunk from the index.
	Reset(ctx context.Context) error
}

// ChunkID derives a stable chunk ID so that re-ingesting the same content is idempotent.
func ChunkID(sourceName string, ordinal int, contentHash string) uuid.UUID {
	name := sourceName + "\x00" + strconv.Itoa(ordinal) + "\x00" + contentHash
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
}
