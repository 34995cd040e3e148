package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// ChunkerVersion defines the version of the chunking algorithm.
type ChunkerVersion string

const (
	// ChunkerVersionRecursiveV1 splits on paragraph, line, word, then character boundaries.
	ChunkerVersionRecursiveV1 ChunkerVersion = "recursive-v1"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared by neighboring chunks.
	DefaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunk represents a single piece of a document.
type Chunk struct {
	Ordinal int    // Sequence number (0-indexed)
	Content string // The actual text content
	Hash    string // Stable hash of the content (SHA-256)
}

// Chunker defines the interface for splitting text into chunks.
type Chunker interface {
	Chunk(body string) ([]Chunk, error)
	Version() ChunkerVersion
}

type recursiveChunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates the recursive character chunker. Non-positive sizes fall back to the defaults.
func NewChunker(chunkSize, chunkOverlap int) Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &recursiveChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		),
	}
}

func (c *recursiveChunker) Version() ChunkerVersion {
	return ChunkerVersionRecursiveV1
}

// Chunk normalizes line endings, splits the body and drops blank pieces.
func (c *recursiveChunker) Chunk(body string) ([]Chunk, error) {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	if strings.TrimSpace(normalized) == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		content := strings.TrimSpace(part)
		if content == "" {
			continue
		}
		hashBytes := sha256.Sum256([]byte(content))
		chunks = append(chunks, Chunk{
			Ordinal: len(chunks),
			Content: content,
			Hash:    hex.EncodeToString(hashBytes[:]),
		})
	}
	return chunks, nil
}
