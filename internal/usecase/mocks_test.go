package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"course-advisor/internal/domain"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Chat(ctx context.Context, messages []domain.Message, maxTokens int) (*domain.LLMResponse, error) {
	args := m.Called(ctx, messages, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *mockLLMClient) Version() string {
	return "mock"
}

type mockDocumentIndex struct {
	mock.Mock
}

func (m *mockDocumentIndex) Similar(ctx context.Context, query string, k int) ([]domain.IndexHit, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexHit), args.Error(1)
}

func (m *mockDocumentIndex) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockWebSearcher struct {
	mock.Mock
}

func (m *mockWebSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WebResult), args.Error(1)
}

// recordingWriter is an in-memory IndexWriter keyed by chunk ID.
type recordingWriter struct {
	mu       sync.Mutex
	chunks   map[string]domain.IndexedChunk
	resets   int
	replaced []string
	upserted int
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{chunks: make(map[string]domain.IndexedChunk)}
}

func (w *recordingWriter) Upsert(_ context.Context, chunks []domain.IndexedChunk) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range chunks {
		w.chunks[c.ID.String()] = c
	}
	w.upserted += len(chunks)
	return nil
}

func (w *recordingWriter) DeleteSource(_ context.Context, sourceName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, c := range w.chunks {
		if c.SourceName == sourceName {
			delete(w.chunks, id)
		}
	}
	return nil
}

func (w *recordingWriter) ReplaceSource(_ context.Context, sourceName string, chunks []domain.IndexedChunk) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, c := range w.chunks {
		if c.SourceName == sourceName {
			delete(w.chunks, id)
		}
	}
	for _, c := range chunks {
		w.chunks[c.ID.String()] = c
	}
	w.replaced = append(w.replaced, sourceName)
	w.upserted += len(chunks)
	return nil
}

func (w *recordingWriter) contents(sourceName string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, c := range w.chunks {
		if c.SourceName == sourceName {
			out = append(out, c.Content)
		}
	}
	return out
}

func (w *recordingWriter) Reset(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunks = make(map[string]domain.IndexedChunk)
	w.resets++
	return nil
}

type fakeEncoder struct {
	err error
}

func (e *fakeEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *fakeEncoder) Version() string {
	return "fake-v1"
}
