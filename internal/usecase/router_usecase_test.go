package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"course-advisor/internal/domain"
	"course-advisor/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, llm domain.LLMClient, cacheSize int) usecase.Router {
	t.Helper()
	router, err := usecase.NewRouter(llm, usecase.NewAdvisorPromptBuilder(), cacheSize, 16, discardLogger())
	require.NoError(t, err)
	return router
}

func TestRouter_Classify(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected domain.Category
	}{
		{"document label", "document_related", domain.CategoryDocumentRelated},
		{"general label with noise", "  General_Knowledge\n", domain.CategoryGeneralKnowledge},
		{"unrecognized label defaults", "course_related", domain.CategoryDocumentRelated},
		{"empty output defaults", "", domain.CategoryDocumentRelated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(mockLLMClient)
			llm.On("Chat", mock.Anything, mock.Anything, 16).Return(&domain.LLMResponse{Text: tt.output, Done: true}, nil)

			got := newTestRouter(t, llm, 0).Classify(context.Background(), "What are the prerequisites for CS 301?")

			assert.Equal(t, tt.expected, got.Category)
			assert.NoError(t, got.Err)
			assert.True(t, got.Category.Valid())
		})
	}
}

func TestRouter_SendsRawQueryAsUserMessage(t *testing.T) {
	llm := new(mockLLMClient)
	llm.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []domain.Message) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == domain.RoleSystem &&
			msgs[1].Role == domain.RoleUser &&
			msgs[1].Content == "Best programming languages to learn?"
	}), 16).Return(&domain.LLMResponse{Text: "general_knowledge"}, nil)

	got := newTestRouter(t, llm, 0).Classify(context.Background(), "Best programming languages to learn?")

	assert.Equal(t, domain.CategoryGeneralKnowledge, got.Category)
	llm.AssertExpectations(t)
}

func TestRouter_FailureDefaultsWithError(t *testing.T) {
	llm := new(mockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	got := newTestRouter(t, llm, 8).Classify(context.Background(), "anything")

	assert.Equal(t, domain.DefaultCategory, got.Category)
	require.Error(t, got.Err)
	assert.Contains(t, got.Err.Error(), "quota exceeded")
}

func TestRouter_CachesOnlyValidClassifications(t *testing.T) {
	t.Run("valid label is memoized", func(t *testing.T) {
		llm := new(mockLLMClient)
		llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(&domain.LLMResponse{Text: "general_knowledge"}, nil).Once()

		router := newTestRouter(t, llm, 8)
		first := router.Classify(context.Background(), "How to prepare for technical interviews?")
		second := router.Classify(context.Background(), "  how to prepare for TECHNICAL interviews?  ")

		assert.Equal(t, domain.CategoryGeneralKnowledge, first.Category)
		assert.Equal(t, first, second)
		llm.AssertNumberOfCalls(t, "Chat", 1)
	})

	t.Run("failures are retried on the next call", func(t *testing.T) {
		llm := new(mockLLMClient)
		llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
		llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(&domain.LLMResponse{Text: "general_knowledge"}, nil).Once()

		router := newTestRouter(t, llm, 8)
		first := router.Classify(context.Background(), "job market")
		second := router.Classify(context.Background(), "job market")

		assert.Error(t, first.Err)
		assert.Equal(t, domain.CategoryGeneralKnowledge, second.Category)
		llm.AssertNumberOfCalls(t, "Chat", 2)
	})

	t.Run("unrecognized labels are not memoized", func(t *testing.T) {
		llm := new(mockLLMClient)
		llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(&domain.LLMResponse{Text: "maybe"}, nil)

		router := newTestRouter(t, llm, 8)
		router.Classify(context.Background(), "q")
		router.Classify(context.Background(), "q")

		llm.AssertNumberOfCalls(t, "Chat", 2)
	})
}

// blockingLLM holds every Chat call until release is closed or the call's ctx ends.
type blockingLLM struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingLLM() *blockingLLM {
	return &blockingLLM{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingLLM) Chat(ctx context.Context, _ []domain.Message, _ int) (*domain.LLMResponse, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return &domain.LLMResponse{Text: "general_knowledge", Done: true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingLLM) Version() string {
	return "blocking"
}

func TestRouter_SharedCallSurvivesCancelledCaller(t *testing.T) {
	llm := newBlockingLLM()
	router := newTestRouter(t, llm, 8)
	query := "Best programming languages to learn?"

	ctxA, cancelA := context.WithCancel(context.Background())
	resultA := make(chan usecase.Classification, 1)
	go func() { resultA <- router.Classify(ctxA, query) }()
	<-llm.started

	resultB := make(chan usecase.Classification, 1)
	go func() { resultB <- router.Classify(context.Background(), query) }()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	a := <-resultA
	assert.Equal(t, domain.DefaultCategory, a.Category)
	assert.ErrorIs(t, a.Err, context.Canceled)

	close(llm.release)
	select {
	case b := <-resultB:
		assert.Equal(t, domain.CategoryGeneralKnowledge, b.Category)
		assert.NoError(t, b.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestRouter_CallerCancellationReturnsPromptly(t *testing.T) {
	llm := newBlockingLLM()
	defer close(llm.release)
	router := newTestRouter(t, llm, 8)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got := router.Classify(ctx, "job market")

	assert.Equal(t, domain.DefaultCategory, got.Category)
	assert.ErrorIs(t, got.Err, context.DeadlineExceeded)
}
