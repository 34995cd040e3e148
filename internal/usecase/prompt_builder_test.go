package usecase_test

import (
	"testing"

	"course-advisor/internal/domain"
	"course-advisor/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentContext(t *testing.T) {
	got := usecase.FormatDocumentContext([]domain.IndexHit{
		{Text: "  CS 101 - Intro  ", SourceName: "CS_Catalog.pdf", Category: "Computer Science"},
		{Text: "MATH 101", SourceName: "", Category: ""},
	})

	assert.Equal(t,
		"Document 1 (Computer Science - CS_Catalog.pdf):\nCS 101 - Intro\n\nDocument 2 (Unknown department - Unknown source):\nMATH 101",
		got)
	assert.Empty(t, usecase.FormatDocumentContext(nil))
}

func TestFormatWebResults(t *testing.T) {
	got := usecase.FormatWebResults([]domain.WebResult{
		{Title: "A", Content: "alpha", URL: "https://a.example"},
		{},
	})

	assert.Equal(t,
		"Result 1:\nTitle: A\nContent: alpha\nSource: https://a.example\n\nResult 2:\nTitle: No title\nContent: No content\nSource: No URL\n",
		got)
}

func TestAdvisorPromptBuilder(t *testing.T) {
	b := usecase.NewAdvisorPromptBuilder("Answer in English.")

	route := b.Route("What is CS 201 about?")
	require.Len(t, route, 2)
	assert.Contains(t, route[0].Content, `"document_related" or "general_knowledge"`)
	assert.Contains(t, route[0].Content, "Answer in English.")
	assert.Equal(t, "What is CS 201 about?", route[1].Content)

	doc := b.Document("q", []domain.IndexHit{{Text: "BIO 401", SourceName: "BIO.pdf", Category: "Biology"}})
	assert.Contains(t, doc[0].Content, "Context: Document 1 (Biology - BIO.pdf):\nBIO 401")

	web := b.Web("q", []domain.WebResult{{Title: "T"}})
	assert.Contains(t, web[0].Content, "Web Search Results: Result 1:\nTitle: T")
}
