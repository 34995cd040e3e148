package usecase

import (
	"fmt"
	"strings"

	"course-advisor/internal/domain"
)

const routerInstruction = `You are a query router for an AI university course advisor.
Your job is to classify user queries into one of two categories:

1. "document_related" - Questions about specific courses, prerequisites, course content,
   schedules, academic programs, degree requirements, or anything related to the
   university's course catalog.

2. "general_knowledge" - Questions about career advice, job market trends, general
   educational topics, study tips, or any topic not specifically about the university's courses.

Examples:
- "What are the prerequisites for CS 301?" -> document_related
- "Tell me about the machine learning course" -> document_related
- "Which courses cover Python programming?" -> document_related
- "What is the job market like for data scientists?" -> general_knowledge
- "How to prepare for technical interviews?" -> general_knowledge
- "Best programming languages to learn?" -> general_knowledge

Respond with only: "document_related" or "general_knowledge"`

const documentInstruction = `You are an AI assistant helping students with university course information.
Use the following pieces of retrieved context to answer the question about courses, prerequisites,
schedules, or academic programs. Be specific and accurate.

If the question cannot be answered based on the context provided, say so clearly.
Always cite which course or document you're referencing when possible.

Context: %s`

const webInstruction = `You are an AI assistant helping students with general knowledge questions
related to education, careers, and academic topics. Use the following web search results
to provide a comprehensive and helpful answer.

Be informative, accurate, and cite the sources when appropriate.
If the search results don't contain relevant information, say so clearly.

Web Search Results: %s`

// PromptBuilder builds the chat messages sent to the LLM for each stage.
type PromptBuilder interface {
	Route(query string) []domain.Message
	Document(query string, hits []domain.IndexHit) []domain.Message
	Web(query string, results []domain.WebResult) []domain.Message
}

// AdvisorPromptBuilder renders the course advisor prompts.
type AdvisorPromptBuilder struct {
	additionalInstructions []string
}

// NewAdvisorPromptBuilder creates a prompt builder; extra lines are appended to every system message.
func NewAdvisorPromptBuilder(additionalInstructions ...string) PromptBuilder {
	return &AdvisorPromptBuilder{additionalInstructions: additionalInstructions}
}

func (b *AdvisorPromptBuilder) Route(query string) []domain.Message {
	return b.messages(routerInstruction, query)
}

func (b *AdvisorPromptBuilder) Document(query string, hits []domain.IndexHit) []domain.Message {
	return b.messages(fmt.Sprintf(documentInstruction, FormatDocumentContext(hits)), query)
}

func (b *AdvisorPromptBuilder) Web(query string, results []domain.WebResult) []domain.Message {
	return b.messages(fmt.Sprintf(webInstruction, FormatWebResults(results)), query)
}

func (b *AdvisorPromptBuilder) messages(system, query string) []domain.Message {
	if len(b.additionalInstructions) > 0 {
		system = system + "\n\n" + strings.Join(b.additionalInstructions, "\n")
	}
	return []domain.Message{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: query},
	}
}

// FormatDocumentContext renders index hits as numbered, source-labelled blocks.
func FormatDocumentContext(hits []domain.IndexHit) string {
	blocks := make([]string, 0, len(hits))
	for i, hit := range hits {
		department := hit.Category
		if department == "" {
			department = "Unknown department"
		}
		source := hit.SourceName
		if source == "" {
			source = "Unknown source"
		}
		blocks = append(blocks, fmt.Sprintf("Document %d (%s - %s):\n%s", i+1, department, source, strings.TrimSpace(hit.Text)))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatWebResults renders search hits as numbered title/content/source blocks.
func FormatWebResults(results []domain.WebResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Result %d:\nTitle: %s\nContent: %s\nSource: %s\n",
			i+1, orDefault(r.Title, "No title"), orDefault(r.Content, "No content"), orDefault(r.URL, "No URL")))
	}
	return strings.Join(blocks, "\n")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
