package domain

import "strings"

// Category is the intent classification of a user query.
type Category string

const (
	// CategoryDocumentRelated marks questions answerable from the course catalog.
	CategoryDocumentRelated Category = "document_related"
	// CategoryGeneralKnowledge marks questions that need live web knowledge.
	CategoryGeneralKnowledge Category = "general_knowledge"
	// CategoryUnknown is only reported when the agent itself failed.
	CategoryUnknown Category = "unknown"

	// DefaultCategory is applied whenever classification is unclear or fails.
	DefaultCategory = CategoryDocumentRelated
)

// ParseCategory normalizes raw classifier output and reports whether it names
// one of the two routable categories.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	return c, c.Valid()
}

// Valid reports whether c is a routable category.
func (c Category) Valid() bool {
	return c == CategoryDocumentRelated || c == CategoryGeneralKnowledge
}

func (c Category) String() string {
	return string(c)
}
