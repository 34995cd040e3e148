package domain

import "context"

// WebResult is a single hit from the live web search provider.
type WebResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// WebSearcher defines the interface for live web search (e.g. Tavily).
type WebSearcher interface {
	// Search returns at most maxResults hits in provider rank order.
	// An empty slice with a nil error is a legitimate "nothing found".
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}
