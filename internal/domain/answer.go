package domain

// SourceTool tags the answer provider that produced an AnswerResult.
type SourceTool string

const (
	SourceToolDocumentRetriever SourceTool = "document_retriever"
	SourceToolWebSearch         SourceTool = "web_search"
	SourceToolError             SourceTool = "error"
)

// AnswerResult is the per-query output envelope returned by the agent.
type AnswerResult struct {
	Answer     string
	SourceTool SourceTool
	// Contexts holds the literal excerpts that supported the answer, in order.
	Contexts []string
	Route    Category
	// Error is the failure marker: set when a non-fatal error was absorbed.
	Error string
}

// Failed reports whether any stage absorbed an error while producing r.
func (r *AnswerResult) Failed() bool {
	return r.Error != ""
}
