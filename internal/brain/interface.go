// Package brain provides keyword-routed access to the markdown notebooks
// that hold accumulated task knowledge. The orchestrator consumes it through
// the Querier interface; the file-backed implementation lives here too.
package brain

import (
	"context"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// Excerpt is one scored notebook excerpt returned from a query.
type Excerpt struct {
	Notebook string `json:"notebook"`
	Text     string `json:"excerpt"`
}

// QueryResult is the outcome of one brain query across notebooks.
type QueryResult struct {
	Query     string    `json:"query"`
	Notebooks []string  `json:"notebooks"`
	Results   []Excerpt `json:"results"`
}

// Querier is the knowledge-base capability consumed by the orchestrator.
type Querier interface {
	// Query routes the text to relevant notebooks and returns ranked
	// excerpts. Notebook reads are independent and run concurrently.
	Query(ctx context.Context, text string) (*QueryResult, error)

	// QueryPrerequisites returns prior-knowledge lines recorded by earlier
	// tasks that are relevant to this one.
	QueryPrerequisites(ctx context.Context, task string, classification models.Classification) ([]string, error)

	// AppendSummary appends a task summary to the named notebook.
	AppendSummary(ctx context.Context, notebook, markdown string) error
}
