package query

import "github.com/codesense-dev/codesense/domain/search"

// StaticResult is a single row returned by the static query engine (C13):
// typically a symbol or relationship projected into a display-friendly shape.
type StaticResult struct {
	Kind          string `json:"kind"` // "symbol", "relationship", "path", "file"
	Name          string `json:"name,omitempty"`
	QualifiedName string `json:"qualified_name,omitempty"`
	FilePath      string `json:"file_path,omitempty"`
	LineStart     int    `json:"line_start,omitempty"`
	LineEnd       int    `json:"line_end,omitempty"`
	Depth         int    `json:"depth,omitempty"`
}

// StaticQueryResult is C13's response envelope for one structural query.
type StaticQueryResult struct {
	Success         bool
	QueryType       string
	Results         []StaticResult
	Metadata        map[string]any
	FormattedAnswer string
}

// HybridQueryResult is C14's response envelope for one question.
type HybridQueryResult struct {
	Query           string
	QueryType       Type
	StaticResults   *StaticQueryResult
	RetrievedChunks []search.Hit
	LLMAnswer       string
	Metadata        map[string]any
}
