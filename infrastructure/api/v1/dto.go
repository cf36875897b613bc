// Package v1 implements the codesense HTTP API: repository registration,
// ingestion status, and hybrid query, laid out one router per resource.
package v1

import (
	"time"

	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/query"
	"github.com/codesense-dev/codesense/domain/search"
)

// RepositoryData is the wire representation of a tracked repository.
type RepositoryData struct {
	ID              int64     `json:"id"`
	Provider        string    `json:"provider"`
	Owner           string    `json:"owner"`
	Name            string    `json:"name"`
	RemoteURL       string    `json:"remote_url"`
	DefaultBranch   string    `json:"default_branch,omitempty"`
	LatestCommitSHA string    `json:"latest_commit_sha,omitempty"`
	LastIndexedAt   time.Time `json:"last_indexed_at,omitempty"`
}

func repoToDTO(r coderepo.Repository) RepositoryData {
	return RepositoryData{
		ID:              r.ID(),
		Provider:        r.Provider(),
		Owner:           r.Owner(),
		Name:            r.Name(),
		RemoteURL:       r.RemoteURL(),
		DefaultBranch:   r.DefaultBranch(),
		LatestCommitSHA: r.LatestCommitSHA(),
		LastIndexedAt:   r.LastIndexedAt(),
	}
}

// RepositoryResponse wraps a single repository.
type RepositoryResponse struct {
	Data RepositoryData `json:"data"`
}

// RepositoryListResponse wraps a repository collection.
type RepositoryListResponse struct {
	Data []RepositoryData `json:"data"`
}

// RepositoryCreateRequest is the POST /repositories request body.
type RepositoryCreateRequest struct {
	RemoteURL string `json:"remote_url"`
}

// RunData is the wire representation of an ingestion run.
type RunData struct {
	ID         int64     `json:"id"`
	RepoID     int64     `json:"repo_id"`
	CommitSHA  string    `json:"commit_sha,omitempty"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Degraded   bool      `json:"degraded"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func runToDTO(run ingestion.Run) RunData {
	return RunData{
		ID:         run.ID(),
		RepoID:     run.RepoID(),
		CommitSHA:  run.CommitSHA(),
		Status:     string(run.Status()),
		Stage:      string(run.Stage()),
		Degraded:   run.Degraded(),
		StartedAt:  run.StartedAt(),
		FinishedAt: run.FinishedAt(),
		Error:      run.Error(),
	}
}

// IngestResponse is returned by POST /repositories: the resolved repository
// plus the run it just enqueued.
type IngestResponse struct {
	Data struct {
		Repository RepositoryData `json:"repository"`
		Run        RunData        `json:"run"`
	} `json:"data"`
}

// RunResponse wraps a single ingestion run.
type RunResponse struct {
	Data RunData `json:"data"`
}

// QueryRequest is the POST /repositories/{id}/query request body.
type QueryRequest struct {
	CommitSHA string `json:"commit_sha"`
	Query     string `json:"query"`
}

// ChunkHit is the wire representation of a retrieved semantic chunk,
// omitting the embedding vector the caller never needs.
type ChunkHit struct {
	FilePath  string  `json:"file_path"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

func hitsToDTO(hits []search.Hit) []ChunkHit {
	out := make([]ChunkHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, ChunkHit{
			FilePath:  h.Point.FilePath,
			StartLine: h.Point.StartLine,
			EndLine:   h.Point.EndLine,
			Content:   h.Point.Content,
			Score:     h.Score,
		})
	}
	return out
}

// QueryResponseData is the wire representation of a HybridQueryResult.
type QueryResponseData struct {
	Query           string                   `json:"query"`
	QueryType       string                   `json:"query_type"`
	StaticResults   *query.StaticQueryResult `json:"static_results,omitempty"`
	RetrievedChunks []ChunkHit               `json:"retrieved_chunks,omitempty"`
	Answer          string                   `json:"answer,omitempty"`
}

// QueryResponse wraps a QueryResponseData.
type QueryResponse struct {
	Data QueryResponseData `json:"data"`
}

func queryResultToDTO(result query.HybridQueryResult) QueryResponseData {
	return QueryResponseData{
		Query:           result.Query,
		QueryType:       string(result.QueryType),
		StaticResults:   result.StaticResults,
		RetrievedChunks: hitsToDTO(result.RetrievedChunks),
		Answer:          result.LLMAnswer,
	}
}
