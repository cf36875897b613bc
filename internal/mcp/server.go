// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/codesense-dev/codesense/application/service"
	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/domain/query"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with codesense's ingest/status/query tools,
// backed by the same coordinator/query-service pair that serves
// codesense's HTTP API.
type Server struct {
	mcpServer   *server.MCPServer
	coordinator *service.Coordinator
	queries     *service.QueryService
	version     string
	logger      *slog.Logger
}

const instructions = "This server provides access to code ingestion and hybrid " +
	"search over Git repositories:\n\n" +
	"**Workflow:**\n" +
	"1. Use list_repositories() to see what's already tracked\n" +
	"2. Use ingest_repo(remote_url) to register and start indexing a new repository\n" +
	"3. Use ingestion_status(repo_id) to poll until the run completes\n" +
	"4. Use ask_repo(repo_id, query) to ask questions once indexing finishes\n\n" +
	"ask_repo classifies the question and answers it with structural facts " +
	"(symbol/call-graph lookups), retrieved code chunks, or both, depending on " +
	"what the question asks for."

// NewServer creates a new MCP server wired to coordinator and queries.
func NewServer(coordinator *service.Coordinator, queries *service.QueryService, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		coordinator: coordinator,
		queries:     queries,
		version:     version,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer(
		"codesense",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(instructions),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// MCPServer returns the underlying mcp-go server, for mounting as a
// streamable-HTTP handler alongside the REST API.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("get_version",
		mcp.WithDescription("Get the codesense server version"),
	), s.handleGetVersion)

	mcpServer.AddTool(mcp.NewTool("list_repositories",
		mcp.WithDescription("List all repositories tracked by codesense"),
	), s.handleListRepositories)

	mcpServer.AddTool(mcp.NewTool("ingest_repo",
		mcp.WithDescription("Register a repository (if not already tracked) and start an ingestion run"),
		mcp.WithString("remote_url",
			mcp.Required(),
			mcp.Description("The Git remote URL, or owner/name shorthand for a GitHub repository"),
		),
	), s.handleIngestRepo)

	mcpServer.AddTool(mcp.NewTool("ingestion_status",
		mcp.WithDescription("Get the latest ingestion run status for a tracked repository"),
		mcp.WithString("repo_id",
			mcp.Required(),
			mcp.Description("The repository ID returned by ingest_repo or list_repositories"),
		),
	), s.handleIngestionStatus)

	mcpServer.AddTool(mcp.NewTool("ask_repo",
		mcp.WithDescription("Ask a natural-language question about an indexed repository"),
		mcp.WithString("repo_id",
			mcp.Required(),
			mcp.Description("The repository ID to query"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The natural-language question"),
		),
		mcp.WithString("commit_sha",
			mcp.Description("Commit SHA to query against (defaults to the repository's latest indexed commit)"),
		),
	), s.handleAskRepo)
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func (s *Server) handleListRepositories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := s.coordinator.Repositories(ctx)
	if err != nil {
		s.logger.Error("failed to list repositories", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list repositories: %v", err)), nil
	}

	if len(repos) == 0 {
		return mcp.NewToolResultText("No repositories tracked yet."), nil
	}

	var b strings.Builder
	for _, repo := range repos {
		fmt.Fprintf(&b, "- [%d] %s", repo.ID(), repo.RemoteURL())
		if repo.HasIndexedCommit() {
			fmt.Fprintf(&b, " (indexed: %s)", repo.LatestCommitSHA())
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleIngestRepo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	remoteURL, err := request.RequireString("remote_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	repo, run, err := s.coordinator.Ingest(ctx, remoteURL, taskqueue.PriorityUserRequested)
	if err != nil {
		s.logger.Error("ingest_repo failed", slog.String("remote_url", remoteURL), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("ingest failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Repository %s registered as id %d. Ingestion run %d started (status: %s).",
		repo.RemoteURL(), repo.ID(), run.ID(), run.Status(),
	)), nil
}

func (s *Server) handleIngestionStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoID, err := parseRepoID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.coordinator.Status(ctx, repoID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run %d: status=%s stage=%s", run.ID(), run.Status(), run.Stage())
	if run.Degraded() {
		b.WriteString(" (degraded)")
	}
	if run.Error() != "" {
		fmt.Fprintf(&b, " error=%q", run.Error())
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleAskRepo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoID, err := parseRepoID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queryText, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	commitSHA := request.GetString("commit_sha", "")

	if commitSHA == "" {
		repo, err := s.coordinator.Repository(ctx, repoID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("repository lookup failed: %v", err)), nil
		}
		commitSHA = repo.LatestCommitSHA()
	}

	result, err := s.queries.Ask(ctx, repoID, commitSHA, queryText)
	if err != nil {
		s.logger.Error("ask_repo failed", slog.Int64("repo_id", repoID), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAskResult(result)), nil
}

func formatAskResult(result query.HybridQueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "query_type: %s\n\n", result.QueryType)

	if result.StaticResults != nil && result.StaticResults.Success {
		b.WriteString("Structural results:\n")
		for _, r := range result.StaticResults.Results {
			fmt.Fprintf(&b, "- %s %s (%s:%d-%d)\n", r.Kind, r.QualifiedName, r.FilePath, r.LineStart, r.LineEnd)
		}
		b.WriteString("\n")
	}

	if len(result.RetrievedChunks) > 0 {
		fmt.Fprintf(&b, "Retrieved %d code chunk(s):\n", len(result.RetrievedChunks))
		for _, h := range result.RetrievedChunks {
			fmt.Fprintf(&b, "- %s:%d-%d (score %.3f)\n", h.Point.FilePath, h.Point.StartLine, h.Point.EndLine, h.Score)
		}
		b.WriteString("\n")
	}

	if result.LLMAnswer != "" {
		b.WriteString(result.LLMAnswer)
	} else if b.Len() == 0 {
		b.WriteString("no results found")
	}

	return b.String()
}

func parseRepoID(request mcp.CallToolRequest) (int64, error) {
	raw, err := request.RequireString("repo_id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid repo_id %q: %w", raw, coderepo.ErrInvalidURL)
	}
	return id, nil
}
