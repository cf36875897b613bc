package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/codesense-dev/codesense/application/service"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/testdb"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := testdb.New(t)
	coordinator := service.NewCoordinator(
		persistence.NewRepositoryStore(db),
		persistence.NewRunStore(db),
		persistence.NewTaskStore(db),
	)
	queries := service.NewQueryService(
		persistence.NewGraphQueries(db, persistence.NewSymbolStore(db), persistence.NewRelationshipStore(db)),
		persistence.NewSymbolStore(db),
		nil, nil, nil, nil, nil,
		10, 0, 10,
		nil,
	)
	return NewServer(coordinator, queries, "test", nil)
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	result := srv.MCPServer().HandleMessage(context.Background(), raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T: %+v", result, result)
	}
	return resp
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) mcp.JSONRPCResponse {
	t.Helper()
	return sendMessage(t, srv, "tools/call", 1, map[string]any{
		"name":      name,
		"arguments": args,
	})
}

func resultJSON(t *testing.T, resp mcp.JSONRPCResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal result into %T: %v", dst, err)
	}
}

func TestHandleGetVersion(t *testing.T) {
	srv := newTestServer(t)
	resp := callTool(t, srv, "get_version", nil)

	var result mcp.CallToolResult
	resultJSON(t, resp, &result)
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result)
	}
}

func TestHandleListRepositories_Empty(t *testing.T) {
	srv := newTestServer(t)
	resp := callTool(t, srv, "list_repositories", nil)

	var result mcp.CallToolResult
	resultJSON(t, resp, &result)
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result)
	}
}

func TestHandleIngestRepo_ThenStatus(t *testing.T) {
	srv := newTestServer(t)

	ingestResp := callTool(t, srv, "ingest_repo", map[string]any{
		"remote_url": "https://github.com/acme/widgets",
	})
	var ingestResult mcp.CallToolResult
	resultJSON(t, ingestResp, &ingestResult)
	if ingestResult.IsError {
		t.Fatalf("ingest_repo returned error: %+v", ingestResult)
	}

	statusResp := callTool(t, srv, "ingestion_status", map[string]any{
		"repo_id": "1",
	})
	var statusResult mcp.CallToolResult
	resultJSON(t, statusResp, &statusResult)
	if statusResult.IsError {
		t.Fatalf("ingestion_status returned error: %+v", statusResult)
	}
}

func TestHandleIngestionStatus_UnknownRepo(t *testing.T) {
	srv := newTestServer(t)

	resp := callTool(t, srv, "ingestion_status", map[string]any{
		"repo_id": "999",
	})
	var result mcp.CallToolResult
	resultJSON(t, resp, &result)
	if !result.IsError {
		t.Fatalf("expected error result for unknown repo, got %+v", result)
	}
}
