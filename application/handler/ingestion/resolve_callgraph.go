package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codesense-dev/codesense/application/handler"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/chunking"
	"github.com/codesense-dev/codesense/infrastructure/indexing"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
)

// ResolveCallgraphHandler executes ingestion.StageResolveCallgraph: re-walk
// the clone, re-parse every file, and build call/inherits edges against
// the symbols parse_index already persisted, as a separate second pass
// over the same ASTs.
type ResolveCallgraphHandler struct {
	runs          persistence.RunStore
	tasks         persistence.TaskStore
	symbols       persistence.SymbolStore
	relationships persistence.RelationshipStore
	registry      parsing.Registry
	parser        parsing.Parser
	builder       indexing.CallGraphBuilder
	logger        *slog.Logger
}

// NewResolveCallgraphHandler creates a ResolveCallgraphHandler.
func NewResolveCallgraphHandler(
	runs persistence.RunStore,
	tasks persistence.TaskStore,
	symbols persistence.SymbolStore,
	relationships persistence.RelationshipStore,
	registry parsing.Registry,
	logger *slog.Logger,
) *ResolveCallgraphHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveCallgraphHandler{
		runs:          runs,
		tasks:         tasks,
		symbols:       symbols,
		relationships: relationships,
		registry:      registry,
		parser:        parsing.NewParser(registry),
		builder:       indexing.NewCallGraphBuilder(),
		logger:        logger,
	}
}

// Execute implements handler.Handler.
func (h *ResolveCallgraphHandler) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repo_id")
	if err != nil {
		return err
	}
	commitSHA, err := handler.ExtractString(payload, "commit_sha")
	if err != nil {
		return err
	}
	runID, err := handler.ExtractInt64(payload, "run_id")
	if err != nil {
		return err
	}
	clonePath, err := handler.ExtractString(payload, "clone_path")
	if err != nil {
		return err
	}

	allSymbols, err := h.symbols.AllForCommit(ctx, repoID, commitSHA)
	if err != nil {
		return fmt.Errorf("resolve_callgraph: load symbols: %w", err)
	}
	globalIndex := indexing.NewGlobalNameIndex(allSymbols)

	knownFiles := make(map[string]struct{})
	symbolsByFile := make(map[string][]symbol.Symbol)
	importsByFile := make(map[string][]symbol.Symbol)
	for _, s := range allSymbols {
		knownFiles[s.FilePath()] = struct{}{}
		symbolsByFile[s.FilePath()] = append(symbolsByFile[s.FilePath()], s)
		if s.SymbolType() == symbol.KindImport {
			importsByFile[s.FilePath()] = append(importsByFile[s.FilePath()], s)
		}
	}
	importGraph := indexing.BuildImportGraph(knownFiles, symbolsByFile, importsByFile)

	var unresolved int
	err = filepath.WalkDir(clonePath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(clonePath, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		localSymbols, ok := symbolsByFile[relPath]
		if !ok {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if chunking.ShouldSkip(relPath, info.Size()) {
			return nil
		}

		langName := parsing.DetectLanguage(relPath)
		lang, ok := h.registry.ByName(langName)
		if !ok {
			return nil
		}

		source, readErr := os.ReadFile(path)
		if readErr != nil {
			h.logger.Warn("failed to read file", slog.String("path", relPath), slog.String("error", readErr.Error()))
			return nil
		}

		tree, parseErr := h.parser.Parse(ctx, langName, source)
		if parseErr != nil {
			h.logger.Warn("failed to parse file", slog.String("path", relPath), slog.String("error", parseErr.Error()))
			return nil
		}

		result := h.builder.BuildFile(repoID, commitSHA, lang, tree, source, relPath, localSymbols, importGraph, globalIndex)
		unresolved += result.UnresolvedCalls

		if len(result.Relationships) > 0 {
			if _, err := h.relationships.BulkCreate(ctx, result.Relationships); err != nil {
				return fmt.Errorf("persist relationships for %s: %w", relPath, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("resolve_callgraph: walk %s: %w", clonePath, err)
	}

	if unresolved > 0 {
		h.logger.Info("unresolved calls in run",
			slog.Int64("run_id", runID),
			slog.Int("unresolved_calls", unresolved),
		)
	}

	if err := h.runs.AdvanceStage(ctx, runID, ingestion.StageResolveCallgraph); err != nil {
		return fmt.Errorf("resolve_callgraph: advance stage: %w", err)
	}

	next := taskqueue.New(ingestion.StageChunkEmbedUpsert, taskqueue.PriorityNormal, map[string]any{
		"repo_id":    repoID,
		"commit_sha": commitSHA,
		"run_id":     runID,
		"clone_path": clonePath,
	})
	if _, err := h.tasks.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("resolve_callgraph: enqueue chunk_embed_upsert task: %w", err)
	}

	return nil
}

var _ handler.Handler = (*ResolveCallgraphHandler)(nil)
