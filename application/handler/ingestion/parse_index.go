package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codesense-dev/codesense/application/handler"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/relationship"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/chunking"
	"github.com/codesense-dev/codesense/infrastructure/indexing"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
)

// ParseIndexHandler executes ingestion.StageParseIndex: walk the cloned
// working copy, parse every recognized file, extract symbols (classes
// first, then method-parent resolution, then functions/imports/variables),
// and resolve import bindings into "imports" relationships.
type ParseIndexHandler struct {
	runs          persistence.RunStore
	tasks         persistence.TaskStore
	symbols       persistence.SymbolStore
	relationships persistence.RelationshipStore
	registry      parsing.Registry
	parser        parsing.Parser
	indexer       indexing.Indexer
	logger        *slog.Logger
}

// NewParseIndexHandler creates a ParseIndexHandler.
func NewParseIndexHandler(
	runs persistence.RunStore,
	tasks persistence.TaskStore,
	symbols persistence.SymbolStore,
	relationships persistence.RelationshipStore,
	registry parsing.Registry,
	logger *slog.Logger,
) *ParseIndexHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseIndexHandler{
		runs:          runs,
		tasks:         tasks,
		symbols:       symbols,
		relationships: relationships,
		registry:      registry,
		parser:        parsing.NewParser(registry),
		indexer:       indexing.NewIndexer(registry),
		logger:        logger,
	}
}

// Execute implements handler.Handler.
func (h *ParseIndexHandler) Execute(ctx context.Context, payload map[string]any) error {
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

	knownFiles := make(map[string]struct{})
	symbolsByFile := make(map[string][]symbol.Symbol)
	importsByFile := make(map[string][]symbol.Symbol)

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

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if chunking.ShouldSkip(relPath, info.Size()) {
			return nil
		}

		langName := parsing.DetectLanguage(relPath)
		if langName == "" {
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

		fs := h.indexer.Extract(repoID, commitSHA, relPath, langName, tree, source)

		persisted, persistErr := h.persistFileSymbols(ctx, fs)
		if persistErr != nil {
			return fmt.Errorf("persist symbols for %s: %w", relPath, persistErr)
		}

		knownFiles[relPath] = struct{}{}
		symbolsByFile[relPath] = persisted
		importsByFile[relPath] = selectKind(persisted, symbol.KindImport)

		return nil
	})
	if err != nil {
		return fmt.Errorf("parse_index: walk %s: %w", clonePath, err)
	}

	importGraph := indexing.BuildImportGraph(knownFiles, symbolsByFile, importsByFile)
	if err := h.persistImportRelationships(ctx, repoID, commitSHA, importsByFile, importGraph); err != nil {
		return fmt.Errorf("parse_index: persist import relationships: %w", err)
	}

	if err := h.runs.AdvanceStage(ctx, runID, ingestion.StageParseIndex); err != nil {
		return fmt.Errorf("parse_index: advance stage: %w", err)
	}

	next := taskqueue.New(ingestion.StageResolveCallgraph, taskqueue.PriorityNormal, map[string]any{
		"repo_id":    repoID,
		"commit_sha": commitSHA,
		"run_id":     runID,
		"clone_path": clonePath,
	})
	if _, err := h.tasks.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("parse_index: enqueue resolve_callgraph task: %w", err)
	}

	return nil
}

// persistFileSymbols inserts classes first (to obtain ids), stamps
// parent_symbol_id onto methods via ResolveMethodParents, then inserts
// functions/imports/variables, returning every persisted symbol for the
// file in one slice.
func (h *ParseIndexHandler) persistFileSymbols(ctx context.Context, fs indexing.FileSymbols) ([]symbol.Symbol, error) {
	classes, err := h.symbols.BulkCreate(ctx, fs.Classes)
	if err != nil {
		return nil, fmt.Errorf("create classes: %w", err)
	}

	functions := indexing.ResolveMethodParents(classes, fs.Functions)
	functions, err = h.symbols.BulkCreate(ctx, functions)
	if err != nil {
		return nil, fmt.Errorf("create functions: %w", err)
	}

	imports, err := h.symbols.BulkCreate(ctx, fs.Imports)
	if err != nil {
		return nil, fmt.Errorf("create imports: %w", err)
	}

	variables, err := h.symbols.BulkCreate(ctx, fs.Variables)
	if err != nil {
		return nil, fmt.Errorf("create variables: %w", err)
	}

	all := make([]symbol.Symbol, 0, len(classes)+len(functions)+len(imports)+len(variables))
	all = append(all, classes...)
	all = append(all, functions...)
	all = append(all, imports...)
	all = append(all, variables...)
	return all, nil
}

// persistImportRelationships walks every import symbol's bound names
// through importGraph, emitting one "imports" edge per resolved binding.
func (h *ParseIndexHandler) persistImportRelationships(ctx context.Context, repoID int64, commitSHA string, importsByFile map[string][]symbol.Symbol, importGraph indexing.ImportGraph) error {
	var rels []relationship.Relationship
	for file, imports := range importsByFile {
		for _, imp := range imports {
			names, _ := imp.ExtraMetadata()["imported_names"].([]string)
			for _, name := range names {
				target, ok := importGraph.Lookup(file, name)
				if !ok {
					continue
				}
				rels = append(rels, relationship.New(repoID, commitSHA, imp.ID(), target.ID(), relationship.TypeImports))
			}
		}
	}
	_, err := h.relationships.BulkCreate(ctx, rels)
	return err
}

func selectKind(symbols []symbol.Symbol, kind symbol.Kind) []symbol.Symbol {
	var out []symbol.Symbol
	for _, s := range symbols {
		if s.SymbolType() == kind {
			out = append(out, s)
		}
	}
	return out
}

var _ handler.Handler = (*ParseIndexHandler)(nil)
