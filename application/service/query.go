package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codesense-dev/codesense/domain/query"
	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/infrastructure/cache"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/database"
)

// listSymbolKinds maps the word a "list X" question names to the symbol
// kind it denotes, per the query router's list_symbols pattern.
var listSymbolKinds = map[string]symbol.Kind{
	"functions": symbol.KindFunction,
	"methods":   symbol.KindMethod,
	"classes":   symbol.KindClass,
	"imports":   symbol.KindImport,
	"variables": symbol.KindVariable,
	"constants": symbol.KindConstant,
}

// QueryService answers free-text questions about an ingested codebase,
// fusing the static query engine (C13) and semantic retrieval over the
// vector index across three prompt strategies: pure static, pure semantic,
// and hybrid with section headers.
type QueryService struct {
	graph      persistence.GraphQueries
	symbols    persistence.SymbolStore
	vectors    search.VectorStore
	embedder   search.Embedder
	generator  search.Generator
	queryCache *cache.QueryCache
	embedCache *cache.EmbeddingCache

	topK                 int
	vectorScoreThreshold float64
	callGraphMaxDepth    int

	logger *slog.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(
	graph persistence.GraphQueries,
	symbols persistence.SymbolStore,
	vectors search.VectorStore,
	embedder search.Embedder,
	generator search.Generator,
	queryCache *cache.QueryCache,
	embedCache *cache.EmbeddingCache,
	topK int,
	vectorScoreThreshold float64,
	callGraphMaxDepth int,
	logger *slog.Logger,
) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = 10
	}
	if callGraphMaxDepth <= 0 {
		callGraphMaxDepth = 10
	}
	return &QueryService{
		graph: graph, symbols: symbols, vectors: vectors, embedder: embedder,
		generator: generator, queryCache: queryCache, embedCache: embedCache,
		topK: topK, vectorScoreThreshold: vectorScoreThreshold,
		callGraphMaxDepth: callGraphMaxDepth, logger: logger,
	}
}

// Ask classifies queryText and answers it against the (repoID, commitSHA)
// partition.
func (s *QueryService) Ask(ctx context.Context, repoID int64, commitSHA, queryText string) (query.HybridQueryResult, error) {
	if s.queryCache != nil {
		if cached, ok := s.queryCache.Get(queryText, repoID, commitSHA); ok {
			return cached, nil
		}
	}

	intent := query.Classify(queryText)

	var result query.HybridQueryResult
	var err error

	switch intent.QueryType {
	case query.TypeStatic:
		result, err = s.answerStatic(ctx, repoID, commitSHA, queryText, intent)
	case query.TypeSemantic:
		result, err = s.answerSemantic(ctx, repoID, commitSHA, queryText, intent)
	default:
		result, err = s.answerHybrid(ctx, repoID, commitSHA, queryText, intent)
	}
	if err != nil {
		return query.HybridQueryResult{}, err
	}

	if s.queryCache != nil {
		s.queryCache.Set(queryText, repoID, commitSHA, result)
	}
	return result, nil
}

func (s *QueryService) answerStatic(ctx context.Context, repoID int64, commitSHA, queryText string, intent query.Intent) (query.HybridQueryResult, error) {
	staticResult, err := s.executeStatic(ctx, repoID, commitSHA, intent)
	if err != nil {
		return query.HybridQueryResult{}, err
	}

	prompt := buildStaticPrompt(queryText, staticResult)
	answer := s.generate(ctx, prompt, staticResult.FormattedAnswer)

	return query.HybridQueryResult{
		Query:         queryText,
		QueryType:     query.TypeStatic,
		StaticResults: &staticResult,
		LLMAnswer:     answer,
		Metadata:      map[string]any{"primary_intent": intent.PrimaryIntent},
	}, nil
}

func (s *QueryService) answerSemantic(ctx context.Context, repoID int64, commitSHA, queryText string, intent query.Intent) (query.HybridQueryResult, error) {
	hits, err := s.retrieveChunks(ctx, repoID, commitSHA, queryText)
	if err != nil {
		return query.HybridQueryResult{}, err
	}

	prompt := buildSemanticPrompt(queryText, hits)
	answer := s.generate(ctx, prompt, "")

	return query.HybridQueryResult{
		Query:           queryText,
		QueryType:       query.TypeSemantic,
		RetrievedChunks: hits,
		LLMAnswer:       answer,
		Metadata:        map[string]any{"primary_intent": intent.PrimaryIntent, "chunks_retrieved": len(hits)},
	}, nil
}

func (s *QueryService) answerHybrid(ctx context.Context, repoID int64, commitSHA, queryText string, intent query.Intent) (query.HybridQueryResult, error) {
	staticResult, staticErr := s.executeStatic(ctx, repoID, commitSHA, intent)
	if staticErr != nil {
		s.logger.Warn("hybrid query: static lookup failed", "error", staticErr, "intent", intent.PrimaryIntent)
		staticResult = query.StaticQueryResult{Success: false, QueryType: intent.PrimaryIntent}
	}

	hits, err := s.retrieveChunks(ctx, repoID, commitSHA, queryText)
	if err != nil {
		return query.HybridQueryResult{}, err
	}

	prompt := buildHybridPrompt(queryText, staticResult, hits)
	answer := s.generate(ctx, prompt, staticResult.FormattedAnswer)

	return query.HybridQueryResult{
		Query:           queryText,
		QueryType:       query.TypeHybrid,
		StaticResults:   &staticResult,
		RetrievedChunks: hits,
		LLMAnswer:       answer,
		Metadata:        map[string]any{"primary_intent": intent.PrimaryIntent, "chunks_retrieved": len(hits)},
	}, nil
}

// retrieveChunks embeds queryText and searches the vector index, backed by
// the embedding cache so repeated questions skip the provider round-trip.
func (s *QueryService) retrieveChunks(ctx context.Context, repoID int64, commitSHA, queryText string) ([]search.Hit, error) {
	if s.embedder == nil || s.vectors == nil {
		return nil, nil
	}

	var vector []float32
	if s.embedCache != nil {
		if cached, ok := s.embedCache.Get(queryText); ok {
			vector = cached
		}
	}
	if vector == nil {
		v, err := s.embedder.EmbedOne(ctx, queryText)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		vector = v
		if s.embedCache != nil {
			s.embedCache.Set(queryText, vector)
		}
	}

	filter := search.Filter{RepoID: repoID, CommitSHA: commitSHA}
	hits, err := s.vectors.Search(ctx, search.DefaultCollection, vector, filter, s.topK, s.vectorScoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// generate calls the generator, falling back to fallback (the static
// formatted_answer when one exists, per §4.11 step 6) if the generator is
// unset or unavailable, so a down LLM backend degrades an answer rather
// than failing the whole request.
func (s *QueryService) generate(ctx context.Context, prompt, fallback string) string {
	if s.generator == nil {
		return fallback
	}
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("generator unavailable, falling back to static answer", "error", err)
		return fallback
	}
	return answer
}

// executeStatic dispatches intent.PrimaryIntent to the matching
// persistence.GraphQueries call, one of nine named structural shapes.
func (s *QueryService) executeStatic(ctx context.Context, repoID int64, commitSHA string, intent query.Intent) (query.StaticQueryResult, error) {
	switch intent.PrimaryIntent {
	case "find_symbol":
		return s.findSymbol(ctx, repoID, commitSHA, intent)
	case "list_symbols":
		return s.listSymbols(ctx, repoID, commitSHA, intent)
	case "find_callers":
		return s.withResolvedSymbolDepth(ctx, repoID, commitSHA, intent, "find_callers", s.graph.FindCallers)
	case "find_callees":
		return s.withResolvedSymbol(ctx, repoID, commitSHA, intent, "find_callees", s.graph.FindCallees)
	case "find_importers":
		return s.withResolvedSymbol(ctx, repoID, commitSHA, intent, "find_importers", s.graph.FindImporters)
	case "find_dependencies":
		return s.withResolvedSymbolDepth(ctx, repoID, commitSHA, intent, "find_dependencies", s.graph.FindDependencies)
	case "find_reachable":
		return s.withResolvedSymbolDepth(ctx, repoID, commitSHA, intent, "find_reachable", s.graph.FindReachable)
	case "find_call_path":
		return s.findCallPath(ctx, repoID, commitSHA, intent)
	case "find_imports":
		return s.findImports(ctx, repoID, commitSHA, intent)
	default:
		return query.StaticQueryResult{Success: false, QueryType: intent.PrimaryIntent, FormattedAnswer: "unrecognized static query"}, nil
	}
}

func (s *QueryService) findSymbol(ctx context.Context, repoID int64, commitSHA string, intent query.Intent) (query.StaticQueryResult, error) {
	if len(intent.Entities) == 0 {
		return query.StaticQueryResult{Success: false, QueryType: "find_symbol", FormattedAnswer: "no symbol name given"}, nil
	}
	name := intent.Entities[0]
	matches, err := s.graph.FindSymbol(ctx, repoID, commitSHA, name)
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("find_symbol: %w", err)
	}
	results := toStaticResults(matches)
	return toStaticQueryResult("find_symbol", results, formattedAnswer("find_symbol", name, results)), nil
}

func (s *QueryService) listSymbols(ctx context.Context, repoID int64, commitSHA string, intent query.Intent) (query.StaticQueryResult, error) {
	kind := symbol.KindFunction
	kindLabel := "functions"
	if len(intent.Entities) > 0 {
		if k, ok := listSymbolKinds[strings.ToLower(intent.Entities[0])]; ok {
			kind = k
			kindLabel = strings.ToLower(intent.Entities[0])
		}
	}
	matches, err := s.graph.ListSymbols(ctx, repoID, commitSHA, kind, 1, 100)
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("list_symbols: %w", err)
	}
	results := toStaticResults(matches)
	return toStaticQueryResult("list_symbols", results, formattedAnswer("list_symbols", kindLabel, results)), nil
}

func (s *QueryService) findImports(ctx context.Context, repoID int64, commitSHA string, intent query.Intent) (query.StaticQueryResult, error) {
	if len(intent.Entities) == 0 {
		return query.StaticQueryResult{Success: false, QueryType: "find_imports", FormattedAnswer: "no file path given"}, nil
	}
	file := intent.Entities[0]
	matches, err := s.graph.FindImports(ctx, repoID, commitSHA, file)
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("find_imports: %w", err)
	}
	results := toStaticResults(matches)
	return toStaticQueryResult("find_imports", results, formattedAnswer("find_imports", file, results)), nil
}

// withResolvedSymbol resolves intent's first entity to a symbol ID, then
// calls fn, for the direct-edge shapes (find_callees/importers).
func (s *QueryService) withResolvedSymbol(
	ctx context.Context, repoID int64, commitSHA string, intent query.Intent, label string,
	fn func(context.Context, int64, string, int64) ([]symbol.Symbol, error),
) (query.StaticQueryResult, error) {
	subject := entityAt(intent, 0)
	id, err := s.resolveEntityID(ctx, repoID, commitSHA, intent, 0)
	if err != nil {
		return query.StaticQueryResult{Success: false, QueryType: label, FormattedAnswer: fmt.Sprintf("symbol %q not found", subject)}, nil
	}
	matches, err := fn(ctx, repoID, commitSHA, id)
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("%s: %w", label, err)
	}
	results := toStaticResults(matches)
	return toStaticQueryResult(label, results, formattedAnswer(label, subject, results)), nil
}

// withResolvedSymbolDepth is withResolvedSymbol for the depth-bounded
// traversal shapes (find_callers/find_reachable/find_dependencies).
func (s *QueryService) withResolvedSymbolDepth(
	ctx context.Context, repoID int64, commitSHA string, intent query.Intent, label string,
	fn func(context.Context, int64, string, int64, int) ([]symbol.Symbol, error),
) (query.StaticQueryResult, error) {
	subject := entityAt(intent, 0)
	id, err := s.resolveEntityID(ctx, repoID, commitSHA, intent, 0)
	if err != nil {
		return query.StaticQueryResult{Success: false, QueryType: label, FormattedAnswer: fmt.Sprintf("symbol %q not found", subject)}, nil
	}
	matches, err := fn(ctx, repoID, commitSHA, id, s.callGraphMaxDepth)
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("%s: %w", label, err)
	}
	results := toStaticResults(matches)
	for i := range results {
		results[i].Depth = -1 // hop distance isn't tracked per-symbol by these traversals; see DESIGN.md
	}
	return toStaticQueryResult(label, results, formattedAnswer(label, subject, results)), nil
}

func (s *QueryService) findCallPath(ctx context.Context, repoID int64, commitSHA string, intent query.Intent) (query.StaticQueryResult, error) {
	if len(intent.Entities) < 2 {
		return query.StaticQueryResult{Success: false, QueryType: "find_call_path", FormattedAnswer: "need both a source and target symbol"}, nil
	}
	from, to := intent.Entities[0], intent.Entities[1]
	fromID, err := s.resolveEntityID(ctx, repoID, commitSHA, intent, 0)
	if err != nil {
		return query.StaticQueryResult{Success: false, QueryType: "find_call_path", FormattedAnswer: fmt.Sprintf("symbol %q not found", from)}, nil
	}
	toID, err := s.resolveEntityID(ctx, repoID, commitSHA, intent, 1)
	if err != nil {
		return query.StaticQueryResult{Success: false, QueryType: "find_call_path", FormattedAnswer: fmt.Sprintf("symbol %q not found", to)}, nil
	}

	path, err := s.graph.FindCallPath(ctx, repoID, commitSHA, fromID, toID, s.callGraphMaxDepth)
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("find_call_path: %w", err)
	}
	if len(path) == 0 {
		return query.StaticQueryResult{
			Success:         true,
			QueryType:       "find_call_path",
			Results:         nil,
			FormattedAnswer: fmt.Sprintf("no call path found from %q to %q", from, to),
		}, nil
	}

	nodes, err := s.symbols.Find(ctx, database.NewQuery().In("id", path))
	if err != nil {
		return query.StaticQueryResult{}, fmt.Errorf("find_call_path: resolve path nodes: %w", err)
	}
	byID := make(map[int64]symbol.Symbol, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}

	results := make([]query.StaticResult, 0, len(path))
	names := make([]string, 0, len(path))
	for depth, id := range path {
		sym, ok := byID[id]
		if !ok {
			continue
		}
		r := toStaticResult(sym)
		r.Depth = depth
		results = append(results, r)
		names = append(names, qualifiedOrName(sym.QualifiedName(), sym.Name()))
	}
	answer := fmt.Sprintf("call path from %q to %q: %s", from, to, strings.Join(names, " -> "))
	return toStaticQueryResult("find_call_path", results, answer), nil
}

// resolveEntityID resolves the idx'th entity in intent to a symbol ID via
// an exact/fuzzy name lookup, taking the first match.
func (s *QueryService) resolveEntityID(ctx context.Context, repoID int64, commitSHA string, intent query.Intent, idx int) (int64, error) {
	if idx >= len(intent.Entities) {
		return 0, fmt.Errorf("no entity at index %d", idx)
	}
	matches, err := s.graph.FindSymbol(ctx, repoID, commitSHA, intent.Entities[idx])
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("symbol %q not found", intent.Entities[idx])
	}
	return matches[0].ID(), nil
}

// entityAt returns intent's idx'th entity, or "" if absent.
func entityAt(intent query.Intent, idx int) string {
	if idx >= len(intent.Entities) {
		return ""
	}
	return intent.Entities[idx]
}

func toStaticResult(sym symbol.Symbol) query.StaticResult {
	return query.StaticResult{
		Kind:          "symbol",
		Name:          sym.Name(),
		QualifiedName: sym.QualifiedName(),
		FilePath:      sym.FilePath(),
		LineStart:     sym.LineStart(),
		LineEnd:       sym.LineEnd(),
	}
}

func toStaticResults(symbols []symbol.Symbol) []query.StaticResult {
	out := make([]query.StaticResult, len(symbols))
	for i, sym := range symbols {
		out[i] = toStaticResult(sym)
	}
	return out
}

func toStaticQueryResult(queryType string, results []query.StaticResult, formatted string) query.StaticQueryResult {
	return query.StaticQueryResult{
		Success:         true,
		QueryType:       queryType,
		Results:         results,
		Metadata:        map[string]any{"count": len(results)},
		FormattedAnswer: formatted,
	}
}

// qualifiedOrName prefers a symbol's qualified name, falling back to its
// bare name when none is set.
func qualifiedOrName(qualified, name string) string {
	if qualified != "" {
		return qualified
	}
	return name
}

// formattedAnswer renders a human-readable summary of a C13 shape's
// results, named after the subject entity the question asked about. It
// backs both the pure-static prompt (§4.11 step 4) and the generator
// fallback (§4.11 step 6).
func formattedAnswer(label, subject string, results []query.StaticResult) string {
	if len(results) == 0 {
		if subject == "" {
			return "no results found"
		}
		return fmt.Sprintf("no results found for %q", subject)
	}

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = qualifiedOrName(r.QualifiedName, r.Name)
	}
	joined := strings.Join(names, ", ")

	switch label {
	case "find_symbol":
		return fmt.Sprintf("found %d symbol(s) matching %q: %s", len(results), subject, joined)
	case "list_symbols":
		return fmt.Sprintf("found %d %s: %s", len(results), subject, joined)
	case "find_callers":
		return fmt.Sprintf("%d symbol(s) call %q: %s", len(results), subject, joined)
	case "find_callees":
		return fmt.Sprintf("%q calls %d symbol(s): %s", subject, len(results), joined)
	case "find_importers":
		return fmt.Sprintf("%d symbol(s) import %q: %s", len(results), subject, joined)
	case "find_dependencies":
		return fmt.Sprintf("%q transitively depends on %d symbol(s): %s", subject, len(results), joined)
	case "find_reachable":
		return fmt.Sprintf("%d symbol(s) reachable from %q: %s", len(results), subject, joined)
	case "find_imports":
		return fmt.Sprintf("%q imports %d symbol(s): %s", subject, len(results), joined)
	default:
		return fmt.Sprintf("found %d result(s) for %q", len(results), subject)
	}
}

// buildStaticPrompt builds a pure-static prompt: the question plus the
// static engine's formatted_answer as the only context, instructing the
// generator not to speculate beyond it.
func buildStaticPrompt(queryText string, staticResult query.StaticQueryResult) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the structural facts below. Do not speculate beyond them.\n\n")
	b.WriteString("Question: ")
	b.WriteString(queryText)
	b.WriteString("\n\n")
	b.WriteString("## Structural Facts\n")
	if staticResult.FormattedAnswer != "" {
		b.WriteString(staticResult.FormattedAnswer)
	} else {
		b.WriteString("(none found)")
	}
	b.WriteString("\n")
	return b.String()
}

// buildSemanticPrompt builds a pure-semantic prompt: the question plus the
// retrieved chunks as context, no structural section.
func buildSemanticPrompt(queryText string, hits []search.Hit) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the code excerpts below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(queryText)
	b.WriteString("\n\n")
	writeChunkSection(&b, hits)
	return b.String()
}

// buildHybridPrompt builds a hybrid prompt with distinct section headers
// for structural facts and retrieved code.
func buildHybridPrompt(queryText string, staticResult query.StaticQueryResult, hits []search.Hit) string {
	var b strings.Builder
	b.WriteString("Answer the question using the structural facts and code excerpts below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(queryText)
	b.WriteString("\n\n")

	b.WriteString("## Structural Context\n")
	if staticResult.Success && len(staticResult.Results) > 0 {
		for _, r := range staticResult.Results {
			fmt.Fprintf(&b, "- %s %s (%s:%d-%d)\n", r.Kind, r.QualifiedName, r.FilePath, r.LineStart, r.LineEnd)
		}
	} else {
		b.WriteString("(none found)\n")
	}
	b.WriteString("\n")

	writeChunkSection(&b, hits)
	return b.String()
}

func writeChunkSection(b *strings.Builder, hits []search.Hit) {
	b.WriteString("## Relevant Code\n")
	if len(hits) == 0 {
		b.WriteString("(none found)\n")
		return
	}
	for _, h := range hits {
		fmt.Fprintf(b, "### %s:%d-%d\n", h.Point.FilePath, h.Point.StartLine, h.Point.EndLine)
		b.WriteString(h.Point.Content)
		b.WriteString("\n\n")
	}
}
