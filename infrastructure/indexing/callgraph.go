package indexing

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codesense-dev/codesense/domain/relationship"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
)

// CallGraphBuilder is the call-graph builder (C8): for every function/
// method symbol it re-walks the subtree spanning that symbol's line
// range, collects call expressions, and resolves each callee name
// through local symbols, then the C7 import map, then a global scan.
type CallGraphBuilder struct {
	walker Walker
}

// NewCallGraphBuilder creates a CallGraphBuilder.
func NewCallGraphBuilder() CallGraphBuilder { return CallGraphBuilder{walker: NewWalker()} }

// CallGraphResult is one file's resolved edges, ready for a single bulk
// insert, plus a count of references that could not be resolved: calls that
// none of the three lookup stages matched, and base classes the global index
// did not find (logged by the caller, never persisted).
type CallGraphResult struct {
	Relationships   []relationship.Relationship
	UnresolvedCalls int
}

// BuildFile computes call and inherits edges for one file. localSymbols
// must be every symbol (of any kind, already persisted with ids) declared
// in filePath; tree/source are the same parsed AST and bytes the symbol
// indexer ran over, re-walked here as its own stage.
func (b CallGraphBuilder) BuildFile(
	repoID int64,
	commitSHA string,
	lang parsing.Language,
	tree *sitter.Tree,
	source []byte,
	filePath string,
	localSymbols []symbol.Symbol,
	importGraph ImportGraph,
	globalIndex GlobalNameIndex,
) CallGraphResult {
	if tree == nil {
		return CallGraphResult{}
	}

	nt := lang.Nodes()
	funcTypes := append(append([]string{}, nt.FunctionNodes...), nt.MethodNodes...)
	funcNodes := b.walker.CollectNodes(tree.RootNode(), funcTypes)

	localByName := make(map[string]symbol.Symbol, len(localSymbols))
	for _, s := range localSymbols {
		if s.SymbolType() != symbol.KindFunction && s.SymbolType() != symbol.KindMethod {
			continue
		}
		if _, exists := localByName[s.Name()]; !exists {
			localByName[s.Name()] = s
		}
	}

	var result CallGraphResult

	for _, s := range localSymbols {
		if s.SymbolType() != symbol.KindFunction && s.SymbolType() != symbol.KindMethod {
			continue
		}
		node := findNodeBySpan(funcNodes, s.LineStart(), s.LineEnd())
		if node == nil {
			continue
		}

		for _, callNode := range b.walker.CollectDescendants(node, nt.CallNode) {
			name := b.extractCalleeName(callNode, source)
			if name == "" {
				continue
			}
			if idx := strings.LastIndex(name, "."); idx >= 0 {
				name = name[idx+1:]
			}

			target, ok := localByName[name]
			if !ok {
				target, ok = importGraph.Lookup(filePath, name)
			}
			if !ok {
				target, ok = globalIndex.Find(name)
			}
			if !ok {
				result.UnresolvedCalls++
				continue
			}
			if target.ID() == s.ID() {
				continue
			}
			result.Relationships = append(result.Relationships, relationship.New(repoID, commitSHA, s.ID(), target.ID(), relationship.TypeCalls))
		}
	}

	for _, s := range localSymbols {
		if s.SymbolType() != symbol.KindClass {
			continue
		}
		bases, _ := s.ExtraMetadata()["base_classes"].([]string)
		for _, baseName := range bases {
			if idx := strings.LastIndex(baseName, "."); idx >= 0 {
				baseName = baseName[idx+1:]
			}
			target, ok := globalIndex.Find(baseName)
			if !ok {
				result.UnresolvedCalls++
				continue
			}
			result.Relationships = append(result.Relationships, relationship.New(repoID, commitSHA, s.ID(), target.ID(), relationship.TypeInherits))
		}
	}

	return result
}

// extractCalleeName extracts a call node's textual callee name: the
// "function" field (most grammars), else the "name" field, else the first
// identifier child, in that order.
func (b CallGraphBuilder) extractCalleeName(node *sitter.Node, source []byte) string {
	if fn := node.ChildByFieldName("function"); fn != nil {
		return b.walker.NodeText(fn, source)
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return b.walker.NodeText(nameNode, source)
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if child := node.Child(int(i)); child != nil && b.walker.IsIdentifier(child) {
			return b.walker.NodeText(child, source)
		}
	}
	return ""
}

func findNodeBySpan(nodes []*sitter.Node, lineStart, lineEnd int) *sitter.Node {
	for _, n := range nodes {
		if int(n.StartPoint().Row)+1 == lineStart && int(n.EndPoint().Row)+1 == lineEnd {
			return n
		}
	}
	return nil
}
