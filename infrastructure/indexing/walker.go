// Package indexing implements the symbol indexer (C6), import resolver (C7)
// and call-graph builder (C8): the three AST-consuming stages that turn a
// parsed tree-sitter tree into CodeSymbol and SymbolRelationship rows.
package indexing

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Walker provides the small set of AST traversal utilities the indexing
// stages need: breadth-first walks, first-identifier lookup, and node text
// extraction.
type Walker struct{}

// NewWalker creates a Walker.
func NewWalker() Walker { return Walker{} }

// WalkFunc is called for each node during traversal. Returning false stops
// the walk early.
type WalkFunc func(node *sitter.Node) bool

// Walk performs a breadth-first traversal of the AST rooted at root.
func (w Walker) Walk(root *sitter.Node, fn WalkFunc) {
	if root == nil {
		return
	}

	queue := []*sitter.Node{root}
	visited := make(map[uintptr]struct{})

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		id := current.ID()
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		if !fn(current) {
			return
		}

		for i := uint32(0); i < current.ChildCount(); i++ {
			if child := current.Child(int(i)); child != nil {
				queue = append(queue, child)
			}
		}
	}
}

// CollectNodes returns every node under root whose type is in nodeTypes.
func (w Walker) CollectNodes(root *sitter.Node, nodeTypes []string) []*sitter.Node {
	typeSet := make(map[string]struct{}, len(nodeTypes))
	for _, t := range nodeTypes {
		typeSet[t] = struct{}{}
	}

	var nodes []*sitter.Node
	w.Walk(root, func(node *sitter.Node) bool {
		if _, ok := typeSet[node.Type()]; ok {
			nodes = append(nodes, node)
		}
		return true
	})
	return nodes
}

// CollectDescendants returns every node under root, root itself included,
// whose type is nodeType.
func (w Walker) CollectDescendants(root *sitter.Node, nodeType string) []*sitter.Node {
	var nodes []*sitter.Node
	w.Walk(root, func(node *sitter.Node) bool {
		if node.Type() == nodeType {
			nodes = append(nodes, node)
		}
		return true
	})
	return nodes
}

// NodeText extracts the source text spanned by node.
func (w Walker) NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(source)) || end > uint32(len(source)) || start >= end {
		return ""
	}
	return string(source[start:end])
}

// Ancestors walks node's parent chain, calling fn for each ancestor until fn
// returns false or the root is reached.
func (w Walker) Ancestors(node *sitter.Node, fn func(n *sitter.Node) bool) {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if !fn(p) {
			return
		}
	}
}

// IsIdentifier reports whether node is one of tree-sitter's common
// identifier node types.
func (w Walker) IsIdentifier(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "identifier", "type_identifier", "field_identifier", "property_identifier", "shorthand_property_identifier":
		return true
	default:
		return false
	}
}

// FirstIdentifier returns the text of the first identifier-like descendant
// of node in breadth-first order, or "" if none exists.
func (w Walker) FirstIdentifier(node *sitter.Node, source []byte) string {
	var name string
	w.Walk(node, func(n *sitter.Node) bool {
		if n != node && w.IsIdentifier(n) {
			name = w.NodeText(n, source)
			return false
		}
		return true
	})
	return name
}
