package parsing

import (
	"bytes"
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// binarySniffWindow is how many leading bytes are checked for a NUL byte to
// heuristically detect binary content before handing the source to
// tree-sitter.
const binarySniffWindow = 8000

// Parser wraps tree-sitter parsing behind the language registry: unknown
// languages and binary content both yield a nil tree rather than an error,
// so a parse failure never aborts the ingestion pipeline.
type Parser struct {
	registry Registry
}

// NewParser creates a Parser over the given language registry.
func NewParser(registry Registry) Parser {
	return Parser{registry: registry}
}

// Parse parses source as langName. It returns a nil tree, not an error, when
// langName is unsupported, the content looks binary, or tree-sitter itself
// fails to produce a root node.
func (p Parser) Parse(ctx context.Context, langName string, source []byte) (*sitter.Tree, error) {
	if looksBinary(source) {
		return nil, nil
	}

	lang, ok := p.registry.ByName(langName)
	if !ok {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang.SitterLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, nil
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, nil
	}
	return tree, nil
}

func looksBinary(source []byte) bool {
	window := source
	if len(window) > binarySniffWindow {
		window = window[:binarySniffWindow]
	}
	return bytes.IndexByte(window, 0) != -1
}
