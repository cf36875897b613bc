package indexing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
)

const goSample = `package widget

import (
	"fmt"
	ctx "context"
)

const MAX_RETRIES = 3

type Widget struct {
	Name string
}

func (w *Widget) Render() string {
	return fmt.Sprintf("widget:%s", w.Name)
}

func NewWidget(name string) *Widget {
	w := &Widget{Name: name}
	return w
}
`

func TestIndexer_ExtractGoFile(t *testing.T) {
	registry := parsing.NewRegistry()
	parser := parsing.NewParser(registry)
	tree, err := parser.Parse(context.Background(), "go", []byte(goSample))
	require.NoError(t, err)
	require.NotNil(t, tree)

	ix := NewIndexer(registry)
	fs := ix.Extract(1, "deadbeef", "pkg/widget.go", "go", tree, []byte(goSample))

	require.Len(t, fs.Classes, 1)
	assert.Equal(t, "Widget", fs.Classes[0].Name())
	assert.Equal(t, symbol.KindClass, fs.Classes[0].SymbolType())

	require.Len(t, fs.Functions, 2)
	var render, newWidget symbol.Symbol
	for _, fn := range fs.Functions {
		switch fn.Name() {
		case "Render":
			render = fn
		case "NewWidget":
			newWidget = fn
		}
	}
	assert.Equal(t, symbol.KindMethod, render.SymbolType())
	assert.Equal(t, symbol.ScopeClass, render.Scope())
	assert.Contains(t, render.QualifiedName(), "Widget.Render")

	assert.Equal(t, symbol.KindFunction, newWidget.SymbolType())
	assert.Equal(t, symbol.ScopeGlobal, newWidget.Scope())

	require.Len(t, fs.Imports, 2)
	modules := map[string]bool{}
	for _, imp := range fs.Imports {
		modules[imp.Name()] = true
	}
	assert.True(t, modules["fmt"])
	assert.True(t, modules["context"])

	require.Len(t, fs.Variables, 1)
	assert.Equal(t, symbol.KindConstant, fs.Variables[0].SymbolType())
	assert.Equal(t, "MAX_RETRIES", fs.Variables[0].Name())
}

func TestResolveMethodParents_StampsParentFromPersistedClassID(t *testing.T) {
	classes := []symbol.Symbol{
		symbol.New(1, "sha", symbol.KindClass, "Widget", "pkg.Widget", "pkg/widget.go", 1, 3, symbol.ScopeModule).WithID(42),
	}
	functions := []symbol.Symbol{
		symbol.New(1, "sha", symbol.KindMethod, "Render", "pkg.Widget.Render", "pkg/widget.go", 5, 7, symbol.ScopeClass).
			WithMetadata(symbol.Metadata{"declaring_class": "Widget"}),
		symbol.New(1, "sha", symbol.KindFunction, "NewWidget", "pkg.NewWidget", "pkg/widget.go", 9, 12, symbol.ScopeGlobal),
	}

	resolved := ResolveMethodParents(classes, functions)
	require.Len(t, resolved, 2)
	assert.Equal(t, int64(42), resolved[0].ParentSymbolID())
	assert.False(t, resolved[1].HasParent())
}

func TestParseImportText_Python(t *testing.T) {
	info := parseImportText("python", "from ..pkg.util import helper as h, other")
	assert.Equal(t, "..pkg.util", info.module)
	assert.True(t, info.isFrom)
	assert.ElementsMatch(t, []string{"helper", "other"}, info.names)
}

func TestParseImportText_JSRelative(t *testing.T) {
	info := parseImportText("javascript", `import { foo, bar as baz } from "./util"`)
	assert.Equal(t, "./util", info.module)
	assert.True(t, info.isFrom)
	assert.ElementsMatch(t, []string{"foo", "bar"}, info.names)
}
