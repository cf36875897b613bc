package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesense-dev/codesense/domain/symbol"
)

func TestBuildImportGraph_ResolvesPythonFromImport(t *testing.T) {
	known := map[string]struct{}{
		"pkg/util.py": {},
		"pkg/main.py": {},
	}

	helper := symbol.New(1, "sha", symbol.KindFunction, "helper", "pkg.util.helper", "pkg/util.py", 1, 2, symbol.ScopeGlobal).WithID(10)
	symbolsByFile := map[string][]symbol.Symbol{
		"pkg/util.py": {helper},
	}

	imp := symbol.New(1, "sha", symbol.KindImport, "pkg.util", "pkg.util", "pkg/main.py", 1, 1, symbol.ScopeModule).
		WithMetadata(symbol.Metadata{
			"language":       "python",
			"is_from_import": true,
			"imported_names": []string{"helper"},
		})
	importsByFile := map[string][]symbol.Symbol{
		"pkg/main.py": {imp},
	}

	graph := BuildImportGraph(known, symbolsByFile, importsByFile)

	resolved, ok := graph.Lookup("pkg/main.py", "helper")
	require.True(t, ok)
	assert.Equal(t, int64(10), resolved.ID())
}

func TestBuildImportGraph_SkipsBareImport(t *testing.T) {
	known := map[string]struct{}{"pkg/util.py": {}}
	imp := symbol.New(1, "sha", symbol.KindImport, "util", "util", "pkg/main.py", 1, 1, symbol.ScopeModule).
		WithMetadata(symbol.Metadata{"language": "python", "is_from_import": false})
	importsByFile := map[string][]symbol.Symbol{"pkg/main.py": {imp}}

	graph := BuildImportGraph(known, map[string][]symbol.Symbol{}, importsByFile)
	_, ok := graph.Lookup("pkg/main.py", "util")
	assert.False(t, ok)
}

func TestBuildImportGraph_ExternalJSSpecifierSkipped(t *testing.T) {
	known := map[string]struct{}{"src/app.ts": {}}
	imp := symbol.New(1, "sha", symbol.KindImport, "react", "react", "src/app.ts", 1, 1, symbol.ScopeModule).
		WithMetadata(symbol.Metadata{"language": "typescript", "is_from_import": true, "imported_names": []string{"useState"}})
	importsByFile := map[string][]symbol.Symbol{"src/app.ts": {imp}}

	graph := BuildImportGraph(known, map[string][]symbol.Symbol{}, importsByFile)
	assert.Empty(t, graph)
}

func TestGlobalNameIndex_FindsBySimpleName(t *testing.T) {
	fn := symbol.New(1, "sha", symbol.KindFunction, "authenticate", "pkg.auth.authenticate", "pkg/auth.py", 1, 5, symbol.ScopeGlobal).WithID(99)
	idx := NewGlobalNameIndex([]symbol.Symbol{fn})

	found, ok := idx.Find("authenticate")
	require.True(t, ok)
	assert.Equal(t, int64(99), found.ID())

	_, ok = idx.Find("missing")
	assert.False(t, ok)
}
