package indexing

import (
	"path/filepath"
	"strings"

	"github.com/codesense-dev/codesense/domain/symbol"
)

// ImportGraph is the per-(repo,commit) mapping file -> (name -> target
// symbol), built once per build by BuildImportGraph and consulted by the
// call-graph builder (C8) ahead of its global last-resort scan.
type ImportGraph map[string]map[string]symbol.Symbol

// Lookup returns the symbol file binds name to via one of its imports.
func (g ImportGraph) Lookup(file, name string) (symbol.Symbol, bool) {
	bindings, ok := g[file]
	if !ok {
		return symbol.Symbol{}, false
	}
	sym, ok := bindings[name]
	return sym, ok
}

// BuildImportGraph resolves every import symbol's module string to a known
// file in the partition and binds the names it imports to their target
// symbols. knownFiles is the full set of file paths parsed for this (repo,
// commit); symbolsByFile holds every symbol (of any kind) declared in each
// of those files. Unresolvable (external) imports are silently skipped,
// and bare `import X` statements (is_from_import == false) never bind a
// name.
func BuildImportGraph(knownFiles map[string]struct{}, symbolsByFile map[string][]symbol.Symbol, importsByFile map[string][]symbol.Symbol) ImportGraph {
	graph := make(ImportGraph, len(importsByFile))

	for file, imports := range importsByFile {
		bindings := make(map[string]symbol.Symbol)
		for _, imp := range imports {
			lang, _ := imp.ExtraMetadata()["language"].(string)
			isFrom, _ := imp.ExtraMetadata()["is_from_import"].(bool)
			if !isFrom {
				continue
			}

			targetPath, ok := resolveModulePath(lang, imp.Name(), file, knownFiles)
			if !ok {
				continue
			}

			names, _ := imp.ExtraMetadata()["imported_names"].([]string)
			targetSymbols := symbolsByFile[targetPath]
			for _, name := range names {
				if sym, found := findByNameThenSuffix(targetSymbols, name); found {
					bindings[name] = sym
				}
			}
		}
		if len(bindings) > 0 {
			graph[file] = bindings
		}
	}

	return graph
}

func findByNameThenSuffix(symbols []symbol.Symbol, name string) (symbol.Symbol, bool) {
	for _, s := range symbols {
		if s.Name() == name {
			return s, true
		}
	}
	suffix := "." + name
	for _, s := range symbols {
		if strings.HasSuffix(s.QualifiedName(), suffix) {
			return s, true
		}
	}
	return symbol.Symbol{}, false
}

func resolveModulePath(lang, module, fromFile string, known map[string]struct{}) (string, bool) {
	switch lang {
	case "python":
		return resolvePythonModule(module, fromFile, known)
	case "javascript", "typescript", "tsx":
		return resolveJSModule(module, fromFile, known)
	default:
		return resolveGenericModule(module, fromFile, known)
	}
}

// resolvePythonModule implements Python's import resolution rule: a
// dotted module resolves to a/b/c.py, falling back to a/b/c/__init__.py;
// N leading dots ascend N-1 directories from the importing file's
// directory before resolving the remainder.
func resolvePythonModule(module, fromFile string, known map[string]struct{}) (string, bool) {
	dir := filepath.Dir(fromFile)

	base := ""
	rest := module
	if strings.HasPrefix(module, ".") {
		dots := 0
		for dots < len(module) && module[dots] == '.' {
			dots++
		}
		rest = module[dots:]
		ascend := dots - 1
		base = dir
		for i := 0; i < ascend; i++ {
			base = filepath.Dir(base)
		}
	}

	var joined string
	switch {
	case rest == "":
		joined = base
	case base == "" || base == ".":
		joined = filepath.Join(strings.Split(rest, ".")...)
	default:
		joined = filepath.Join(append([]string{base}, strings.Split(rest, ".")...)...)
	}

	candidates := []string{joined + ".py", filepath.Join(joined, "__init__.py")}
	for _, c := range candidates {
		c = filepath.ToSlash(c)
		if _, ok := known[c]; ok {
			return c, true
		}
	}
	return "", false
}

// resolveJSModule implements JS/TS's import resolution rule: only
// relative specifiers (./, ../) are resolved; bare specifiers are treated
// as external packages and skipped.
func resolveJSModule(module, fromFile string, known map[string]struct{}) (string, bool) {
	if !strings.HasPrefix(module, "./") && !strings.HasPrefix(module, "../") {
		return "", false
	}

	dir := filepath.Dir(fromFile)
	joined := filepath.ToSlash(filepath.Join(dir, module))

	for _, ext := range []string{".js", ".ts", ".tsx", ".jsx"} {
		if c := joined + ext; isKnown(c, known) {
			return c, true
		}
	}
	for _, idx := range []string{"/index.js", "/index.ts"} {
		if c := joined + idx; isKnown(c, known) {
			return c, true
		}
	}
	return "", false
}

// resolveGenericModule is a best-effort fallback for languages with no
// dedicated resolution rule (Go, Java, C/C++, Rust, C#): it tries the
// module string itself, then joined against the importing file's
// directory, as a direct path into the known file set. This generalizes
// beyond the Python/JS worked cases without inventing new semantics; it
// simply reuses "is this path known" as the only signal available.
func resolveGenericModule(module, fromFile string, known map[string]struct{}) (string, bool) {
	dir := filepath.Dir(fromFile)
	for _, c := range []string{filepath.ToSlash(module), filepath.ToSlash(filepath.Join(dir, module))} {
		if isKnown(c, known) {
			return c, true
		}
	}
	return "", false
}

func isKnown(path string, known map[string]struct{}) bool {
	_, ok := known[path]
	return ok
}

// GlobalNameIndex is the call-graph builder's last-resort, whole-partition
// lookup by simple name: a deterministic first-match-wins index over every
// function/method/class symbol in the partition.
type GlobalNameIndex struct {
	byName map[string][]symbol.Symbol
}

// NewGlobalNameIndex indexes every function/method/class symbol in a
// (repo, commit) partition by its simple name.
func NewGlobalNameIndex(symbols []symbol.Symbol) GlobalNameIndex {
	idx := GlobalNameIndex{byName: make(map[string][]symbol.Symbol)}
	for _, s := range symbols {
		switch s.SymbolType() {
		case symbol.KindFunction, symbol.KindMethod, symbol.KindClass:
		default:
			continue
		}
		idx.byName[s.Name()] = append(idx.byName[s.Name()], s)
	}
	return idx
}

// Find returns the first-indexed symbol with the given simple name.
func (g GlobalNameIndex) Find(name string) (symbol.Symbol, bool) {
	matches, ok := g.byName[name]
	if !ok || len(matches) == 0 {
		return symbol.Symbol{}, false
	}
	return matches[0], true
}
