package indexing

import (
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
)

// variableNodeTypes lists the module-level variable/constant declaration
// node types this indexer recognizes, per language. Languages without a
// clean top-level variable construct (C, C++, Java, C#, where declarations
// outside a class/function are rare or grammar-ambiguous) are intentionally
// left out rather than modeled imprecisely.
var variableNodeTypes = map[string][]string{
	"python":     {"assignment"},
	"go":         {"var_declaration", "const_declaration"},
	"javascript": {"lexical_declaration", "variable_declaration"},
	"typescript": {"lexical_declaration", "variable_declaration"},
	"tsx":        {"lexical_declaration", "variable_declaration"},
	"rust":       {"static_item", "const_item"},
}

var allCapsName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
var identifierToken = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`)

// Indexer is the symbol indexer (C6): it walks one file's parsed AST in
// two passes, emitting CodeSymbol values for its declarations.
type Indexer struct {
	registry parsing.Registry
	walker   Walker
}

// NewIndexer creates an Indexer over the given language registry.
func NewIndexer(registry parsing.Registry) Indexer {
	return Indexer{registry: registry, walker: NewWalker()}
}

// FileSymbols groups one file's extraction by pass. Classes must be
// persisted first (to obtain ids) before ResolveMethodParents can stamp
// parent_symbol_id onto Functions, hence the "classes first" ordering.
type FileSymbols struct {
	Classes   []symbol.Symbol
	Functions []symbol.Symbol
	Imports   []symbol.Symbol
	Variables []symbol.Symbol
}

// Extract walks tree and emits every symbol declared in filePath. A nil
// tree or unrecognized language yields a zero FileSymbols, consistent with
// the parser's "never abort the pipeline" contract.
func (ix Indexer) Extract(repoID int64, commitSHA, filePath, langName string, tree *sitter.Tree, source []byte) FileSymbols {
	if tree == nil {
		return FileSymbols{}
	}
	lang, ok := ix.registry.ByName(langName)
	if !ok {
		return FileSymbols{}
	}

	root := tree.RootNode()
	nt := lang.Nodes()
	modulePath := buildModulePath(filePath, lang.Extension())

	var fs FileSymbols
	fs.Classes = ix.extractClasses(repoID, commitSHA, filePath, langName, modulePath, nt, root, source)
	fs.Functions = ix.extractFunctions(repoID, commitSHA, filePath, langName, modulePath, nt, root, source)
	fs.Imports = ix.extractImports(repoID, commitSHA, filePath, langName, nt, root, source)
	fs.Variables = ix.extractVariables(repoID, commitSHA, filePath, langName, modulePath, root, source)
	return fs
}

func (ix Indexer) extractClasses(repoID int64, commitSHA, filePath, langName, modulePath string, nt parsing.NodeTypes, root *sitter.Node, source []byte) []symbol.Symbol {
	nodes := ix.walker.CollectNodes(root, nt.ClassNodes)
	out := make([]symbol.Symbol, 0, len(nodes))

	for _, node := range nodes {
		name := ix.declarationName(nt, node, source)
		if name == "" {
			continue
		}

		md := symbol.Metadata{"language": langName}
		if nt.InheritsField != "" {
			if baseNode := node.ChildByFieldName(nt.InheritsField); baseNode != nil {
				if bases := identifierToken.FindAllString(ix.walker.NodeText(baseNode, source), -1); len(bases) > 0 {
					md["base_classes"] = bases
				}
			}
		}

		startLine, endLine := lineSpan(node)
		sym := symbol.New(repoID, commitSHA, symbol.KindClass, name, buildQualified(modulePath, name), filePath, startLine, endLine, symbol.ScopeModule).
			WithMetadata(md)
		out = append(out, sym)
	}
	return out
}

func (ix Indexer) extractFunctions(repoID int64, commitSHA, filePath, langName, modulePath string, nt parsing.NodeTypes, root *sitter.Node, source []byte) []symbol.Symbol {
	funcTypes := append(append([]string{}, nt.FunctionNodes...), nt.MethodNodes...)
	nodes := ix.walker.CollectNodes(root, funcTypes)
	out := make([]symbol.Symbol, 0, len(nodes))

	for _, node := range nodes {
		name := ix.declarationName(nt, node, source)
		if name == "" {
			continue
		}

		declaringClass := ""
		ix.walker.Ancestors(node, func(ancestor *sitter.Node) bool {
			if nt.IsClassNode(ancestor.Type()) {
				declaringClass = ix.declarationName(nt, ancestor, source)
				return false
			}
			return true
		})

		if langName == "go" && nt.IsMethodNode(node.Type()) {
			if receiver := ix.extractReceiverType(node, source); receiver != "" {
				declaringClass = receiver
			}
		}

		isMethod := nt.IsMethodNode(node.Type()) || declaringClass != ""
		kind := symbol.KindFunction
		scope := symbol.ScopeGlobal
		qualifiedBase := name
		if isMethod {
			kind = symbol.KindMethod
			scope = symbol.ScopeClass
			if declaringClass != "" {
				qualifiedBase = declaringClass + "." + name
			}
		}
		qualifiedName := buildQualified(modulePath, qualifiedBase)

		md := symbol.Metadata{"language": langName}
		if params := ix.extractParameters(node, source); len(params) > 0 {
			md["parameters"] = params
		}
		if ix.isAsync(node, source) {
			md["is_async"] = true
		}
		if decorators := ix.extractDecorators(node, source); len(decorators) > 0 {
			md["decorators"] = decorators
		}
		if declaringClass != "" {
			md["declaring_class"] = declaringClass
		}

		startLine, endLine := lineSpan(node)
		sym := symbol.New(repoID, commitSHA, kind, name, qualifiedName, filePath, startLine, endLine, scope).
			WithSignature(ix.walker.NodeText(node, source)).
			WithMetadata(md)
		out = append(out, sym)
	}
	return out
}

func (ix Indexer) extractImports(repoID int64, commitSHA, filePath, langName string, nt parsing.NodeTypes, root *sitter.Node, source []byte) []symbol.Symbol {
	nodes := ix.walker.CollectNodes(root, nt.ImportNodes)
	out := make([]symbol.Symbol, 0, len(nodes))

	for _, node := range nodes {
		text := ix.walker.NodeText(node, source)
		info := parseImportText(langName, text)
		if info.module == "" {
			continue
		}

		md := symbol.Metadata{"language": langName, "is_from_import": info.isFrom}
		if len(info.names) > 0 {
			md["imported_names"] = info.names
		}
		if info.alias != "" {
			md["alias"] = info.alias
		}

		startLine, endLine := lineSpan(node)
		sym := symbol.New(repoID, commitSHA, symbol.KindImport, info.module, info.module, filePath, startLine, endLine, symbol.ScopeModule).
			WithMetadata(md)
		out = append(out, sym)
	}
	return out
}

func (ix Indexer) extractVariables(repoID int64, commitSHA, filePath, langName, modulePath string, root *sitter.Node, source []byte) []symbol.Symbol {
	types := variableNodeTypes[langName]
	if len(types) == 0 {
		return nil
	}
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	var out []symbol.Symbol
	for i := uint32(0); i < root.ChildCount(); i++ {
		child := root.Child(int(i))
		if child == nil {
			continue
		}
		if _, ok := typeSet[child.Type()]; !ok {
			continue
		}
		for _, name := range ix.variableNames(child, source) {
			if name == "" {
				continue
			}
			kind := symbol.KindVariable
			if allCapsName.MatchString(name) {
				kind = symbol.KindConstant
			}
			md := symbol.Metadata{"language": langName, "is_constant": kind == symbol.KindConstant}
			startLine, endLine := lineSpan(child)
			sym := symbol.New(repoID, commitSHA, kind, name, buildQualified(modulePath, name), filePath, startLine, endLine, symbol.ScopeModule).
				WithMetadata(md)
			out = append(out, sym)
		}
	}
	return out
}

// variableNames extracts every declared name from a variable/const
// declaration node. Grammars nest multiple declarators (var a, b = ...) so
// this collects every "name"-field identifier it finds, falling back to the
// first identifier descendant for single-declarator forms.
func (ix Indexer) variableNames(node *sitter.Node, source []byte) []string {
	var names []string
	ix.walker.Walk(node, func(n *sitter.Node) bool {
		if n == node {
			return true
		}
		switch n.Type() {
		case "var_spec", "const_spec", "variable_declarator", "assignment", "static_item", "const_item":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				names = append(names, ix.walker.NodeText(nameNode, source))
				return true
			}
			if nameNode := n.ChildByFieldName("left"); nameNode != nil && ix.walker.IsIdentifier(nameNode) {
				names = append(names, ix.walker.NodeText(nameNode, source))
			}
		}
		return true
	})
	if len(names) == 0 {
		if name := ix.walker.FirstIdentifier(node, source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// declarationName extracts the simple name of a declaration node using the
// language's NameField, drilling into compound declarators (C/C++'s
// "declarator" field wraps an identifier alongside parameter lists) before
// falling back to the first identifier found anywhere under node.
func (ix Indexer) declarationName(nt parsing.NodeTypes, node *sitter.Node, source []byte) string {
	if nt.NameField != "" {
		if target := node.ChildByFieldName(nt.NameField); target != nil {
			if ix.walker.IsIdentifier(target) {
				return ix.walker.NodeText(target, source)
			}
			if name := ix.walker.FirstIdentifier(target, source); name != "" {
				return name
			}
		}
	}
	return ix.walker.FirstIdentifier(node, source)
}

// extractReceiverType extracts a Go method's receiver type name, qualifying
// the method as ReceiverType.MethodName.
func (ix Indexer) extractReceiverType(node *sitter.Node, source []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	var typeName string
	ix.walker.Walk(receiver, func(n *sitter.Node) bool {
		if n.Type() == "type_identifier" {
			typeName = ix.walker.NodeText(n, source)
			return false
		}
		return true
	})
	return typeName
}

func (ix Indexer) extractParameters(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []string
	for i := uint32(0); i < params.ChildCount(); i++ {
		child := params.Child(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "(", ")", ",":
			continue
		}
		if text := ix.walker.NodeText(child, source); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func (ix Indexer) isAsync(node *sitter.Node, source []byte) bool {
	if node.ChildCount() == 0 {
		return false
	}
	first := node.Child(0)
	if first == nil {
		return false
	}
	return ix.walker.NodeText(first, source) == "async"
}

func (ix Indexer) extractDecorators(node *sitter.Node, source []byte) []string {
	var decorators []string
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == "decorator" {
		decorators = append([]string{ix.walker.NodeText(prev, source)}, decorators...)
		prev = prev.PrevSibling()
	}
	return decorators
}

func lineSpan(node *sitter.Node) (int, int) {
	return int(node.StartPoint().Row) + 1, int(node.EndPoint().Row) + 1
}

func buildQualified(modulePath, name string) string {
	if modulePath == "" {
		return name
	}
	return modulePath + "." + name
}

// buildModulePath derives a dotted module path from a file-relative path
// by joining its directory segments and base name with dots.
func buildModulePath(filePath, extension string) string {
	base := filepath.Base(filePath)
	name := strings.TrimSuffix(base, extension)

	dir := filepath.Dir(filePath)
	var parts []string
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		if part != "" && part != "." && part != ".." {
			parts = append(parts, part)
		}
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

// ResolveMethodParents stamps parent_symbol_id onto methods/functions whose
// extraction recorded a "declaring_class" metadata key, once classes have
// been persisted and their ids are known. classes must be keyed by their
// simple Name(), with first-declaration-wins on a name collision within a
// file.
func ResolveMethodParents(classes, functions []symbol.Symbol) []symbol.Symbol {
	byName := make(map[string]int64, len(classes))
	for _, c := range classes {
		if _, exists := byName[c.Name()]; !exists {
			byName[c.Name()] = c.ID()
		}
	}

	out := make([]symbol.Symbol, len(functions))
	for i, fn := range functions {
		declaringClass, _ := fn.ExtraMetadata()["declaring_class"].(string)
		if declaringClass == "" {
			out[i] = fn
			continue
		}
		if id, ok := byName[declaringClass]; ok {
			out[i] = fn.WithParent(id)
			continue
		}
		out[i] = fn
	}
	return out
}

type importInfo struct {
	module string
	names  []string
	alias  string
	isFrom bool
}

// parseImportText turns the raw source text of one import/using/include
// statement into its module string, imported names, and alias. Grammars
// differ too much per language to justify a full field-by-field tree-sitter
// walk for what C7 only needs as textual inputs, so this works off the
// node's own source text with a per-language regex instead.
func parseImportText(langName, text string) importInfo {
	text = strings.TrimSpace(text)
	switch langName {
	case "python":
		return parsePythonImport(text)
	case "go":
		return parseGoImport(text)
	case "javascript", "typescript", "tsx":
		return parseJSImport(text)
	case "java":
		return parseSimpleImport(text, `^import\s+(?:static\s+)?([\w.]+)(?:\.\*)?\s*;?$`)
	case "csharp":
		return parseSimpleImport(text, `^using\s+(?:static\s+)?(?:(\w+)\s*=\s*)?([\w.]+)\s*;?$`)
	case "c", "cpp":
		return parseCInclude(text)
	case "rust":
		return parseRustUse(text)
	default:
		return importInfo{}
	}
}

var pyFromImport = regexp.MustCompile(`^from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
var pyPlainImport = regexp.MustCompile(`^import\s+(.+)$`)
var aliasSplit = regexp.MustCompile(`^([\w.]+)\s+as\s+(\w+)$`)

func parsePythonImport(text string) importInfo {
	if m := pyFromImport.FindStringSubmatch(text); m != nil {
		info := importInfo{module: m[1], isFrom: true}
		for _, part := range strings.Split(m[2], ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "*" {
				continue
			}
			if am := aliasSplit.FindStringSubmatch(part); am != nil {
				info.names = append(info.names, am[1])
				continue
			}
			info.names = append(info.names, part)
		}
		return info
	}
	if m := pyPlainImport.FindStringSubmatch(text); m != nil {
		first := strings.TrimSpace(strings.Split(m[1], ",")[0])
		if am := aliasSplit.FindStringSubmatch(first); am != nil {
			return importInfo{module: am[1], alias: am[2]}
		}
		return importInfo{module: first}
	}
	return importInfo{}
}

var goImportPath = regexp.MustCompile(`"([^"]+)"`)
var goImportAlias = regexp.MustCompile(`^(\w+)\s+"`)

func parseGoImport(text string) importInfo {
	path := goImportPath.FindStringSubmatch(text)
	if path == nil {
		return importInfo{}
	}
	info := importInfo{module: path[1]}
	if alias := goImportAlias.FindStringSubmatch(text); alias != nil {
		info.alias = alias[1]
	}
	return info
}

var jsFromClause = regexp.MustCompile(`from\s+['"]([^'"]+)['"]`)
var jsBareSpecifier = regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`)
var jsNamedImports = regexp.MustCompile(`\{([^}]*)\}`)
var jsDefaultImport = regexp.MustCompile(`^import\s+(\w+)\s*,?`)

func parseJSImport(text string) importInfo {
	module := ""
	if m := jsFromClause.FindStringSubmatch(text); m != nil {
		module = m[1]
	} else if m := jsBareSpecifier.FindStringSubmatch(text); m != nil {
		module = m[1]
	}
	if module == "" {
		return importInfo{}
	}
	info := importInfo{module: module}
	if named := jsNamedImports.FindStringSubmatch(text); named != nil {
		for _, part := range strings.Split(named[1], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			fields := strings.Fields(strings.ReplaceAll(part, " as ", " "))
			if len(fields) > 0 {
				info.names = append(info.names, fields[0])
			}
			info.isFrom = true
		}
	}
	if def := jsDefaultImport.FindStringSubmatch(text); def != nil {
		info.names = append(info.names, def[1])
	}
	return info
}

var cIncludePath = regexp.MustCompile(`[<"]([^>"]+)[>"]`)

func parseCInclude(text string) importInfo {
	m := cIncludePath.FindStringSubmatch(text)
	if m == nil {
		return importInfo{}
	}
	return importInfo{module: m[1]}
}

var rustUsePath = regexp.MustCompile(`^use\s+([\w:]+)`)
var rustUseList = regexp.MustCompile(`\{([^}]*)\}`)

func parseRustUse(text string) importInfo {
	m := rustUsePath.FindStringSubmatch(text)
	if m == nil {
		return importInfo{}
	}
	info := importInfo{module: m[1]}
	if list := rustUseList.FindStringSubmatch(text); list != nil {
		info.isFrom = true
		for _, part := range strings.Split(list[1], ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				info.names = append(info.names, part)
			}
		}
	}
	return info
}

func parseSimpleImport(text, pattern string) importInfo {
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return importInfo{}
	}
	// last capture group is always the dotted module path.
	module := m[len(m)-1]
	info := importInfo{module: module}
	if len(m) > 2 && m[1] != "" {
		info.alias = m[1]
	}
	return info
}
