// Package parsing implements the language detector and AST parser (C5):
// tree-sitter grammar wiring plus per-language node-type tables the symbol
// indexer (C6), import resolver (C7), and call-graph builder (C8) key
// their tree-sitter node matching off of.
package parsing

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is one supported programming language's grammar and node-type
// vocabulary.
type Language struct {
	name      string
	extension string
	language  *sitter.Language
	nodes     NodeTypes
}

// Name returns the language name (e.g. "python").
func (l Language) Name() string { return l.name }

// Extension returns the canonical file extension (e.g. ".py").
func (l Language) Extension() string { return l.extension }

// SitterLanguage returns the tree-sitter grammar.
func (l Language) SitterLanguage() *sitter.Language { return l.language }

// Nodes returns the node-type vocabulary for symbol/call extraction.
func (l Language) Nodes() NodeTypes { return l.nodes }

// NodeTypes names the AST node types that carry function/method/class/
// import declarations and call expressions in one language's grammar.
type NodeTypes struct {
	FunctionNodes []string
	MethodNodes   []string
	ClassNodes    []string
	ImportNodes   []string
	CallNode      string
	InheritsField string // field name on a class node holding its base classes
	NameField     string // tree-sitter field name carrying the declared identifier
}

// IsFunctionNode reports whether nodeType declares a function.
func (n NodeTypes) IsFunctionNode(nodeType string) bool { return contains(n.FunctionNodes, nodeType) }

// IsMethodNode reports whether nodeType declares a method.
func (n NodeTypes) IsMethodNode(nodeType string) bool { return contains(n.MethodNodes, nodeType) }

// IsClassNode reports whether nodeType declares a class/struct/interface.
func (n NodeTypes) IsClassNode(nodeType string) bool { return contains(n.ClassNodes, nodeType) }

// IsImportNode reports whether nodeType is an import/use statement.
func (n NodeTypes) IsImportNode(nodeType string) bool { return contains(n.ImportNodes, nodeType) }

func contains(types []string, t string) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// Registry holds every supported language, indexed by name and extension.
type Registry struct {
	byName map[string]Language
	byExt  map[string]Language
}

// NewRegistry builds the Registry of languages this module can parse. The
// set matches the grammars present in the example corpus's go.mod
// (python/go/java/c/cpp/rust/javascript/typescript/tsx/csharp); ruby/php/
// swift/kotlin bindings are not vendored anywhere in the retrieved pack and
// are intentionally left unsupported rather than invented.
func NewRegistry() Registry {
	langs := []Language{
		pythonLang(), goLang(), javaLang(), cLang(), cppLang(),
		rustLang(), javascriptLang(), typescriptLang(), tsxLang(), csharpLang(),
	}
	r := Registry{byName: make(map[string]Language, len(langs)), byExt: make(map[string]Language, len(langs))}
	for _, l := range langs {
		r.byName[l.name] = l
		r.byExt[l.extension] = l
	}
	return r
}

// ByName looks up a language by name.
func (r Registry) ByName(name string) (Language, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// ByExtension looks up a language by file extension (including the dot).
func (r Registry) ByExtension(ext string) (Language, bool) {
	l, ok := r.byExt[ext]
	return l, ok
}

func pythonLang() Language {
	return Language{
		name: "python", extension: ".py", language: python.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_definition"},
			ClassNodes:    []string{"class_definition"},
			ImportNodes:   []string{"import_statement", "import_from_statement"},
			CallNode:      "call",
			InheritsField: "superclasses",
			NameField:     "name",
		},
	}
}

func goLang() Language {
	return Language{
		name: "go", extension: ".go", language: golang.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_declaration"},
			MethodNodes:   []string{"method_declaration"},
			// type_spec, not type_declaration: a type_declaration node can
			// wrap a parenthesized group of specs and carries no "name"
			// field itself, while each type_spec has "name"/"type" fields
			// directly, covering structs, interfaces, and plain aliases.
			ClassNodes: []string{"type_spec"},
			// import_spec only: an import_declaration always wraps one or
			// more import_spec nodes (parenthesized or not), so collecting
			// both would double-count every import.
			ImportNodes: []string{"import_spec"},
			CallNode:    "call_expression",
			NameField:   "name",
		},
	}
}

func javaLang() Language {
	return Language{
		name: "java", extension: ".java", language: java.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"method_declaration", "constructor_declaration"},
			ClassNodes:    []string{"class_declaration", "interface_declaration", "enum_declaration"},
			ImportNodes:   []string{"import_declaration"},
			CallNode:      "method_invocation",
			InheritsField: "superclass",
			NameField:     "name",
		},
	}
}

func cLang() Language {
	return Language{
		name: "c", extension: ".c", language: c.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_definition"},
			ClassNodes:    []string{"struct_specifier", "union_specifier", "enum_specifier"},
			ImportNodes:   []string{"preproc_include"},
			CallNode:      "call_expression",
			NameField:     "declarator",
		},
	}
}

func cppLang() Language {
	return Language{
		name: "cpp", extension: ".cpp", language: cpp.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_definition"},
			ClassNodes:    []string{"class_specifier", "struct_specifier"},
			ImportNodes:   []string{"preproc_include", "using_declaration"},
			CallNode:      "call_expression",
			InheritsField: "base_class_clause",
			NameField:     "declarator",
		},
	}
}

func rustLang() Language {
	return Language{
		name: "rust", extension: ".rs", language: rust.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_item"},
			MethodNodes:   []string{"impl_item"},
			ClassNodes:    []string{"struct_item", "enum_item"},
			ImportNodes:   []string{"use_declaration"},
			CallNode:      "call_expression",
			NameField:     "name",
		},
	}
}

func javascriptLang() Language {
	return Language{
		name: "javascript", extension: ".js", language: javascript.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_declaration", "arrow_function", "function_expression"},
			MethodNodes:   []string{"method_definition"},
			ClassNodes:    []string{"class_declaration"},
			ImportNodes:   []string{"import_statement"},
			CallNode:      "call_expression",
			InheritsField: "superclass",
			NameField:     "name",
		},
	}
}

func typescriptLang() Language {
	return Language{
		name: "typescript", extension: ".ts", language: typescript.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"function_declaration", "arrow_function", "function_expression"},
			MethodNodes:   []string{"method_definition"},
			ClassNodes:    []string{"class_declaration"},
			ImportNodes:   []string{"import_statement"},
			CallNode:      "call_expression",
			InheritsField: "superclass",
			NameField:     "name",
		},
	}
}

func tsxLang() Language {
	l := typescriptLang()
	l.name = "tsx"
	l.extension = ".tsx"
	l.language = tsx.GetLanguage()
	return l
}

func csharpLang() Language {
	return Language{
		name: "csharp", extension: ".cs", language: csharp.GetLanguage(),
		nodes: NodeTypes{
			FunctionNodes: []string{"method_declaration", "local_function_statement"},
			MethodNodes:   []string{"constructor_declaration"},
			ClassNodes:    []string{"class_declaration", "struct_declaration", "interface_declaration", "enum_declaration"},
			ImportNodes:   []string{"using_directive"},
			CallNode:      "invocation_expression",
			InheritsField: "bases",
			NameField:     "name",
		},
	}
}
