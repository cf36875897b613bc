// Package symbol holds the CodeSymbol value type: a static declaration
// extracted from source by the symbol indexer (C6).
package symbol

// Kind enumerates the static declaration kinds the indexer emits.
type Kind string

// Kind values, closed set per the data model.
const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
	KindImport   Kind = "import"
	KindVariable Kind = "variable"
	KindConstant Kind = "constant"
)

// Scope enumerates where a symbol is visible.
type Scope string

// Scope values.
const (
	ScopeGlobal   Scope = "global"
	ScopeClass    Scope = "class"
	ScopeFunction Scope = "function"
	ScopeModule   Scope = "module"
)

// Metadata is the polymorphic, per-kind free-form attribute bag carried on
// every symbol row. It is intentionally a flat map rather than a subclass
// hierarchy: each kind reads the keys relevant to it and ignores the rest.
// Recognized keys: base_classes ([]string), imported_names ([]string),
// alias (string), is_from_import (bool), parameters ([]string),
// decorators ([]string), is_async (bool), is_constant (bool), language (string).
type Metadata map[string]any

// Clone returns a shallow copy of m, safe to mutate independently.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Language returns the "language" key, or "" if absent.
func (m Metadata) Language() string {
	v, _ := m["language"].(string)
	return v
}

// Symbol is an immutable value object identifying a static declaration
// within a (repo_id, commit_sha) partition.
type Symbol struct {
	id             int64
	repoID         int64
	commitSHA      string
	symbolType     Kind
	name           string
	qualifiedName  string
	signature      string
	filePath       string
	lineStart      int
	lineEnd        int
	scope          Scope
	parentSymbolID int64 // 0 means no parent
	extraMetadata  Metadata
}

// New creates a Symbol that has not yet been persisted (id == 0).
func New(
	repoID int64,
	commitSHA string,
	symbolType Kind,
	name, qualifiedName string,
	filePath string,
	lineStart, lineEnd int,
	scope Scope,
) Symbol {
	return Symbol{
		repoID:        repoID,
		commitSHA:     commitSHA,
		symbolType:    symbolType,
		name:          name,
		qualifiedName: qualifiedName,
		filePath:      filePath,
		lineStart:     lineStart,
		lineEnd:       lineEnd,
		scope:         scope,
		extraMetadata: Metadata{},
	}
}

// Reconstruct recreates a Symbol from persistence.
func Reconstruct(
	id, repoID int64,
	commitSHA string,
	symbolType Kind,
	name, qualifiedName, signature, filePath string,
	lineStart, lineEnd int,
	scope Scope,
	parentSymbolID int64,
	extraMetadata Metadata,
) Symbol {
	return Symbol{
		id:             id,
		repoID:         repoID,
		commitSHA:      commitSHA,
		symbolType:     symbolType,
		name:           name,
		qualifiedName:  qualifiedName,
		signature:      signature,
		filePath:       filePath,
		lineStart:      lineStart,
		lineEnd:        lineEnd,
		scope:          scope,
		parentSymbolID: parentSymbolID,
		extraMetadata:  extraMetadata,
	}
}

// ID returns the database identifier, or 0 if not yet persisted.
func (s Symbol) ID() int64 { return s.id }

// RepoID returns the owning repository id.
func (s Symbol) RepoID() int64 { return s.repoID }

// CommitSHA returns the commit this symbol was extracted at.
func (s Symbol) CommitSHA() string { return s.commitSHA }

// SymbolType returns the declaration kind.
func (s Symbol) SymbolType() Kind { return s.symbolType }

// Name returns the simple (unqualified) name.
func (s Symbol) Name() string { return s.name }

// QualifiedName returns the dotted path unique within the file.
func (s Symbol) QualifiedName() string { return s.qualifiedName }

// Signature returns the function/method signature, if applicable.
func (s Symbol) Signature() string { return s.signature }

// FilePath returns the file-relative path the symbol was declared in.
func (s Symbol) FilePath() string { return s.filePath }

// LineStart returns the 1-based inclusive start line.
func (s Symbol) LineStart() int { return s.lineStart }

// LineEnd returns the 1-based inclusive end line.
func (s Symbol) LineEnd() int { return s.lineEnd }

// Scope returns the visibility scope.
func (s Symbol) Scope() Scope { return s.scope }

// ParentSymbolID returns the owning class/function symbol id, or 0 if none.
func (s Symbol) ParentSymbolID() int64 { return s.parentSymbolID }

// HasParent reports whether ParentSymbolID is set.
func (s Symbol) HasParent() bool { return s.parentSymbolID != 0 }

// ExtraMetadata returns the per-kind attribute bag.
func (s Symbol) ExtraMetadata() Metadata { return s.extraMetadata }

// WithID returns a copy with the given id.
func (s Symbol) WithID(id int64) Symbol {
	s.id = id
	return s
}

// WithParent returns a copy whose parent is the given class/function symbol.
func (s Symbol) WithParent(parentID int64) Symbol {
	s.parentSymbolID = parentID
	return s
}

// WithSignature returns a copy carrying the given signature string.
func (s Symbol) WithSignature(sig string) Symbol {
	s.signature = sig
	return s
}

// WithMetadata returns a copy with the given metadata bag attached.
func (s Symbol) WithMetadata(md Metadata) Symbol {
	s.extraMetadata = md
	return s
}

// IsConstant reports whether this variable symbol is ALL_CAPS-heuristic constant.
func (s Symbol) IsConstant() bool { return s.symbolType == KindConstant }
