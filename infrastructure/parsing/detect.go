package parsing

import (
	"path/filepath"
	"strings"
)

// filenameLanguages maps extensionless filenames to a language name, per
// SPEC_FULL.md §4.2's closed-set table.
var filenameLanguages = map[string]string{
	"Dockerfile": "dockerfile",
	"Makefile":   "make",
}

// DetectLanguage maps a file path to a language name from the closed set
// this registry supports, or "" if the file's extension/name is not
// recognized. Detection never errors: an unrecognized file is simply
// skipped by the indexer.
func DetectLanguage(path string) string {
	base := filepath.Base(path)
	if lang, ok := filenameLanguages[base]; ok {
		return lang
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".py":
		return "python"
	case ".go":
		return "go"
	case ".java":
		return "java"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".cxx", ".hpp":
		return "cpp"
	case ".rs":
		return "rust"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".cs":
		return "csharp"
	default:
		return ""
	}
}
