package query

import (
	"regexp"
	"strings"
	"unicode"
)

// staticPattern pairs a regular expression against a static-query intent
// name. The first capture group, if present, is taken as the query's
// primary entity. Patterns are evaluated top-to-bottom; first match wins.
type staticPattern struct {
	re     *regexp.Regexp
	intent string
}

// staticPatterns is the closed, ordered table of structural query shapes
// recognized directly from question text.
var staticPatterns = []staticPattern{
	{regexp.MustCompile(`(?i)(?:who|what)\s+calls\s+['"]?(\w+)['"]?`), "find_callers"},
	{regexp.MustCompile(`(?i)who\s+is\s+called\s+by\s+['"]?(\w+)['"]?`), "find_callees"},
	{regexp.MustCompile(`(?i)what\s+does\s+['"]?(\w+)['"]?\s+call`), "find_callees"},
	{regexp.MustCompile(`(?i)(?:path|route)\s+from\s+['"]?(\w+)['"]?\s+to\s+['"]?(\w+)['"]?`), "find_call_path"},
	{regexp.MustCompile(`(?i)what\s+can\s+['"]?(\w+)['"]?\s+reach`), "find_reachable"},
	{regexp.MustCompile(`(?i)find\s+(?:the\s+)?(?:symbol|function|class|method)\s+['"]?(\w+)['"]?`), "find_symbol"},
	{regexp.MustCompile(`(?i)list\s+(?:all\s+)?(functions|methods|classes|imports|variables|constants)`), "list_symbols"},
	{regexp.MustCompile(`(?i)what\s+does\s+['"]?([\w./\-]+)['"]?\s+import`), "find_imports"},
	{regexp.MustCompile(`(?i)what\s+depends\s+on\s+['"]?([\w./\-]+)['"]?`), "find_importers"},
	{regexp.MustCompile(`(?i)who\s+imports\s+['"]?([\w./\-]+)['"]?`), "find_importers"},
	{regexp.MustCompile(`(?i)(?:dependencies|deps)\s+of\s+['"]?([\w./\-]+)['"]?`), "find_dependencies"},
}

// hybridKeywords trigger a hybrid classification when no static pattern
// matched and one of these phrases is present.
var hybridKeywords = []string{
	"where is", "how does", "architecture", "flow", "mechanism",
}

// semanticKeywords trigger a semantic classification when neither a static
// pattern nor a hybrid keyword matched.
var semanticKeywords = []string{
	"how", "why", "explain", "describe",
}

// stopwords are excluded from entity extraction.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "does": {}, "do": {},
	"what": {}, "who": {}, "how": {}, "why": {}, "where": {}, "when": {},
	"calls": {}, "called": {}, "call": {}, "by": {}, "to": {}, "of": {},
	"and": {}, "or": {}, "in": {}, "on": {}, "for": {}, "with": {}, "this": {},
	"that": {}, "it": {}, "can": {}, "reach": {}, "import": {}, "imports": {},
	"find": {}, "list": {}, "all": {}, "path": {}, "route": {}, "from": {},
	"depends": {}, "dependencies": {}, "deps": {}, "does it": {},
}

// Classify deterministically classifies a free-text question into a
// QueryIntent.
func Classify(text string) Intent {
	for _, p := range staticPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var entities []string
		for _, g := range m[1:] {
			if g != "" {
				entities = append(entities, g)
			}
		}
		if len(entities) == 0 {
			entities = ExtractEntities(text)
		}
		return Intent{
			QueryType:     TypeStatic,
			PrimaryIntent: p.intent,
			Entities:      entities,
			Confidence:    0.9,
		}
	}

	lower := strings.ToLower(text)

	for _, kw := range hybridKeywords {
		if strings.Contains(lower, kw) {
			return Intent{
				QueryType:     TypeHybrid,
				PrimaryIntent: "hybrid_analysis",
				Entities:      ExtractEntities(text),
				Confidence:    0.7,
			}
		}
	}

	for _, kw := range semanticKeywords {
		if containsWord(lower, kw) {
			return Intent{
				QueryType:     TypeSemantic,
				PrimaryIntent: "semantic_search",
				Entities:      ExtractEntities(text),
				Confidence:    0.8,
			}
		}
	}

	return Intent{
		QueryType:     TypeHybrid,
		PrimaryIntent: "general_query",
		Entities:      ExtractEntities(text),
		Confidence:    0.5,
	}
}

func containsWord(haystack, word string) bool {
	for _, w := range strings.Fields(haystack) {
		w = strings.Trim(w, ".,!?;:'\"")
		if w == word {
			return true
		}
	}
	return false
}

var (
	quotedRe     = regexp.MustCompile(`['"]([^'"]+)['"]`)
	identifierRe = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
)

// ExtractEntities pulls candidate symbol/file names out of free text:
// quoted strings first, then camelCase/snake_case-looking identifiers,
// filtered against a stopword list.
func ExtractEntities(text string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	for _, id := range identifierRe.FindAllString(text, -1) {
		lower := strings.ToLower(id)
		if _, stop := stopwords[lower]; stop {
			continue
		}
		if !looksLikeIdentifier(id) {
			continue
		}
		add(id)
	}

	return out
}

// looksLikeIdentifier reports whether id is camelCase, snake_case, or
// otherwise mixed-case/underscored — i.e. not just an ordinary English word.
func looksLikeIdentifier(id string) bool {
	if strings.Contains(id, "_") {
		return true
	}
	runes := []rune(id)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			return true // interior capital => camelCase/PascalCase
		}
	}
	allUpper := len(runes) > 1
	for _, r := range runes {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			allUpper = false
		}
	}
	return allUpper
}
