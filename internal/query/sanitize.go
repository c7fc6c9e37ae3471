package query

import (
	"fmt"
	"strings"
)

// ExecutionError is a runtime failure of a generated query. It is an expected
// outcome of a bad or unanswerable question, not a system fault: callers route
// it to the explanation path and return it inside a normal response.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// IsTransient returns false: re-running the same generated query cannot help
func (e *ExecutionError) IsTransient() bool {
	return false
}

// forbiddenKeywords are statement forms the guard rejects outright. The model
// is instructed to emit a single SELECT; anything that could write, change
// configuration, or reach outside the seeded table is refused before execution.
var forbiddenKeywords = []string{
	"ATTACH",
	"DETACH",
	"PRAGMA",
	"INSERT",
	"UPDATE",
	"DELETE",
	"REPLACE",
	"DROP",
	"CREATE",
	"ALTER",
	"VACUUM",
	"REINDEX",
	"ANALYZE",
}

// StripFences removes surrounding markdown code-fence markers from generated
// text, leaving bare query code. Handles both ``` and language-tagged fences
// such as ```sql.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}

	if strings.HasSuffix(strings.TrimSpace(text), "```") {
		trimmed := strings.TrimSpace(text)
		text = trimmed[:len(trimmed)-3]
	}

	return strings.TrimSpace(text)
}

// ValidateSelect enforces the constrained query surface: exactly one
// statement, starting with SELECT or WITH, containing no forbidden keyword.
// A violation is reported as an *ExecutionError so it flows down the normal
// explanation path rather than failing the request.
func ValidateSelect(sql string) error {
	text := strings.TrimSpace(sql)
	text = strings.TrimSuffix(text, ";")

	if text == "" {
		return &ExecutionError{Message: "generated query is empty"}
	}

	if strings.ContainsRune(text, ';') {
		return &ExecutionError{Message: "generated query contains multiple statements"}
	}

	first := firstWord(text)
	if first != "SELECT" && first != "WITH" {
		return &ExecutionError{Message: fmt.Sprintf("generated query must be a single SELECT statement, got %q", first)}
	}

	for _, word := range splitWords(text) {
		for _, forbidden := range forbiddenKeywords {
			if word == forbidden {
				return &ExecutionError{Message: fmt.Sprintf("generated query uses forbidden keyword %s", forbidden)}
			}
		}
	}

	return nil
}

// firstWord returns the first SQL token, upper-cased
func firstWord(sql string) string {
	words := splitWords(sql)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// splitWords tokenizes on anything that is not a letter, digit or underscore.
// Quoted identifiers and string literals still split into words, which makes
// the keyword check deliberately conservative.
func splitWords(sql string) []string {
	return strings.FieldsFunc(strings.ToUpper(sql), func(r rune) bool {
		switch {
		case r >= 'A' && r <= 'Z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r == '_':
			return false
		default:
			return true
		}
	})
}
