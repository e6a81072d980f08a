package markup

import (
	"fmt"
	"html"
	"strings"
)

// Raw is markup that HTML inserts without escaping.
type Raw string

// HTML formats according to format, escaping every argument except Raw
// values. Arguments are formatted as strings, so use %s or %v verbs.
func HTML(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case Raw:
			escaped[i] = string(v)
		case string:
			escaped[i] = html.EscapeString(v)
		case fmt.Stringer:
			escaped[i] = html.EscapeString(v.String())
		default:
			escaped[i] = html.EscapeString(fmt.Sprint(v))
		}
	}
	return fmt.Sprintf(format, escaped...)
}

// Join concatenates rendered fragments, typically the output of a loop.
func Join(parts []string) Raw {
	return Raw(strings.Join(parts, ""))
}

// Map renders each item with fn and joins the results.
func Map[T any](items []T, fn func(T) string) Raw {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fn(item)
	}
	return Join(parts)
}

// Class returns cls when cond holds and "" otherwise.
func Class(cond bool, cls string) string {
	if cond {
		return cls
	}
	return ""
}
