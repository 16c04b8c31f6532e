// Package hint produces "did you mean" suggestions for unresolved names.
package hint

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// Suggest returns up to three names from candidates that fuzzy-match name,
// best match first. Matching ignores case.
func Suggest(name string, candidates []string) []string {
	if name == "" || len(candidates) == 0 {
		return nil
	}

	lower := make([]string, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}

	matches := fuzzy.Find(strings.ToLower(name), lower)

	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}

		out = append(out, candidates[m.Index])
	}

	return out
}

// DidYouMean formats the suggestions for name as an error message suffix,
// or returns the empty string when there are none.
func DidYouMean(name string, candidates []string) string {
	s := Suggest(name, candidates)
	if len(s) == 0 {
		return ""
	}

	return " (did you mean " + strings.Join(s, " or ") + "?)"
}
