package dojo

import "strings"

// DefaultFillerPhrases are courtesy replies that never earn points. Plain
// acknowledgements such as "thanks" are not filler.
var DefaultFillerPhrases = []string{
	"you're welcome",
	"youre welcome",
	"no problem",
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// IsUnhelpful reports whether body is empty or contains any filler phrase.
// Matching is a case-insensitive substring test, so "no problems" matches
// "no problem".
func IsUnhelpful(body string, phrases []string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}
	lower := strings.ToLower(apostrophes.Replace(body))
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
