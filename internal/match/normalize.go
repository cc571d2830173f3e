package match

import (
	"strings"
	"unicode"
)

// normalizeText lower-cases s, drops every rune that is not a letter, digit,
// underscore or whitespace, and collapses whitespace runs to single spaces.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSet splits already-normalized text into a set of unique tokens.
func tokenSet(normalized string) map[string]struct{} {
	words := strings.Fields(normalized)
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// lowerSkills lower-cases and trims skills, dropping blanks and duplicates
// while keeping first-seen order.
func lowerSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
