package nlp

import (
	"regexp"
	"strings"
)

var (
	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}+#.]+`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

// NormalizeText lower-cases s, turns punctuation into spaces and collapses
// whitespace. '+', '#' and '.' survive so "C++", "C#" and "node.js" stay distinct.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = reNonWord.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " .")
}

// NormalizeSkill normalizes a skill phrase so multi-word skills compare equal.
func NormalizeSkill(skill string) string {
	return NormalizeText(skill)
}

// CleanSkills trims skill tags and drops empty and case-insensitive duplicates,
// keeping the first spelling and the original order.
func CleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		display := reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
		key := NormalizeSkill(display)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, display)
	}
	return out
}

// NormalizeSkills maps tags to their normalized keys, as stored for filtering.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if n := NormalizeSkill(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
