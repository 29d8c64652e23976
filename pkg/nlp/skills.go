package nlp

import (
	"strings"
)

var aliases = map[string][]string{
	"postgres":   {"postgresql"},
	"postgresql": {"postgres"},
	"k8s":        {"kubernetes"},
	"kubernetes": {"k8s"},
	"golang":     {"go"},
	"go":         {"golang"},
	"js":         {"javascript"},
	"javascript": {"js"},
	"ts":         {"typescript"},
	"typescript": {"ts"},
	"rest":       {"rest api"},
	"rest api":   {"rest"},
	"ci cd":      {"cicd"},
	"cicd":       {"ci cd"},
}

// SkillVariants returns the normalized skill plus its known aliases.
// A posting tagged with any variant satisfies a filter on the skill.
func SkillVariants(skill string) []string {
	base := NormalizeSkill(skill)
	if base == "" {
		return []string{}
	}
	var out []string
	seen := map[string]struct{}{}
	add := func(s string) {
		s = NormalizeSkill(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(base)
	for _, a := range aliases[base] {
		add(a)
	}

	// "golang developer" also matches "go developer"
	parts := strings.Split(base, " ")
	if len(parts) > 1 {
		for i, p := range parts {
			for _, alt := range aliases[p] {
				if strings.Contains(alt, " ") {
					continue
				}
				variant := append([]string{}, parts...)
				variant[i] = alt
				add(strings.Join(variant, " "))
			}
		}
	}
	return out
}
