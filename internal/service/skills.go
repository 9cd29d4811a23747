package service

import "strings"

// SplitSkills turns a comma separated list into trimmed, non-empty skills
// in their original order.
func SplitSkills(s string) []string {
	return NormalizeSkills(strings.Split(s, ","))
}

// NormalizeSkills trims every skill and drops empty ones. The result is never nil.
func NormalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, skill := range in {
		if skill = strings.TrimSpace(skill); skill != "" {
			out = append(out, skill)
		}
	}
	return out
}
