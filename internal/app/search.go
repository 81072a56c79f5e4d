package app

import "strings"

// matchesQuery reports whether any field contains q, case-insensitively. An empty
// query matches everything.
func matchesQuery(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// matchesStatus reports whether status equals want; an empty want matches everything.
func matchesStatus(want, status string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, status)
}
