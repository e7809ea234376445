// Package normalize canonicalizes user-supplied scalar values before
// validation and storage.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses interior runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text trims surrounding whitespace from free-form content.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Enum lowercases and trims an enum value from client input.
func Enum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tags trims, lowercases, and de-duplicates a tag list, dropping empties.
func Tags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
