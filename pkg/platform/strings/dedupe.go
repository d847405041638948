// Package strings holds small helpers for request lists such as wallet
// addresses and domain names.
package strings

import "strings"

// Dedupe maps each value through normalize and keeps the first occurrence of
// every non-empty result, in input order. A nil normalize only trims.
func Dedupe(values []string, normalize func(string) string) []string {
	if normalize == nil {
		normalize = strings.TrimSpace
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// DedupeAndTrimLower is Dedupe with case folding; hex wallet addresses and
// domain names compare case-insensitively.
func DedupeAndTrimLower(values []string) []string {
	return Dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}
