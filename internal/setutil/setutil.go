// Package setutil provides small generic collection helpers used by
// heuristic to filter candidates against an exclude set, and by lower
// to dedupe argument lists for diagnostics and guard against a node
// reappearing where it isn't allowed. Adapted from
// Atul-Ranjan12-google-dag-optimization's util.go (containsInt,
// uniqueInts), which hand-rolled the same two operations specialized to
// int; this version is parametric so the same code serves tensorid.ID
// (and anything else comparable) instead of being copied per type.
package setutil

// Contains reports whether v is present in s.
func Contains[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Unique returns the elements of s in first-seen order, with duplicates
// removed.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Subtract returns the elements of s that are not present in exclude.
func Subtract[T comparable](s []T, exclude map[T]struct{}) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := exclude[v]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}
