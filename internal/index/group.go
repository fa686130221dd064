// Package index builds the in-memory lookups used by the conversion.
package index

// Groups maps a key to the records sharing it, in input order.
// Looking up a missing key yields a nil slice.
type Groups[K comparable, T any] map[K][]T

// GroupBy buckets records by key, preserving input order within each bucket.
func GroupBy[K comparable, T any](records []T, key func(T) K) Groups[K, T] {
	groups := make(Groups[K, T])
	for _, rec := range records {
		k := key(rec)
		groups[k] = append(groups[k], rec)
	}
	return groups
}
