// Package generics implements generic map helpers missing from the stdlib.
package generics

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// SortedKeys returns the keys of the map m, sorted.
func SortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	return slices.Sorted(maps.Keys(m))
}

// SortedKeysAndValues returns an iterator over keys and values of the map m, ordered by the keys.
//
// The keys are collected and sorted upfront, so it's convenient but not fast.
func SortedKeysAndValues[M ~map[K]V, K cmp.Ordered, V any](m M) iter.Seq2[K, V] {
	sortedKeys := SortedKeys(m)
	return func(yield func(K, V) bool) {
		for _, key := range sortedKeys {
			if !yield(key, m[key]) {
				return
			}
		}
	}
}
