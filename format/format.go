package format

import (
	"cmp"
	"slices"
)

// SortKeyValueMetadata sorts key/value properties by key, then by value.
func SortKeyValueMetadata(kv []KeyValue) {
	slices.SortFunc(kv, func(a, b KeyValue) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
}
