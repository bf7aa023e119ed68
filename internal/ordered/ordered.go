// Package ordered provides deterministic traversal of maps.
package ordered

import (
	"encoding/xml"
	"sort"
)

// Range calls fn on each entry of m, in ascending key order.
func Range[V any](m map[string]V, fn func(string, V)) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(k, m[k])
	}
}

// RangeNames calls fn on each entry of m, ordered by namespace and
// then by local name.
func RangeNames[V any](m map[xml.Name]V, fn func(xml.Name, V)) {
	keys := make([]xml.Name, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortNames(keys)
	for _, k := range keys {
		fn(k, m[k])
	}
}

// SortNames orders names by namespace, breaking ties on local name.
func SortNames(names []xml.Name) {
	sort.Slice(names, func(i, j int) bool {
		if names[i].Space != names[j].Space {
			return names[i].Space < names[j].Space
		}
		return names[i].Local < names[j].Local
	})
}
