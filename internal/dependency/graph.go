// Package dependency builds and flattens dependency graphs.
package dependency

import "sort"

// insertUnique inserts x into set, preserving order. If x is already
// in set, it is not added. The augmented set is returned.
func insertUnique(set []string, x string) []string {
	i := sort.SearchStrings(set, x)
	if i >= len(set) || set[i] != x {
		set = append(set, "")
		copy(set[i+1:], set[i:])
		set[i] = x
	}
	return set
}

// A Graph is a collection of targets and their dependencies.
type Graph struct {
	targets []string
	nodes   map[string][]string
}

// Len returns the number of targets in the graph.
func (g *Graph) Len() int {
	return len(g.targets)
}

func (g *Graph) init() {
	if g.nodes == nil {
		g.nodes = make(map[string][]string)
	}
}

// Add adds a dependency to a Graph. A target may be added without
// dependencies by passing the empty string.
func (g *Graph) Add(target, dependency string) {
	g.init()
	g.targets = insertUnique(g.targets, target)
	if dependency != "" {
		g.nodes[target] = insertUnique(g.nodes[target], dependency)
	}
}

// Flatten calls the walk function on each node in the Graph in
// topological order, starting with the leaves and traversing up to the
// roots. The same Graph is always traversed in the same order.
//
// Every vertex in the Graph is visited once; any cycles in the graph
// are skipped.
func (g *Graph) Flatten(walk func(string)) {
	g.init()
	visited := make(map[string]bool, len(g.nodes))
	for _, tgt := range g.targets {
		if !visited[tgt] {
			visited[tgt] = true
			g.flatten(walk, g.nodes[tgt], visited)
			walk(tgt)
		}
	}
}

func (g *Graph) flatten(fn func(string), targets []string, visited map[string]bool) {
	for _, tgt := range targets {
		if !visited[tgt] {
			visited[tgt] = true
			g.flatten(fn, g.nodes[tgt], visited)
			fn(tgt)
		}
	}
}
