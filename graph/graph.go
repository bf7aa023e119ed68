// Package graph resolves schema import graphs and flattens type
// inheritance.
//
// Resolve discovers every schema document reachable from a root
// identifier through <import> and <include> references, parses each
// document exactly once, and aggregates the results into a Graph: a
// namespace-keyed collection of schemas with a global type index keyed
// by (namespace URI, local name), never by prefix. MergedType
// flattens a complex type's extends chain into a single ordered field
// list, memoized for the life of the Graph.
//
// The Graph is read-only for its consumers; the codegen and xmlrt
// packages borrow references into it and never mutate it.
package graph

import (
	"encoding/xml"
	"sort"

	"github.com/pkg/errors"

	"github.com/schemaforge/xmlschema/internal/memo"
	"github.com/schemaforge/xmlschema/schema"
)

// A LoadFunc retrieves the source text of the schema document with the
// given canonical identifier. Any blocking I/O belongs here; the graph
// package itself performs none.
type LoadFunc func(id string) ([]byte, error)

// A LocateFunc maps a raw import reference, which may use an arbitrary
// vendor URL scheme, to a canonical local identifier for the loader.
// It must be pure: the same inputs always yield the same identifier
// within one resolution session.
type LocateFunc func(location, namespace string) string

// A Graph is the merged, multi-namespace result of resolving a root
// schema and everything it references.
type Graph struct {
	schemas    map[string]*schema.Schema
	namespaces []string // insertion order

	index  *memo.Value[*typeIndex]
	merged map[xml.Name]*MergedType
}

type typeIndex struct {
	complexTypes map[xml.Name]*schema.ComplexType
	simpleTypes  map[xml.Name]*schema.SimpleType
	groups       map[xml.Name]*schema.Group
}

// Resolve loads the root schema named by rootID and, depth-first,
// every schema it transitively imports or includes. Each distinct
// identifier is loaded and parsed at most once per call; diamond and
// cyclic import graphs therefore terminate. The memoization cache is
// scoped to this one call, so concurrent resolutions never share state.
//
// locate may be nil, in which case the raw schemaLocation is used as
// the identifier.
func Resolve(rootID string, load LoadFunc, locate LocateFunc) (*Graph, error) {
	if load == nil {
		return nil, errors.New("graph: Resolve requires a load function")
	}
	if locate == nil {
		locate = func(location, _ string) string { return location }
	}
	g := &Graph{
		schemas: make(map[string]*schema.Schema),
		merged:  make(map[xml.Name]*MergedType),
	}
	g.index = memo.New(g.buildIndex)

	visited := map[string]bool{}
	if err := g.resolve(rootID, schema.Import{}, load, locate, visited); err != nil {
		return nil, err
	}
	// Surface duplicate type names now rather than on first lookup.
	if _, err := g.index.Get(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) resolve(id string, ref schema.Import, load LoadFunc, locate LocateFunc, visited map[string]bool) error {
	if visited[id] {
		return nil
	}
	visited[id] = true

	data, err := load(id)
	if err != nil {
		return &UnresolvedImportError{
			ID:        id,
			Location:  ref.Location,
			Namespace: ref.Namespace,
			Err:       err,
		}
	}
	s, err := schema.Parse(data)
	if err != nil {
		return errors.Wrapf(err, "schema %q", id)
	}
	g.add(s)

	for _, imp := range s.Imports {
		childID := locate(imp.Location, imp.Namespace)
		if err := g.resolve(childID, imp, load, locate, visited); err != nil {
			return err
		}
	}
	return nil
}

// add merges a parsed schema into the graph. A second document for an
// already-present namespace (an include, or a split schema) appends
// its declarations; the first document's prefix and form default win.
func (g *Graph) add(s *schema.Schema) {
	existing, ok := g.schemas[s.TargetNS]
	if !ok {
		g.schemas[s.TargetNS] = s
		g.namespaces = append(g.namespaces, s.TargetNS)
		return
	}
	existing.Elements = append(existing.Elements, s.Elements...)
	existing.ComplexTypes = append(existing.ComplexTypes, s.ComplexTypes...)
	existing.SimpleTypes = append(existing.SimpleTypes, s.SimpleTypes...)
	existing.Groups = append(existing.Groups, s.Groups...)
	for prefix, uri := range s.Xmlns {
		if _, taken := existing.Xmlns[prefix]; !taken {
			existing.Xmlns[prefix] = uri
		}
	}
}

func (g *Graph) buildIndex() (*typeIndex, error) {
	idx := &typeIndex{
		complexTypes: make(map[xml.Name]*schema.ComplexType),
		simpleTypes:  make(map[xml.Name]*schema.SimpleType),
		groups:       make(map[xml.Name]*schema.Group),
	}
	for _, s := range g.schemas {
		for _, t := range s.ComplexTypes {
			if _, dup := idx.complexTypes[t.Name]; dup {
				return nil, errors.Errorf("graph: duplicate type {%s}%s", t.Name.Space, t.Name.Local)
			}
			idx.complexTypes[t.Name] = t
		}
		for _, t := range s.SimpleTypes {
			if _, dup := idx.simpleTypes[t.Name]; dup {
				return nil, errors.Errorf("graph: duplicate type {%s}%s", t.Name.Space, t.Name.Local)
			}
			if _, dup := idx.complexTypes[t.Name]; dup {
				return nil, errors.Errorf("graph: duplicate type {%s}%s", t.Name.Space, t.Name.Local)
			}
			idx.simpleTypes[t.Name] = t
		}
		for _, grp := range s.Groups {
			if _, dup := idx.groups[grp.Name]; dup {
				return nil, errors.Errorf("graph: duplicate group {%s}%s", grp.Name.Space, grp.Name.Local)
			}
			idx.groups[grp.Name] = grp
		}
	}
	return idx, nil
}

// Schema returns the (possibly merged) schema for a target namespace,
// or nil if the namespace is not part of the graph.
func (g *Graph) Schema(ns string) *schema.Schema {
	return g.schemas[ns]
}

// Namespaces lists the target namespaces in the graph, in
// first-encountered order starting with the root schema's.
func (g *Graph) Namespaces() []string {
	out := make([]string, len(g.namespaces))
	copy(out, g.namespaces)
	return out
}

// SortedNamespaces lists the target namespaces in lexical order, for
// consumers that need deterministic traversal independent of import
// order.
func (g *Graph) SortedNamespaces() []string {
	out := g.Namespaces()
	sort.Strings(out)
	return out
}

// ComplexType looks up a complex type by canonical name.
func (g *Graph) ComplexType(name xml.Name) (*schema.ComplexType, bool) {
	idx, err := g.index.Get()
	if err != nil {
		return nil, false
	}
	t, ok := idx.complexTypes[name]
	return t, ok
}

// SimpleType looks up a simple type by canonical name.
func (g *Graph) SimpleType(name xml.Name) (*schema.SimpleType, bool) {
	idx, err := g.index.Get()
	if err != nil {
		return nil, false
	}
	t, ok := idx.simpleTypes[name]
	return t, ok
}

// Group looks up a named model group by canonical name.
func (g *Graph) Group(name xml.Name) (*schema.Group, bool) {
	idx, err := g.index.Get()
	if err != nil {
		return nil, false
	}
	grp, ok := idx.groups[name]
	return grp, ok
}

// ScalarKind classifies a type reference that must denote a scalar:
// either a built-in or a simple type. For simple types the restriction
// chain is followed to its built-in base, and the nearest enumeration
// facet on the chain is returned alongside the kind.
func (g *Graph) ScalarKind(ref xml.Name) (schema.Builtin, []string, error) {
	var enum []string
	seen := make(map[xml.Name]bool)
	for {
		if b, err := schema.ParseBuiltin(ref); err == nil {
			return b, enum, nil
		}
		st, ok := g.SimpleType(ref)
		if !ok {
			return 0, nil, &UnknownTypeRefError{Ref: ref, Context: "scalar reference"}
		}
		if seen[ref] {
			return 0, nil, &CyclicInheritanceError{Chain: scalarChain(seen, ref)}
		}
		seen[ref] = true
		if enum == nil && len(st.Restriction.Enum) > 0 {
			enum = st.Restriction.Enum
		}
		ref = st.Restriction.Base
	}
}

func scalarChain(seen map[xml.Name]bool, last xml.Name) []xml.Name {
	chain := make([]xml.Name, 0, len(seen)+1)
	for n := range seen {
		chain = append(chain, n)
	}
	sort.Slice(chain, func(i, j int) bool { return chain[i].Local < chain[j].Local })
	return append(chain, last)
}

// IsComplex reports whether ref names a complex type in the graph.
func (g *Graph) IsComplex(ref xml.Name) bool {
	_, ok := g.ComplexType(ref)
	return ok
}
