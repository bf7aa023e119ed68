package graph

import (
	"encoding/xml"

	"github.com/schemaforge/xmlschema/schema"
)

// A MergedType is a complex type with its extends chain flattened and
// its group references expanded. Fields and Attributes are ordered
// base-first: everything inherited appears before anything the type
// declares itself, except that a redeclared name replaces the
// inherited entry in place.
type MergedType struct {
	Name       xml.Name
	Fields     []schema.Field
	Attributes []schema.Field
}

// Field returns the merged element field with the given name, if any.
func (t *MergedType) Field(name string) (schema.Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

// Attribute returns the merged attribute with the given name, if any.
func (t *MergedType) Attribute(name string) (schema.Field, bool) {
	for _, f := range t.Attributes {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

// MergedType flattens the named complex type: the full extends chain
// is walked root-first, group references are replaced by the group's
// fields, and redeclared names override their inherited counterparts.
// Results are memoized on the Graph, so repeated lookups of the same
// name are cheap. Cycles in the extends chain or in group references
// yield a CyclicInheritanceError; references to types or groups absent
// from the graph yield an UnknownTypeRefError.
func (g *Graph) MergedType(name xml.Name) (*MergedType, error) {
	if cached, ok := g.merged[name]; ok {
		return cached, nil
	}
	chain, err := g.extendsChain(name)
	if err != nil {
		return nil, err
	}
	merged := &MergedType{Name: name}
	for _, t := range chain {
		fields, err := g.expandGroups(t)
		if err != nil {
			return nil, err
		}
		merged.Fields = overlay(merged.Fields, fields)
		merged.Attributes = overlay(merged.Attributes, t.Attributes)
	}
	g.merged[name] = merged
	return merged, nil
}

// extendsChain returns the inheritance chain for name ordered from the
// chain's root down to the named type itself.
func (g *Graph) extendsChain(name xml.Name) ([]*schema.ComplexType, error) {
	var chain []*schema.ComplexType
	seen := make(map[xml.Name]bool)
	for ref := name; ref != (xml.Name{}); {
		if seen[ref] {
			return nil, &CyclicInheritanceError{Chain: chainNames(chain, ref)}
		}
		seen[ref] = true
		t, ok := g.ComplexType(ref)
		if !ok {
			ctx := "type " + name.Local
			if ref != name {
				ctx = "base of type " + name.Local
			}
			return nil, &UnknownTypeRefError{Ref: ref, Context: ctx}
		}
		chain = append(chain, t)
		ref = t.Extends
	}
	// Reverse so the root of the chain contributes first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func chainNames(chain []*schema.ComplexType, repeat xml.Name) []xml.Name {
	names := make([]xml.Name, 0, len(chain)+1)
	for _, t := range chain {
		names = append(names, t.Name)
	}
	return append(names, repeat)
}

// expandGroups replaces every group reference in t's field list with
// the referenced group's fields, recursively. A group that reaches
// itself through nested references is a cycle.
func (g *Graph) expandGroups(t *schema.ComplexType) ([]schema.Field, error) {
	return g.expandFields(t.Fields, t.Name, make(map[xml.Name]bool))
}

func (g *Graph) expandFields(fields []schema.Field, owner xml.Name, active map[xml.Name]bool) ([]schema.Field, error) {
	out := make([]schema.Field, 0, len(fields))
	for _, f := range fields {
		if f.Kind != schema.GroupRef {
			out = append(out, f)
			continue
		}
		if active[f.Type] {
			return nil, &CyclicInheritanceError{Chain: []xml.Name{f.Type, f.Type}}
		}
		grp, ok := g.Group(f.Type)
		if !ok {
			return nil, &UnknownTypeRefError{Ref: f.Type, Context: "group reference in type " + owner.Local}
		}
		active[f.Type] = true
		nested, err := g.expandFields(grp.Fields, owner, active)
		if err != nil {
			return nil, err
		}
		delete(active, f.Type)
		out = append(out, nested...)
	}
	return out, nil
}

// overlay appends add to base, except that a field whose name matches
// an existing entry replaces it in place rather than appending. This
// lets a derived type redeclare an inherited field with a narrower
// type or cardinality without duplicating it.
func overlay(base, add []schema.Field) []schema.Field {
	out := base
	for _, f := range add {
		replaced := false
		for i := range out {
			if out[i].Name == f.Name {
				out[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}
