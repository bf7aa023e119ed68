// Package codegen generates Go source code from resolved schema
// graphs.
//
// The engine walks the requested namespaces of a graph.Graph,
// assembles a SchemaData for each, and hands it to a pluggable
// Generator, writing whatever the generator produces through a
// caller-supplied Sink. The engine performs no file I/O of its own.
//
// Two Generator implementations ship with the package. Raw emits the
// runtime descriptor as a package-level variable; Factory wraps it
// behind a constructor function. Both emit the same struct
// declarations and Parse/Build entry points.
package codegen

import (
	"encoding/xml"

	"github.com/pkg/errors"

	"github.com/schemaforge/xmlschema/graph"
	"github.com/schemaforge/xmlschema/internal/dependency"
	"github.com/schemaforge/xmlschema/internal/ordered"
	"github.com/schemaforge/xmlschema/schema"
	"github.com/schemaforge/xmlschema/xmlrt"
)

// A SchemaData is everything a Generator needs to emit code for one
// target namespace.
type SchemaData struct {
	Graph     *graph.Graph
	Namespace string
	Prefix    string
	Qualified bool
	// Package is the Go package name for the emitted source.
	Package string
	// Elements are the namespace's top-level element declarations, in
	// declaration order.
	Elements []schema.Element
	// Types are the complex types the artifact declares, flattened:
	// the namespace's own plus every type reachable through fields or
	// bases, including types living in imported namespaces. Base
	// types are ordered before the types that extend them.
	Types []*graph.MergedType
	// SimpleTypes are the namespace's simple type declarations, in
	// declaration order.
	SimpleTypes []*schema.SimpleType
	// Imports are the namespace's references to other schemas.
	Imports []schema.Import
	// Descriptor is the runtime descriptor covering every type
	// reachable from the top-level elements.
	Descriptor *xmlrt.Descriptor
}

// A Generator renders one schema's worth of Go source.
type Generator interface {
	EmitSchema(data *SchemaData) ([]byte, error)
}

// A Sink receives each generated artifact. The name is a suggested
// file name; the sink decides what to do with it.
type Sink func(name string, src []byte) error

// Generate emits Go source for the given namespaces of g through the
// sink. If namespaces is empty, every namespace in the graph is
// generated, in lexical order.
func (cfg *Config) Generate(g *graph.Graph, namespaces []string, gen Generator, sink Sink) error {
	if gen == nil {
		return errors.New("codegen: Generate requires a Generator")
	}
	if sink == nil {
		return errors.New("codegen: Generate requires a Sink")
	}
	if len(namespaces) == 0 {
		namespaces = g.SortedNamespaces()
	}
	for _, ns := range namespaces {
		data, err := cfg.schemaData(g, ns)
		if err != nil {
			return err
		}
		cfg.debugf("generating Go source for schema %q", ns)
		src, err := gen.EmitSchema(data)
		if err != nil {
			return errors.Wrapf(err, "codegen: namespace %q", ns)
		}
		name := fileName(data)
		cfg.logf("emitting %s (%d bytes)", name, len(src))
		if err := sink(name, src); err != nil {
			return errors.Wrapf(err, "codegen: write %s", name)
		}
	}
	return nil
}

func (cfg *Config) schemaData(g *graph.Graph, ns string) (*SchemaData, error) {
	s := g.Schema(ns)
	if s == nil {
		return nil, errors.Errorf("codegen: namespace %q is not part of the schema graph", ns)
	}
	desc, err := xmlrt.Describe(g, ns)
	if err != nil {
		return nil, err
	}
	types, err := orderedTypes(g, s, desc)
	if err != nil {
		return nil, err
	}
	cfg.debugf("schema %q: %d complex types, %d simple types, %d elements",
		ns, len(types), len(s.SimpleTypes), len(s.Elements))
	pkg := cfg.pkgname
	if pkg == "" {
		pkg = "schema"
	}
	return &SchemaData{
		Graph:       g,
		Namespace:   ns,
		Prefix:      s.Prefix,
		Qualified:   s.ElementFormDefault == schema.Qualified,
		Package:     pkg,
		Elements:    s.Elements,
		Types:       types,
		SimpleTypes: s.SimpleTypes,
		Imports:     s.Imports,
		Descriptor:  desc,
	}, nil
}

// orderedTypes merges every complex type the artifact must declare:
// the schema's own declarations plus everything reachable from them
// or from the descriptor through bases and complex fields, including
// types living in imported namespaces. Generated struct fields name
// these types directly, so each one needs a declaration in the same
// file. Types are returned with each type's base (and complex field
// types) ahead of it, so declarations read top-down. The order is
// stable across runs.
func orderedTypes(g *graph.Graph, s *schema.Schema, desc *xmlrt.Descriptor) ([]*graph.MergedType, error) {
	names := make([]xml.Name, 0, len(s.ComplexTypes)+len(desc.Types))
	seen := make(map[xml.Name]bool)
	include := func(n xml.Name) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, t := range s.ComplexTypes {
		include(t.Name)
	}
	ordered.RangeNames(desc.Types, func(n xml.Name, _ *xmlrt.Type) {
		include(n)
	})

	var deps dependency.Graph
	byLocal := make(map[string]*graph.MergedType, len(names))
	for i := 0; i < len(names); i++ {
		name := names[i]
		merged, err := g.MergedType(name)
		if err != nil {
			return nil, err
		}
		byLocal[name.Local] = merged
		deps.Add(name.Local, "")
		if t, ok := g.ComplexType(name); ok && t.Extends.Local != "" {
			include(t.Extends)
			deps.Add(name.Local, t.Extends.Local)
		}
		for _, f := range merged.Fields {
			if f.Type != name && g.IsComplex(f.Type) {
				include(f.Type)
				deps.Add(name.Local, f.Type.Local)
			}
		}
	}

	types := make([]*graph.MergedType, 0, len(byLocal))
	deps.Flatten(func(local string) {
		if t, ok := byLocal[local]; ok {
			types = append(types, t)
		}
	})
	return types, nil
}

// fileName suggests an artifact name for a schema: the bound prefix
// when there is one, otherwise the package name.
func fileName(data *SchemaData) string {
	if data.Prefix != "" {
		return data.Prefix + ".go"
	}
	return data.Package + ".go"
}
