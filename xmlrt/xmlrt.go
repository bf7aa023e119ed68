// Package xmlrt reads and writes XML documents under the direction of
// a schema.
//
// The runtime works on two representations. A Value is the dynamic
// form of a document: a map from field names to coerced Go values
// (bool, float64, time.Time, string, nested Value, or []interface{}
// for repeated elements). A Descriptor is the static form of a schema:
// a self-contained table of top-level elements and flattened types
// that needs no schema graph at runtime. Generated code embeds
// Descriptor literals; callers holding a graph.Graph can use the
// package-level Parse and Build, which derive the descriptor on the
// fly.
//
// Parsing is lenient: content the schema does not mention is dropped.
// Building is strict: only schema fields are emitted, and missing
// required fields or mistyped values are errors.
package xmlrt

import (
	"encoding/xml"

	"github.com/pkg/errors"

	"github.com/schemaforge/xmlschema/graph"
	"github.com/schemaforge/xmlschema/schema"
)

// A Value is the dynamic representation of an XML element's content.
type Value = map[string]interface{}

// ScalarKey is the Value key holding the content of a top-level
// element whose declared type is a scalar rather than a complex type.
const ScalarKey = "value"

// A Kind classifies the coerced Go representation of a field.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindNumber
	KindDateTime
	KindComplex
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindDateTime:
		return "dateTime"
	case KindComplex:
		return "complex"
	}
	return "unknown"
}

// A Field describes one attribute, child element, or top-level element.
type Field struct {
	Name     string
	Kind     Kind
	Type     xml.Name // the complex type, when Kind is KindComplex
	Repeated bool
	Required bool
	Enum     []string // legal literals, when the scalar type is enumerated
}

// A Type is a complex type with its inheritance already flattened.
type Type struct {
	Name       xml.Name
	Attributes []Field
	Fields     []Field // child elements, in document order
}

// A Descriptor is everything the runtime needs to know about one
// schema namespace. It is plain data so that generated code can embed
// it as a literal.
type Descriptor struct {
	Namespace string
	Prefix    string
	Qualified bool
	Elements  map[string]Field   // top-level element name -> shape
	Types     map[xml.Name]*Type // flattened complex types, by canonical name
}

// Describe derives the Descriptor for one target namespace of a
// resolved schema graph. Every complex type reachable from the
// namespace's top-level elements is flattened into the Types table,
// including types living in imported namespaces.
func Describe(g *graph.Graph, ns string) (*Descriptor, error) {
	s := g.Schema(ns)
	if s == nil {
		return nil, errors.Errorf("xmlrt: namespace %q is not part of the schema graph", ns)
	}
	d := &Descriptor{
		Namespace: ns,
		Prefix:    s.Prefix,
		Qualified: s.ElementFormDefault == schema.Qualified,
		Elements:  make(map[string]Field, len(s.Elements)),
		Types:     make(map[xml.Name]*Type),
	}
	for _, el := range s.Elements {
		f, err := describeField(g, d, schema.Field{
			Kind:     schema.Elem,
			Name:     el.Name,
			Type:     el.Type,
			Required: true,
		})
		if err != nil {
			return nil, err
		}
		d.Elements[el.Name] = f
	}
	return d, nil
}

// describeField converts a schema field into its runtime shape,
// pulling any complex type it references into the descriptor.
func describeField(g *graph.Graph, d *Descriptor, f schema.Field) (Field, error) {
	out := Field{
		Name:     f.Name,
		Repeated: f.Kind == schema.Elems,
		Required: f.Required,
	}
	if g.IsComplex(f.Type) {
		out.Kind = KindComplex
		out.Type = f.Type
		if err := describeType(g, d, f.Type); err != nil {
			return Field{}, err
		}
		return out, nil
	}
	kind, enum, err := g.ScalarKind(f.Type)
	if err != nil {
		return Field{}, err
	}
	out.Kind = scalarKind(kind)
	out.Enum = enum
	return out, nil
}

func describeType(g *graph.Graph, d *Descriptor, name xml.Name) error {
	if _, done := d.Types[name]; done {
		return nil
	}
	merged, err := g.MergedType(name)
	if err != nil {
		return err
	}
	t := &Type{Name: name}
	// Register before descending so recursive types terminate.
	d.Types[name] = t
	for _, f := range merged.Attributes {
		rf, err := describeField(g, d, f)
		if err != nil {
			return err
		}
		t.Attributes = append(t.Attributes, rf)
	}
	for _, f := range merged.Fields {
		rf, err := describeField(g, d, f)
		if err != nil {
			return err
		}
		t.Fields = append(t.Fields, rf)
	}
	return nil
}

func scalarKind(b schema.Builtin) Kind {
	switch b {
	case schema.Bool:
		return KindBool
	case schema.Number:
		return KindNumber
	case schema.DateTime:
		return KindDateTime
	}
	return KindString
}
