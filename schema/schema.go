// Package schema parses declarations in XML Schema documents.
//
// The schema package implements a parser for the subset of the XML
// Schema standard needed to drive code generation and schema-directed
// XML transformation: top-level elements, complex types with
// sequence/choice content and complexContent extension, simple types
// with restriction facets, named groups, attributes, and
// import/include references. Parsing one document yields a passive
// Schema value; resolving imports into a multi-namespace graph and
// flattening type inheritance are the job of the graph package.
package schema

import "encoding/xml"

// Form controls whether locally declared elements are qualified with
// their owning schema's namespace.
type Form int

const (
	// Unqualified is the default: locally declared elements are
	// matched and emitted without a namespace prefix.
	Unqualified Form = iota
	// Qualified: every locally declared element carries the owning
	// schema's namespace.
	Qualified
)

func (f Form) String() string {
	if f == Qualified {
		return "qualified"
	}
	return "unqualified"
}

// A Schema is the decoded form of a single <schema> document. It
// records declarations in source order and does not resolve
// cross-schema references.
type Schema struct {
	// The target namespace of the schema. All types defined in this
	// schema are in this name space.
	TargetNS string
	// The prefix the document binds to its own target namespace,
	// when one exists.
	Prefix string
	// Whether locally declared elements are namespace-qualified.
	ElementFormDefault Form
	// Top-level element declarations, in declaration order.
	Elements []Element
	// Complex type definitions, in declaration order.
	ComplexTypes []*ComplexType
	// Simple type definitions, in declaration order.
	SimpleTypes []*SimpleType
	// Named model groups, in declaration order.
	Groups []*Group
	// Schemas referenced through <import> and <include>.
	Imports []Import
	// Every namespace declared on the schema root, keyed by prefix.
	// The default namespace, if declared, is under the empty key.
	// These bindings are the sole source of truth for resolving
	// prefixed type references in the document.
	Xmlns map[string]string
}

// An Element is a top-level element declaration: a name bound to a
// type reference.
type Element struct {
	Name string
	Type xml.Name
}

// An Import records a cross-schema reference. Includes are recorded
// with the including schema's target namespace.
type Import struct {
	Namespace string
	Location  string
}

// A ComplexType describes an XML element that may contain attributes
// and child elements. A complex type may extend another complex type,
// in the same or an imported namespace; the Fields and Attributes
// recorded here are only the type's own declarations, not the
// inherited ones.
type ComplexType struct {
	Name xml.Name
	// The base type this type extends. Zero when the type stands
	// alone.
	Extends xml.Name
	// Ordered element content (sequence or choice).
	Fields []Field
	// Possible attributes for the element's opening tag.
	Attributes []Field
}

// A SimpleType describes a named scalar constrained by a base type and
// optional facets.
type SimpleType struct {
	Name        xml.Name
	Restriction Restriction
}

// A Restriction narrows a base type. The schema package records only
// the facets useful for typing: enumerations, patterns and length
// bounds. Other facets are ignored during parsing.
type Restriction struct {
	Base      xml.Name
	Enum      []string
	Pattern   string
	MinLength int
	MaxLength int
}

// A Group is a named, reusable list of element fields. Group
// references inside complex types are dereferenced during type
// merging, not during parsing, so the model preserves group
// declarations as written.
type Group struct {
	Name   xml.Name
	Fields []Field
}

// FieldKind discriminates the content a Field contributes to its
// complex type.
type FieldKind int

const (
	// Attr is a key=value pair on the element's opening tag.
	Attr FieldKind = iota
	// Elem is a child element occurring at most once.
	Elem
	// Elems is a child element occurring any number of times. Its
	// runtime representation is always an ordered sequence, even
	// for zero or one occurrence.
	Elems
	// GroupRef stands for a reference to a named group. It only
	// appears in parsed (unmerged) types; the type merger replaces
	// it with the group's fields.
	GroupRef
)

func (k FieldKind) String() string {
	switch k {
	case Attr:
		return "attr"
	case Elem:
		return "elem"
	case Elems:
		return "elems"
	case GroupRef:
		return "group"
	}
	return "unknown"
}

// A Field is one attribute or element position within a complex type.
type Field struct {
	Kind FieldKind
	Name string
	// Reference to the field's type: a built-in, a simple type, or
	// a complex type in the same or an imported namespace. For
	// GroupRef fields this names the referenced group instead.
	Type     xml.Name
	Required bool
}

// ComplexType returns the complex type declared in this schema with
// the given local name, or nil.
func (s *Schema) ComplexType(local string) *ComplexType {
	for _, t := range s.ComplexTypes {
		if t.Name.Local == local {
			return t
		}
	}
	return nil
}

// SimpleType returns the simple type declared in this schema with the
// given local name, or nil.
func (s *Schema) SimpleType(local string) *SimpleType {
	for _, t := range s.SimpleTypes {
		if t.Name.Local == local {
			return t
		}
	}
	return nil
}

// Group returns the named group declared in this schema with the given
// local name, or nil.
func (s *Schema) Group(local string) *Group {
	for _, g := range s.Groups {
		if g.Name.Local == local {
			return g
		}
	}
	return nil
}

// Element returns the top-level element declaration with the given
// name, or false.
func (s *Schema) Element(name string) (Element, bool) {
	for _, e := range s.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return Element{}, false
}
