package schema

import (
	"encoding/xml"
	"sort"
	"strconv"

	"github.com/schemaforge/xmlschema/xmltree"
)

// Parse reads a single schema document and returns its Schema model.
// Parse does not fetch schemas referenced in <import> or <include>
// statements; those references are recorded in the Imports list for
// the graph package to resolve.
//
// Schema constructs are matched by their local name, so documents may
// bind any prefix to the schema-definition namespace. Malformed or
// unrecognized required constructs fail with a *ParseError; unknown
// optional constructs (unsupported facets, annotations, wildcards) are
// skipped.
func Parse(doc []byte) (s *Schema, err error) {
	root, err := xmltree.Parse(doc)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if root.Name.Local != "schema" {
		return nil, &ParseError{Message: "root element is <" + root.Name.Local + ">, expected <schema>"}
	}

	s = &Schema{
		TargetNS: root.Attr("", "targetNamespace"),
		Xmlns:    make(map[string]string),
	}
	for _, attr := range root.StartElement.Attr {
		if attr.Name.Space == "xmlns" {
			s.Xmlns[attr.Name.Local] = attr.Value
		} else if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			s.Xmlns[""] = attr.Value
		}
	}
	s.Prefix = prefixFor(s.Xmlns, s.TargetNS)

	defer catchParseError(&err)

	switch form := root.Attr("", "elementFormDefault"); form {
	case "", "unqualified":
		s.ElementFormDefault = Unqualified
	case "qualified":
		s.ElementFormDefault = Qualified
	default:
		stop("invalid elementFormDefault %q", form)
	}

	p := &parser{schema: s}
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "element":
			p.parseTopElement(el)
		case "complexType":
			p.addComplexType(p.parseComplexType(el))
		case "simpleType":
			p.addSimpleType(p.parseSimpleType(el))
		case "group":
			p.parseGroup(el)
		case "import":
			s.Imports = append(s.Imports, Import{
				Namespace: el.Attr("", "namespace"),
				Location:  el.Attr("", "schemaLocation"),
			})
		case "include":
			s.Imports = append(s.Imports, Import{
				Namespace: s.TargetNS,
				Location:  el.Attr("", "schemaLocation"),
			})
		case "annotation", "attribute", "attributeGroup", "notation":
			// not used for typing documents
		default:
			// Unknown top-level constructs are ignored, not fatal.
		}
	})
	return s, err
}

// prefixFor picks the prefix the document binds to ns. When several
// prefixes name the same namespace, the lexicographically smallest
// wins, so repeated parses of one document agree.
func prefixFor(xmlns map[string]string, ns string) string {
	var candidates []string
	for prefix, uri := range xmlns {
		if uri == ns && prefix != "" {
			candidates = append(candidates, prefix)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}

type parser struct {
	schema *Schema
}

func (p *parser) addComplexType(t *ComplexType) {
	if p.schema.ComplexType(t.Name.Local) != nil || p.schema.SimpleType(t.Name.Local) != nil {
		stop("duplicate type name %q", t.Name.Local)
	}
	p.schema.ComplexTypes = append(p.schema.ComplexTypes, t)
}

func (p *parser) addSimpleType(t *SimpleType) {
	if p.schema.ComplexType(t.Name.Local) != nil || p.schema.SimpleType(t.Name.Local) != nil {
		stop("duplicate type name %q", t.Name.Local)
	}
	p.schema.SimpleTypes = append(p.schema.SimpleTypes, t)
}

// resolveRef resolves a QName in an attribute value against the
// element's namespace scope. An unprefixed reference with no default
// namespace in scope refers to the schema's own target namespace.
func (p *parser) resolveRef(el *xmltree.Element, qname string) xml.Name {
	name := el.Resolve(qname)
	if name.Space == "" {
		name.Space = p.schema.TargetNS
	}
	return name
}

// A top-level element declares a name and a type reference. An inline
// anonymous complexType or simpleType is hoisted into a named type
// after the element, the only place the parser accepts an anonymous
// type.
func (p *parser) parseTopElement(el *xmltree.Element) {
	name := el.Attr("", "name")
	if name == "" {
		stop("top-level element without a name")
	}
	if _, ok := p.schema.Element(name); ok {
		stop("duplicate top-level element %q", name)
	}
	if ref := el.Attr("", "type"); ref != "" {
		p.schema.Elements = append(p.schema.Elements, Element{
			Name: name,
			Type: p.resolveRef(el, ref),
		})
		return
	}
	var hoisted xml.Name
	walk(el, func(child *xmltree.Element) {
		switch child.Name.Local {
		case "complexType":
			child.SetAttr("", "name", name)
			t := p.parseComplexType(child)
			p.addComplexType(t)
			hoisted = t.Name
		case "simpleType":
			child.SetAttr("", "name", name)
			t := p.parseSimpleType(child)
			p.addSimpleType(t)
			hoisted = t.Name
		case "annotation":
		}
	})
	if hoisted.Local == "" {
		stop("element %q has neither a type reference nor an inline type", name)
	}
	p.schema.Elements = append(p.schema.Elements, Element{Name: name, Type: hoisted})
}

func (p *parser) parseComplexType(root *xmltree.Element) *ComplexType {
	var t ComplexType
	local := root.Attr("", "name")
	if local == "" {
		stop("complexType without a name")
	}
	t.Name = xml.Name{Space: p.schema.TargetNS, Local: local}

	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "complexContent":
			p.parseComplexContent(&t, el)
		case "sequence", "all":
			t.Fields = append(t.Fields, p.parseParticles(el, false)...)
		case "choice":
			t.Fields = append(t.Fields, p.parseParticles(el, true)...)
		case "group":
			t.Fields = append(t.Fields, p.parseGroupRef(el))
		case "attribute":
			if f, ok := p.parseAttribute(el); ok {
				t.Attributes = append(t.Attributes, f)
			}
		case "annotation", "anyAttribute", "simpleContent":
			// simpleContent (character data content models) is not
			// part of the supported subset.
		}
	})
	return &t
}

// complexContent > extension sets the base type and contributes the
// extension's own sequence and attributes. A restriction is treated as
// a plain redeclaration: its particles become the type's own fields
// and no base is recorded.
func (p *parser) parseComplexContent(t *ComplexType, root *xmltree.Element) {
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "extension":
			base := el.Attr("", "base")
			if base == "" {
				stop("extension without a base type")
			}
			t.Extends = p.resolveRef(el, base)
			p.parseDerivation(t, el)
		case "restriction":
			p.parseDerivation(t, el)
		case "annotation":
		}
	})
}

func (p *parser) parseDerivation(t *ComplexType, root *xmltree.Element) {
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "sequence", "all":
			t.Fields = append(t.Fields, p.parseParticles(el, false)...)
		case "choice":
			t.Fields = append(t.Fields, p.parseParticles(el, true)...)
		case "group":
			t.Fields = append(t.Fields, p.parseGroupRef(el))
		case "attribute":
			if f, ok := p.parseAttribute(el); ok {
				t.Attributes = append(t.Attributes, f)
			}
		case "annotation", "anyAttribute":
		}
	})
}

// parseParticles flattens a sequence or choice into an ordered field
// list. Fields under a choice are never required; any one of them may
// satisfy the content model.
func (p *parser) parseParticles(root *xmltree.Element, optional bool) []Field {
	var fields []Field
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "element":
			fields = append(fields, p.parseFieldElement(el, optional))
		case "sequence", "all":
			fields = append(fields, p.parseParticles(el, optional)...)
		case "choice":
			fields = append(fields, p.parseParticles(el, true)...)
		case "group":
			fields = append(fields, p.parseGroupRef(el))
		case "any", "annotation":
		}
	})
	return fields
}

func (p *parser) parseFieldElement(el *xmltree.Element, optional bool) Field {
	name := el.Attr("", "name")
	if name == "" {
		if ref := el.Attr("", "ref"); ref != "" {
			stop("element reference %q is not supported; declare the element with a name and type", ref)
		}
		stop("element without a name")
	}
	ref := el.Attr("", "type")
	if ref == "" {
		stop("element %q without a type reference", name)
	}
	min, max := p.parseOccurs(el)
	kind := Elem
	if max < 0 || max > 1 {
		kind = Elems
	}
	return Field{
		Kind:     kind,
		Name:     name,
		Type:     p.resolveRef(el, ref),
		Required: min >= 1 && !optional,
	}
}

func (p *parser) parseGroupRef(el *xmltree.Element) Field {
	ref := el.Attr("", "ref")
	if ref == "" {
		stop("group reference without a ref attribute")
	}
	name := p.resolveRef(el, ref)
	return Field{Kind: GroupRef, Name: name.Local, Type: name}
}

// parseAttribute returns ok=false for use="prohibited" declarations.
// An attribute without a type reference defaults to xs:string.
func (p *parser) parseAttribute(el *xmltree.Element) (Field, bool) {
	name := el.Attr("", "name")
	if name == "" {
		stop("attribute without a name")
	}
	typ := xml.Name{Space: XSDNamespace, Local: "string"}
	if ref := el.Attr("", "type"); ref != "" {
		typ = p.resolveRef(el, ref)
	}
	switch use := el.Attr("", "use"); use {
	case "prohibited":
		return Field{}, false
	case "", "optional", "required":
		return Field{
			Kind:     Attr,
			Name:     name,
			Type:     typ,
			Required: use == "required",
		}, true
	default:
		stop("attribute %q: invalid use %q", name, el.Attr("", "use"))
	}
	return Field{}, false
}

func (p *parser) parseGroup(el *xmltree.Element) {
	local := el.Attr("", "name")
	if local == "" {
		stop("group without a name")
	}
	if p.schema.Group(local) != nil {
		stop("duplicate group name %q", local)
	}
	g := &Group{Name: xml.Name{Space: p.schema.TargetNS, Local: local}}
	walk(el, func(child *xmltree.Element) {
		switch child.Name.Local {
		case "sequence", "all":
			g.Fields = append(g.Fields, p.parseParticles(child, false)...)
		case "choice":
			g.Fields = append(g.Fields, p.parseParticles(child, true)...)
		case "annotation":
		}
	})
	p.schema.Groups = append(p.schema.Groups, g)
}

func (p *parser) parseSimpleType(root *xmltree.Element) *SimpleType {
	var t SimpleType
	local := root.Attr("", "name")
	if local == "" {
		stop("simpleType without a name")
	}
	t.Name = xml.Name{Space: p.schema.TargetNS, Local: local}

	var restricted bool
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "restriction":
			restricted = true
			t.Restriction = p.parseRestriction(el)
		case "list", "union":
			// Ignoring these would silently change the type's value
			// space, so they are rejected outright.
			stop("simpleType %q: <%s> is not supported", local, el.Name.Local)
		case "annotation":
		}
	})
	if !restricted {
		stop("simpleType %q without a restriction", local)
	}
	return &t
}

func (p *parser) parseRestriction(root *xmltree.Element) Restriction {
	base := root.Attr("", "base")
	if base == "" {
		stop("restriction without a base type")
	}
	r := Restriction{Base: p.resolveRef(root, base)}
	seen := make(map[string]bool)
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "enumeration":
			v := el.Attr("", "value")
			if seen[v] {
				stop("duplicate enumeration value %q", v)
			}
			seen[v] = true
			r.Enum = append(r.Enum, v)
		case "pattern":
			r.Pattern = el.Attr("", "value")
		case "minLength":
			r.MinLength = p.parseFacetInt(el)
		case "maxLength":
			r.MaxLength = p.parseFacetInt(el)
		case "length":
			n := p.parseFacetInt(el)
			r.MinLength, r.MaxLength = n, n
		default:
			// Other facets are validation concerns, not typing
			// concerns.
		}
	})
	return r
}

func (p *parser) parseFacetInt(el *xmltree.Element) int {
	v := el.Attr("", "value")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		stop("invalid %s value %q", el.Name.Local, v)
	}
	return n
}

// parseOccurs returns the effective minOccurs and maxOccurs of a
// particle. Unbounded is reported as -1.
func (p *parser) parseOccurs(el *xmltree.Element) (min, max int) {
	min, max = 1, 1
	if v := el.Attr("", "minOccurs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			stop("invalid minOccurs %q", v)
		}
		min = n
	}
	if v := el.Attr("", "maxOccurs"); v != "" {
		if v == "unbounded" {
			return min, -1
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			stop("invalid maxOccurs %q", v)
		}
		max = n
	}
	return min, max
}
