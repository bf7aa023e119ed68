package xmlrt

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/schemaforge/xmlschema/graph"
	"github.com/schemaforge/xmlschema/xmltree"
)

// Layouts accepted for dateTime content, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"15:04:05",
}

// Parse reads doc, which must be rooted at the top-level element named
// root, and coerces it into a Value using the schema graph. Content
// the schema does not mention is dropped.
func Parse(g *graph.Graph, root xml.Name, doc []byte) (Value, error) {
	d, err := Describe(g, root.Space)
	if err != nil {
		return nil, err
	}
	return d.ParseElement(root.Local, doc)
}

// Parse reads doc and coerces it into a Value. The document root must
// be one of the descriptor's top-level elements.
func (d *Descriptor) Parse(doc []byte) (Value, error) {
	return d.ParseElement("", doc)
}

// ParseElement is Parse with the expected root element fixed: a
// document rooted at any other element is rejected. An empty element
// name accepts any declared top-level element.
func (d *Descriptor) ParseElement(element string, doc []byte) (Value, error) {
	tree, err := xmltree.Parse(doc)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if element == "" {
		element = tree.Name.Local
	}
	root, ok := d.Elements[element]
	if !ok {
		return nil, invalidf(nil, "no top-level element named %q", element)
	}
	if tree.Name.Local != element {
		return nil, invalidf(nil, "document is rooted at %q, expected %q", tree.Name.Local, element)
	}
	if err := d.checkForm(tree.Name, nil); err != nil {
		return nil, err
	}
	path := []string{element}
	if root.Kind != KindComplex {
		v, err := d.parseScalar(root, tree.Text(), path)
		if err != nil {
			return nil, err
		}
		return Value{ScalarKey: v}, nil
	}
	return d.parseComplex(tree, root.Type, path)
}

// checkForm enforces the schema's element form: qualified documents
// put every element in the target namespace, unqualified documents
// use bare names throughout.
func (d *Descriptor) checkForm(name xml.Name, path []string) error {
	if d.Qualified {
		if name.Space != d.Namespace {
			return invalidf(path, "element %s must be qualified with namespace %s", name.Local, d.Namespace)
		}
	} else if name.Space != "" {
		return invalidf(path, "element %s must be unqualified", name.Local)
	}
	return nil
}

func (d *Descriptor) parseComplex(el *xmltree.Element, typ xml.Name, path []string) (Value, error) {
	t, ok := d.Types[typ]
	if !ok {
		return nil, invalidf(path, "no descriptor for type %s", typ.Local)
	}
	v := make(Value)

	for _, f := range t.Attributes {
		raw, present := lookupAttr(el, f.Name)
		if !present {
			if f.Required {
				return nil, invalidf(path, "missing required attribute %q", f.Name)
			}
			continue
		}
		coerced, err := d.parseScalar(f, raw, append(path, "@"+f.Name))
		if err != nil {
			return nil, err
		}
		v[f.Name] = coerced
	}

	for _, f := range t.Fields {
		matches := d.childElements(el, f.Name)
		switch {
		case f.Repeated:
			items := make([]interface{}, 0, len(matches))
			for _, child := range matches {
				item, err := d.parseField(f, child, append(path, f.Name))
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			v[f.Name] = items
		case len(matches) == 0:
			if f.Required {
				return nil, invalidf(path, "missing required element %q", f.Name)
			}
		default:
			// Surplus matches for a singular field are dropped, like
			// any other content the schema has no slot for.
			item, err := d.parseField(f, matches[0], append(path, f.Name))
			if err != nil {
				return nil, err
			}
			v[f.Name] = item
		}
	}
	return v, nil
}

func (d *Descriptor) parseField(f Field, el *xmltree.Element, path []string) (interface{}, error) {
	if f.Kind == KindComplex {
		return d.parseComplex(el, f.Type, path)
	}
	return d.parseScalar(f, el.Text(), path)
}

// childElements returns el's direct children matching name under the
// descriptor's form rules.
func (d *Descriptor) childElements(el *xmltree.Element, name string) []*xmltree.Element {
	var out []*xmltree.Element
	for i := range el.Children {
		child := &el.Children[i]
		if child.Name.Local != name {
			continue
		}
		if d.Qualified && child.Name.Space != d.Namespace {
			continue
		}
		if !d.Qualified && child.Name.Space != "" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func lookupAttr(el *xmltree.Element, name string) (string, bool) {
	for _, a := range el.StartElement.Attr {
		if a.Name.Local == name && a.Name.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

func (d *Descriptor) parseScalar(f Field, raw string, path []string) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	if len(f.Enum) > 0 && !contains(f.Enum, raw) {
		return nil, invalidf(path, "value %q is not one of %s", raw, strings.Join(f.Enum, ", "))
	}
	switch f.Kind {
	case KindBool:
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, invalidf(path, "cannot parse %q as bool", raw)
	case KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalidf(path, "cannot parse %q as number", raw)
		}
		return n, nil
	case KindDateTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, invalidf(path, "cannot parse %q as dateTime", raw)
	}
	return raw, nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
