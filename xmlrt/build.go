package xmlrt

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/schemaforge/xmlschema/graph"
	"github.com/schemaforge/xmlschema/xmltree"
)

// BuildOptions adjust document rendering. The zero value produces a
// compact document rooted at the element's declared name.
type BuildOptions struct {
	// Pretty indents the output with two spaces per level.
	Pretty bool
	// RootElement overrides the local name of the emitted root
	// element.
	RootElement string
}

// Build renders v as an XML document rooted at the top-level element
// named root. Only fields the schema declares are emitted; a missing
// required field or a mistyped value is a BuildError.
func Build(g *graph.Graph, root xml.Name, v Value, opts *BuildOptions) ([]byte, error) {
	d, err := Describe(g, root.Space)
	if err != nil {
		return nil, err
	}
	return d.Build(root.Local, v, opts)
}

// Build renders v as a document rooted at the named top-level element.
func (d *Descriptor) Build(element string, v Value, opts *BuildOptions) ([]byte, error) {
	if opts == nil {
		opts = &BuildOptions{}
	}
	root, ok := d.Elements[element]
	if !ok {
		return nil, buildErrf(nil, "no top-level element named %q", element)
	}
	local := element
	if opts.RootElement != "" {
		local = opts.RootElement
	}

	el := &xmltree.Element{
		StartElement: xml.StartElement{Name: d.elementName(local)},
	}
	if d.Qualified {
		el.Scope = []xml.Name{{Space: d.Namespace, Local: d.Prefix}}
	}

	path := []string{element}
	if root.Kind != KindComplex {
		scalar, ok := v[ScalarKey]
		if !ok {
			return nil, buildErrf(path, "missing %q entry for scalar element", ScalarKey)
		}
		text, err := d.renderScalar(root, scalar, path)
		if err != nil {
			return nil, err
		}
		el.Content = []byte(text)
	} else if err := d.buildComplex(el, root.Type, v, path); err != nil {
		return nil, err
	}

	if opts.Pretty {
		return xmltree.MarshalIndent(el, "  "), nil
	}
	return xmltree.Marshal(el), nil
}

func (d *Descriptor) elementName(local string) xml.Name {
	if d.Qualified {
		return xml.Name{Space: d.Namespace, Local: local}
	}
	return xml.Name{Local: local}
}

func (d *Descriptor) buildComplex(el *xmltree.Element, typ xml.Name, v Value, path []string) error {
	t, ok := d.Types[typ]
	if !ok {
		return buildErrf(path, "no descriptor for type %s", typ.Local)
	}

	for _, f := range t.Attributes {
		raw, present := v[f.Name]
		if !present {
			if f.Required {
				return buildErrf(path, "missing required attribute %q", f.Name)
			}
			continue
		}
		text, err := d.renderScalar(f, raw, append(path, "@"+f.Name))
		if err != nil {
			return err
		}
		el.StartElement.Attr = append(el.StartElement.Attr, xml.Attr{
			Name:  xml.Name{Local: f.Name},
			Value: text,
		})
	}

	for _, f := range t.Fields {
		raw, present := v[f.Name]
		if !present {
			if f.Required && !f.Repeated {
				return buildErrf(path, "missing required element %q", f.Name)
			}
			continue
		}
		if f.Repeated {
			items, ok := raw.([]interface{})
			if !ok {
				return buildErrf(append(path, f.Name), "expected []interface{}, got %T", raw)
			}
			for _, item := range items {
				if err := d.buildField(el, f, item, append(path, f.Name)); err != nil {
					return err
				}
			}
			continue
		}
		if err := d.buildField(el, f, raw, append(path, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) buildField(parent *xmltree.Element, f Field, raw interface{}, path []string) error {
	child := xmltree.Element{
		StartElement: xml.StartElement{Name: d.elementName(f.Name)},
		Scope:        parent.Scope,
	}
	if f.Kind == KindComplex {
		nested, ok := raw.(Value)
		if !ok {
			return buildErrf(path, "expected map[string]interface{}, got %T", raw)
		}
		if err := d.buildComplex(&child, f.Type, nested, path); err != nil {
			return err
		}
	} else {
		text, err := d.renderScalar(f, raw, path)
		if err != nil {
			return err
		}
		child.Content = []byte(text)
	}
	parent.Children = append(parent.Children, child)
	return nil
}

func (d *Descriptor) renderScalar(f Field, raw interface{}, path []string) (string, error) {
	var text string
	switch f.Kind {
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return "", buildErrf(path, "expected bool, got %T", raw)
		}
		text = strconv.FormatBool(b)
	case KindNumber:
		n, ok := raw.(float64)
		if !ok {
			return "", buildErrf(path, "expected float64, got %T", raw)
		}
		text = strconv.FormatFloat(n, 'g', -1, 64)
	case KindDateTime:
		t, ok := raw.(time.Time)
		if !ok {
			return "", buildErrf(path, "expected time.Time, got %T", raw)
		}
		text = t.Format(time.RFC3339)
	default:
		s, ok := raw.(string)
		if !ok {
			return "", buildErrf(path, "expected string, got %T", raw)
		}
		text = s
	}
	if len(f.Enum) > 0 && !contains(f.Enum, text) {
		return "", buildErrf(path, "value %q is not one of %s", text, strings.Join(f.Enum, ", "))
	}
	return text, nil
}
