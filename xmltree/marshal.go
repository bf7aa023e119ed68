package xmltree

import (
	"bytes"
	"encoding/xml"
	"io"
)

// Marshal produces the XML encoding of an Element as a self-contained
// document. The xmltree package may adjust the declarations of XML
// namespaces if the Element has been modified, or is part of a larger
// scope, such that the document produced by Marshal is a valid XML
// document.
func Marshal(el *Element) []byte {
	var buf bytes.Buffer
	if err := Encode(&buf, el); err != nil {
		// bytes.Buffer.Write should never return an error
		panic(err)
	}
	return buf.Bytes()
}

// MarshalIndent is like Marshal, but writes each element on a new
// line, indented by depth with the indent string.
func MarshalIndent(el *Element, indent string) []byte {
	var buf bytes.Buffer
	enc := encoder{w: &buf, indent: indent, pretty: true}
	if err := enc.encode(el, nil, 0); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Encode writes the XML encoding of the Element to w. Encode returns
// any errors encountered writing to w.
func Encode(w io.Writer, el *Element) error {
	enc := encoder{w: w}
	return enc.encode(el, nil, 0)
}

// String returns the XML encoding of an Element and its children as a
// string.
func (el *Element) String() string {
	return string(Marshal(el))
}

type encoder struct {
	w      io.Writer
	indent string
	pretty bool
}

// Namespace declarations captured in an Element's scope are re-emitted
// as xmlns attributes on the outermost element that introduced them.
// Declarations already made by the parent are not repeated.
func diffScope(parent, child *Element) []xml.Name {
	if parent == nil {
		return child.Scope
	}
	p, c := parent.Scope, child.Scope
	for len(p) > 0 && len(c) > 0 && p[0] == c[0] {
		p, c = p[1:], c[1:]
	}
	return c
}

func isNamespaceAttr(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

func (e *encoder) encode(el, parent *Element, depth int) error {
	if depth > recursionLimit {
		return errDeepXML
	}
	if e.pretty && depth > 0 {
		if err := e.writeString("\n"); err != nil {
			return err
		}
		for i := 0; i < depth; i++ {
			if err := e.writeString(e.indent); err != nil {
				return err
			}
		}
	}
	if err := e.encodeOpenTag(el, diffScope(parent, el)); err != nil {
		return err
	}
	if len(el.Children) == 0 {
		if err := xml.EscapeText(e.w, el.Content); err != nil {
			return err
		}
	}
	for i := range el.Children {
		if err := e.encode(&el.Children[i], el, depth+1); err != nil {
			return err
		}
	}
	if e.pretty && len(el.Children) > 0 {
		if err := e.writeString("\n"); err != nil {
			return err
		}
		for i := 0; i < depth; i++ {
			if err := e.writeString(e.indent); err != nil {
				return err
			}
		}
	}
	return e.encodeCloseTag(el)
}

func (e *encoder) writeString(s string) error {
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *encoder) encodeOpenTag(el *Element, scope []xml.Name) error {
	if err := e.writeString("<" + el.Prefix(el.Name)); err != nil {
		return err
	}
	for _, a := range el.StartElement.Attr {
		if isNamespaceAttr(a) {
			continue
		}
		name := a.Name.Local
		if a.Name.Space != "" {
			name = el.Prefix(a.Name)
		}
		if err := e.writeString(" " + name + `="`); err != nil {
			return err
		}
		if err := escapeAttr(e.w, a.Value); err != nil {
			return err
		}
		if err := e.writeString(`"`); err != nil {
			return err
		}
	}
	for _, ns := range scope {
		name := "xmlns"
		if ns.Local != "" {
			name += ":" + ns.Local
		}
		if err := e.writeString(" " + name + `="`); err != nil {
			return err
		}
		if err := escapeAttr(e.w, ns.Space); err != nil {
			return err
		}
		if err := e.writeString(`"`); err != nil {
			return err
		}
	}
	return e.writeString(">")
}

func (e *encoder) encodeCloseTag(el *Element) error {
	return e.writeString("</" + el.Prefix(el.Name) + ">")
}

func escapeAttr(w io.Writer, s string) error {
	return xml.EscapeText(w, []byte(s))
}
