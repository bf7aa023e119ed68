package schema

import (
	"fmt"
	"strings"

	"github.com/schemaforge/xmlschema/xmltree"
)

// A ParseError describes a malformed or unrecognized construct in a
// schema document. Path leads from the schema root to the offending
// element, outermost first.
type ParseError struct {
	Message string
	Path    []string
}

func (e *ParseError) Error() string {
	if len(e.Path) == 0 {
		return "schema: " + e.Message
	}
	return "schema: error at " + strings.Join(e.Path, ">") + ": " + e.Message
}

// When working with an xml tree structure, we naturally have some
// pretty deep function calls. To save some typing, we use
// panic/recover to bubble the errors up. These panics are not exposed
// to the user.
func stop(format string, v ...interface{}) {
	panic(&ParseError{Message: fmt.Sprintf(format, v...)})
}

func breadcrumb(el *xmltree.Element) string {
	piece := el.Name.Local
	if name := el.Attr("", "name"); name != "" {
		piece = fmt.Sprintf("%s(%s)", piece, name)
	}
	return piece
}

// walk calls fn on each child of root, recording root in the error
// path if fn panics with a *ParseError. Schema constructs are matched
// by local name only; schema authors may bind any prefix (or none) to
// the schema-definition namespace.
func walk(root *xmltree.Element, fn func(*xmltree.Element)) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(*ParseError); ok {
				err.Path = append([]string{breadcrumb(root)}, err.Path...)
				panic(err)
			}
			panic(r)
		}
	}()
	for i := 0; i < len(root.Children); i++ {
		fn(&root.Children[i])
	}
}

// defer catchParseError(&err)
func catchParseError(err *error) {
	if r := recover(); r != nil {
		if perr, ok := r.(*ParseError); ok {
			*err = perr
			return
		}
		panic(r)
	}
}
