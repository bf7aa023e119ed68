package xmlrt

import (
	"fmt"
	"strings"
)

// A ParseError reports XML text that could not be read at all, before
// any schema rules applied.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("xmlrt: malformed document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// A ValidationError reports a well-formed document that violates the
// schema: a missing required field, an unparseable scalar, or a value
// outside its enumeration. Path locates the violation from the
// document root.
type ValidationError struct {
	Path    []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return "xmlrt: " + e.Message
	}
	return fmt.Sprintf("xmlrt: %s: %s", strings.Join(e.Path, ">"), e.Message)
}

// A BuildError reports a Value that cannot be rendered: a missing
// required field, a field holding the wrong dynamic type, or a value
// outside its enumeration.
type BuildError struct {
	Path    []string
	Message string
}

func (e *BuildError) Error() string {
	if len(e.Path) == 0 {
		return "xmlrt: build: " + e.Message
	}
	return fmt.Sprintf("xmlrt: build: %s: %s", strings.Join(e.Path, ">"), e.Message)
}

func invalidf(path []string, format string, v ...interface{}) *ValidationError {
	return &ValidationError{Path: append([]string(nil), path...), Message: fmt.Sprintf(format, v...)}
}

func buildErrf(path []string, format string, v ...interface{}) *BuildError {
	return &BuildError{Path: append([]string(nil), path...), Message: fmt.Sprintf(format, v...)}
}
