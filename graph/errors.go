package graph

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// An UnresolvedImportError reports that the loader could not produce
// source text for a resolved schema identifier.
type UnresolvedImportError struct {
	// The canonical identifier the locator produced.
	ID string
	// The raw schemaLocation and namespace of the import, when the
	// failure occurred while following a reference. Both are empty
	// for the root schema.
	Location  string
	Namespace string
	Err       error
}

func (e *UnresolvedImportError) Error() string {
	if e.Location == "" && e.Namespace == "" {
		return fmt.Sprintf("graph: cannot load root schema %q: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("graph: cannot load schema %q (import namespace=%q location=%q): %v",
		e.ID, e.Namespace, e.Location, e.Err)
}

func (e *UnresolvedImportError) Unwrap() error { return e.Err }

// An UnknownTypeRefError reports a reference to a type or group that
// does not exist anywhere in the schema graph.
type UnknownTypeRefError struct {
	// The unresolved reference.
	Ref xml.Name
	// What holds the reference: a type name, a field description,
	// or a group name.
	Context string
}

func (e *UnknownTypeRefError) Error() string {
	return fmt.Sprintf("graph: %s references unknown type {%s}%s",
		e.Context, e.Ref.Space, e.Ref.Local)
}

// A CyclicInheritanceError reports an extends chain (or group
// reference chain) that revisits one of its own members.
type CyclicInheritanceError struct {
	Chain []xml.Name
}

func (e *CyclicInheritanceError) Error() string {
	names := make([]string, 0, len(e.Chain))
	for _, n := range e.Chain {
		names = append(names, n.Local)
	}
	return "graph: cyclic inheritance: " + strings.Join(names, " -> ")
}
