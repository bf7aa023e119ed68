// Package testutil contains common utility functions for unit tests.
package testutil

import "fmt"

// A Loader serves schema documents from memory and counts how many
// times each identifier is requested, so tests can assert that
// resolution caches are working.
type Loader struct {
	Docs  map[string]string
	Loads map[string]int
}

// NewLoader returns a Loader serving the given documents.
func NewLoader(docs map[string]string) *Loader {
	return &Loader{Docs: docs, Loads: make(map[string]int)}
}

// Load retrieves the document with the given identifier.
func (l *Loader) Load(id string) ([]byte, error) {
	l.Loads[id]++
	doc, ok := l.Docs[id]
	if !ok {
		return nil, fmt.Errorf("no such document %q", id)
	}
	return []byte(doc), nil
}
