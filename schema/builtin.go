package schema

import (
	"encoding/xml"
	"fmt"
)

// The canonical namespace of the schema-definition dialect itself.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// A Builtin is one of the scalar kinds a field value may take at
// runtime. The many built-in datatypes of the XSD standard collapse
// onto these four kinds; the distinctions the standard draws between,
// say, int and unsignedShort are not useful for typing documents.
type Builtin int

const (
	String Builtin = iota
	Bool
	Number
	DateTime
)

func (b Builtin) String() string {
	switch b {
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case DateTime:
		return "dateTime"
	}
	return "string"
}

var builtinKinds = map[string]Builtin{
	"string":             String,
	"normalizedString":   String,
	"token":              String,
	"language":           String,
	"Name":               String,
	"NCName":             String,
	"NMTOKEN":            String,
	"ID":                 String,
	"IDREF":              String,
	"ENTITY":             String,
	"QName":              String,
	"anyURI":             String,
	"duration":           String,
	"base64Binary":       String,
	"hexBinary":          String,
	"boolean":            Bool,
	"decimal":            Number,
	"float":              Number,
	"double":             Number,
	"integer":            Number,
	"nonPositiveInteger": Number,
	"negativeInteger":    Number,
	"long":               Number,
	"int":                Number,
	"short":              Number,
	"byte":               Number,
	"nonNegativeInteger": Number,
	"unsignedLong":       Number,
	"unsignedInt":        Number,
	"unsignedShort":      Number,
	"unsignedByte":       Number,
	"positiveInteger":    Number,
	"date":               DateTime,
	"dateTime":           DateTime,
	"time":               DateTime,
}

// ParseBuiltin looks up a Builtin by its canonical name. If qname does
// not name a built-in type, ParseBuiltin returns a non-nil error.
func ParseBuiltin(qname xml.Name) (Builtin, error) {
	if qname.Space != XSDNamespace {
		return -1, fmt.Errorf("%s is not in the XML Schema namespace", qname.Local)
	}
	if b, ok := builtinKinds[qname.Local]; ok {
		return b, nil
	}
	return -1, fmt.Errorf("xsd:%s is not a built-in", qname.Local)
}
