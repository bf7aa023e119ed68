package graph

import (
	"encoding/xml"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaforge/xmlschema/internal/testutil"
	"github.com/schemaforge/xmlschema/schema"
)

func name(space, local string) xml.Name {
	return xml.Name{Space: space, Local: local}
}

// resolveFixture loads the library schema shared with the schema
// package's tests.
func resolveFixture(t *testing.T) *Graph {
	t.Helper()
	data, err := os.ReadFile("../schema/testdata/library.xsd")
	require.NoError(t, err)
	g, err := Resolve("library.xsd", func(string) ([]byte, error) {
		return data, nil
	}, nil)
	require.NoError(t, err)
	return g
}

func TestResolveSingleSchema(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"root.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:complexType name="T">
		    <xs:sequence><xs:element name="X" type="xs:string"/></xs:sequence>
		  </xs:complexType>
		</xs:schema>`,
	})
	g, err := Resolve("root.xsd", loader.Load, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"urn:a"}, g.Namespaces())
	_, ok := g.ComplexType(name("urn:a", "T"))
	assert.True(t, ok)
}

func TestResolveImports(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import namespace="urn:b" schemaLocation="b.xsd"/>
		  <xs:import namespace="urn:c" schemaLocation="c.xsd"/>
		</xs:schema>`,
		"b.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:b">
		  <xs:complexType name="B"/>
		</xs:schema>`,
		"c.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:c">
		  <xs:complexType name="C"/>
		</xs:schema>`,
	})
	g, err := Resolve("a.xsd", loader.Load, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"urn:a", "urn:b", "urn:c"}, g.Namespaces(),
		"namespaces must appear in discovery order")
	assert.True(t, g.IsComplex(name("urn:b", "B")))
	assert.True(t, g.IsComplex(name("urn:c", "C")))
}

func TestResolveDiamondLoadsOnce(t *testing.T) {
	// a imports b and c; both b and c import shared. The shared
	// document must be loaded and parsed exactly once.
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import namespace="urn:b" schemaLocation="b.xsd"/>
		  <xs:import namespace="urn:c" schemaLocation="c.xsd"/>
		</xs:schema>`,
		"b.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:b">
		  <xs:import namespace="urn:shared" schemaLocation="shared.xsd"/>
		</xs:schema>`,
		"c.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:c">
		  <xs:import namespace="urn:shared" schemaLocation="shared.xsd"/>
		</xs:schema>`,
		"shared.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:shared">
		  <xs:complexType name="S"/>
		</xs:schema>`,
	})
	g, err := Resolve("a.xsd", loader.Load, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.Loads["shared.xsd"])
	assert.True(t, g.IsComplex(name("urn:shared", "S")))
}

func TestResolveCyclicImportsTerminate(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import namespace="urn:b" schemaLocation="b.xsd"/>
		</xs:schema>`,
		"b.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:b">
		  <xs:import namespace="urn:a" schemaLocation="a.xsd"/>
		</xs:schema>`,
	})
	_, err := Resolve("a.xsd", loader.Load, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.Loads["a.xsd"])
	assert.Equal(t, 1, loader.Loads["b.xsd"])
}

func TestResolveUsesLocator(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"root": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import namespace="urn:b" schemaLocation="vendor://b"/>
		</xs:schema>`,
		"resolved:urn:b": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:b"/>`,
	})
	locate := func(location, namespace string) string {
		return "resolved:" + namespace
	}
	g, err := Resolve("root", loader.Load, locate)
	require.NoError(t, err)
	assert.NotNil(t, g.Schema("urn:b"))
}

func TestResolveLoadFailure(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import namespace="urn:b" schemaLocation="missing.xsd"/>
		</xs:schema>`,
	})
	_, err := Resolve("a.xsd", loader.Load, nil)
	require.Error(t, err)

	var uerr *UnresolvedImportError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "missing.xsd", uerr.ID)
	assert.Equal(t, "urn:b", uerr.Namespace)
	assert.Contains(t, err.Error(), "missing.xsd")
}

func TestResolveRootLoadFailure(t *testing.T) {
	loader := testutil.NewLoader(nil)
	_, err := Resolve("root.xsd", loader.Load, nil)
	require.Error(t, err)

	var uerr *UnresolvedImportError
	require.ErrorAs(t, err, &uerr)
	assert.Empty(t, uerr.Namespace)
	assert.Contains(t, err.Error(), "root schema")
}

func TestResolveWrapsParseError(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"bad.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:complexType/>
		</xs:schema>`,
	})
	_, err := Resolve("bad.xsd", loader.Load, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "bad.xsd"`)
	var perr *schema.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestSameNamespaceSchemasMerge(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import schemaLocation="a2.xsd"/>
		  <xs:complexType name="One"/>
		</xs:schema>`,
		"a2.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:complexType name="Two"/>
		</xs:schema>`,
	})
	g, err := Resolve("a.xsd", loader.Load, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"urn:a"}, g.Namespaces())
	s := g.Schema("urn:a")
	require.NotNil(t, s)
	assert.Len(t, s.ComplexTypes, 2)
}

func TestDuplicateTypeAcrossDocuments(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:import schemaLocation="a2.xsd"/>
		  <xs:complexType name="T"/>
		</xs:schema>`,
		"a2.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a">
		  <xs:complexType name="T"/>
		</xs:schema>`,
	})
	_, err := Resolve("a.xsd", loader.Load, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate type")
}

func TestScalarKind(t *testing.T) {
	loader := testutil.NewLoader(map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		    xmlns:a="urn:a" targetNamespace="urn:a">
		  <xs:simpleType name="Status">
		    <xs:restriction base="xs:string">
		      <xs:enumeration value="on"/>
		      <xs:enumeration value="off"/>
		    </xs:restriction>
		  </xs:simpleType>
		  <xs:simpleType name="NarrowStatus">
		    <xs:restriction base="a:Status">
		      <xs:maxLength value="2"/>
		    </xs:restriction>
		  </xs:simpleType>
		</xs:schema>`,
	})
	g, err := Resolve("a.xsd", loader.Load, nil)
	require.NoError(t, err)

	kind, enum, err := g.ScalarKind(name(schema.XSDNamespace, "int"))
	require.NoError(t, err)
	assert.Equal(t, schema.Number, kind)
	assert.Nil(t, enum)

	kind, enum, err = g.ScalarKind(name("urn:a", "Status"))
	require.NoError(t, err)
	assert.Equal(t, schema.String, kind)
	assert.Equal(t, []string{"on", "off"}, enum)

	// Derivation of a derivation still bottoms out at the builtin and
	// keeps the nearest enumeration on the chain.
	kind, enum, err = g.ScalarKind(name("urn:a", "NarrowStatus"))
	require.NoError(t, err)
	assert.Equal(t, schema.String, kind)
	assert.Equal(t, []string{"on", "off"}, enum)

	_, _, err = g.ScalarKind(name("urn:a", "NoSuchType"))
	var uerr *UnknownTypeRefError
	require.ErrorAs(t, err, &uerr)
}
