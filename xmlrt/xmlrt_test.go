package xmlrt

import (
	"encoding/xml"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaforge/xmlschema/graph"
	"github.com/schemaforge/xmlschema/internal/testutil"
)

const ordersNS = "urn:example:orders"

const ordersXSD = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:ord="urn:example:orders"
           targetNamespace="urn:example:orders"
           elementFormDefault="unqualified">
  <xs:element name="ORDER" type="ord:OrderType"/>
  <xs:element name="LABEL" type="xs:string"/>
  <xs:complexType name="OrderType">
    <xs:sequence>
      <xs:element name="CUSTOMER" type="xs:string"/>
      <xs:element name="LINE" type="ord:LineType" minOccurs="0" maxOccurs="unbounded"/>
      <xs:element name="STATUS" type="ord:StatusType" minOccurs="0"/>
      <xs:element name="WHEN" type="xs:dateTime" minOccurs="0"/>
      <xs:element name="ACTIVE" type="xs:boolean" minOccurs="0"/>
    </xs:sequence>
    <xs:attribute name="ID" type="xs:string" use="required"/>
    <xs:attribute name="PRIORITY" type="xs:integer"/>
  </xs:complexType>
  <xs:complexType name="LineType">
    <xs:sequence>
      <xs:element name="SKU" type="xs:string"/>
      <xs:element name="QTY" type="xs:integer"/>
    </xs:sequence>
  </xs:complexType>
  <xs:simpleType name="StatusType">
    <xs:restriction base="xs:string">
      <xs:enumeration value="open"/>
      <xs:enumeration value="shipped"/>
      <xs:enumeration value="closed"/>
    </xs:restriction>
  </xs:simpleType>
</xs:schema>`

func ordersGraph(t *testing.T) *graph.Graph {
	t.Helper()
	loader := testutil.NewLoader(map[string]string{"orders.xsd": ordersXSD})
	g, err := graph.Resolve("orders.xsd", loader.Load, nil)
	require.NoError(t, err)
	return g
}

func orderName(local string) xml.Name {
	return xml.Name{Space: ordersNS, Local: local}
}

const orderDoc = `<ORDER ID="A-17" PRIORITY="3">
  <CUSTOMER>ACME &amp; Sons</CUSTOMER>
  <LINE><SKU>W-100</SKU><QTY>2</QTY></LINE>
  <LINE><SKU>W-200</SKU><QTY>5</QTY></LINE>
  <STATUS>open</STATUS>
  <WHEN>2024-05-01T10:30:00Z</WHEN>
  <ACTIVE>true</ACTIVE>
</ORDER>`

func TestParseDocument(t *testing.T) {
	g := ordersGraph(t)
	v, err := Parse(g, orderName("ORDER"), []byte(orderDoc))
	require.NoError(t, err)

	assert.Equal(t, "A-17", v["ID"])
	assert.Equal(t, float64(3), v["PRIORITY"])
	assert.Equal(t, "ACME & Sons", v["CUSTOMER"])
	assert.Equal(t, "open", v["STATUS"])
	assert.Equal(t, true, v["ACTIVE"])
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), v["WHEN"])

	lines, ok := v["LINE"].([]interface{})
	require.True(t, ok, "repeated element must be a slice")
	require.Len(t, lines, 2)
	first := lines[0].(Value)
	assert.Equal(t, "W-100", first["SKU"])
	assert.Equal(t, float64(2), first["QTY"])
}

func TestElemsCardinality(t *testing.T) {
	g := ordersGraph(t)

	v, err := Parse(g, orderName("ORDER"), []byte(`<ORDER ID="x"><CUSTOMER>a</CUSTOMER></ORDER>`))
	require.NoError(t, err)
	lines, ok := v["LINE"].([]interface{})
	require.True(t, ok, "repeated element key is always present")
	assert.Empty(t, lines)

	v, err = Parse(g, orderName("ORDER"), []byte(
		`<ORDER ID="x"><CUSTOMER>a</CUSTOMER><LINE><SKU>s</SKU><QTY>1</QTY></LINE></ORDER>`))
	require.NoError(t, err)
	assert.Len(t, v["LINE"], 1, "a single match is still a slice")
}

func TestMissingRequiredElement(t *testing.T) {
	g := ordersGraph(t)
	_, err := Parse(g, orderName("ORDER"), []byte(`<ORDER ID="x"></ORDER>`))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "CUSTOMER")
	assert.Equal(t, []string{"ORDER"}, verr.Path)
}

func TestMissingRequiredAttribute(t *testing.T) {
	g := ordersGraph(t)
	_, err := Parse(g, orderName("ORDER"), []byte(`<ORDER><CUSTOMER>a</CUSTOMER></ORDER>`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "ID")
}

func TestUnknownContentDropped(t *testing.T) {
	g := ordersGraph(t)
	v, err := Parse(g, orderName("ORDER"), []byte(
		`<ORDER ID="x" color="red"><CUSTOMER>a</CUSTOMER><GIFTWRAP>yes</GIFTWRAP></ORDER>`))
	require.NoError(t, err)
	assert.NotContains(t, v, "GIFTWRAP")
	assert.NotContains(t, v, "color")
}

func TestCoercionErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"bad bool", `<ORDER ID="x"><CUSTOMER>a</CUSTOMER><ACTIVE>yes</ACTIVE></ORDER>`, "bool"},
		{"bad number", `<ORDER ID="x" PRIORITY="high"><CUSTOMER>a</CUSTOMER></ORDER>`, "number"},
		{"bad date", `<ORDER ID="x"><CUSTOMER>a</CUSTOMER><WHEN>yesterday</WHEN></ORDER>`, "dateTime"},
		{"bad enum", `<ORDER ID="x"><CUSTOMER>a</CUSTOMER><STATUS>lost</STATUS></ORDER>`, "not one of"},
	}
	g := ordersGraph(t)
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(g, orderName("ORDER"), []byte(tt.doc))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScalarRootElement(t *testing.T) {
	g := ordersGraph(t)
	v, err := Parse(g, orderName("LABEL"), []byte(`<LABEL>fragile</LABEL>`))
	require.NoError(t, err)
	assert.Equal(t, Value{ScalarKey: "fragile"}, v)

	out, err := Build(g, orderName("LABEL"), v, nil)
	require.NoError(t, err)
	assert.Equal(t, `<LABEL>fragile</LABEL>`, string(out))
}

func TestRoundTrip(t *testing.T) {
	g := ordersGraph(t)
	v, err := Parse(g, orderName("ORDER"), []byte(orderDoc))
	require.NoError(t, err)

	out, err := Build(g, orderName("ORDER"), v, nil)
	require.NoError(t, err)

	again, err := Parse(g, orderName("ORDER"), out)
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestBuildMissingRequired(t *testing.T) {
	g := ordersGraph(t)
	_, err := Build(g, orderName("ORDER"), Value{"ID": "x"}, nil)
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, err.Error(), "CUSTOMER")
}

func TestBuildWrongType(t *testing.T) {
	g := ordersGraph(t)
	_, err := Build(g, orderName("ORDER"), Value{"ID": "x", "CUSTOMER": 42}, nil)
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, err.Error(), "expected string")
}

func TestBuildEnumViolation(t *testing.T) {
	g := ordersGraph(t)
	_, err := Build(g, orderName("ORDER"), Value{
		"ID":       "x",
		"CUSTOMER": "a",
		"STATUS":   "lost",
	}, nil)
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, err.Error(), "not one of")
}

func TestBuildPretty(t *testing.T) {
	g := ordersGraph(t)
	out, err := Build(g, orderName("ORDER"), Value{
		"ID":       "x",
		"CUSTOMER": "a",
	}, &BuildOptions{Pretty: true})
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  <CUSTOMER>")
}

func TestBuildRootElementOverride(t *testing.T) {
	g := ordersGraph(t)
	out, err := Build(g, orderName("ORDER"), Value{
		"ID":       "x",
		"CUSTOMER": "a",
	}, &BuildOptions{RootElement: "PURCHASE"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `<PURCHASE `), string(out))
}

func TestMalformedDocument(t *testing.T) {
	g := ordersGraph(t)
	_, err := Parse(g, orderName("ORDER"), []byte(`<ORDER><CUSTOMER>`))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseWrongRoot(t *testing.T) {
	g := ordersGraph(t)
	_, err := Parse(g, orderName("ORDER"), []byte(`<INVOICE ID="x"/>`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDescriptorParseInfersRoot(t *testing.T) {
	d, err := Describe(ordersGraph(t), ordersNS)
	require.NoError(t, err)

	v, err := d.Parse([]byte(`<LABEL>fragile</LABEL>`))
	require.NoError(t, err)
	assert.Equal(t, "fragile", v[ScalarKey])

	_, err = d.Parse([]byte(`<NOBODY/>`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestQualifiedForm(t *testing.T) {
	data, err := os.ReadFile("../schema/testdata/library.xsd")
	require.NoError(t, err)
	g, err := graph.Resolve("library.xsd", func(string) ([]byte, error) {
		return data, nil
	}, nil)
	require.NoError(t, err)

	libNS := "urn:example:library"
	doc := `<lib:ENTRY05 xmlns:lib="urn:example:library" ID="R-5">
	  <lib:CALLNUMBER>QA76.73</lib:CALLNUMBER>
	  <lib:SOURCE01>donation</lib:SOURCE01>
	  <lib:VERIFIED01>true</lib:VERIFIED01>
	  <lib:NOTE05>first edition</lib:NOTE05>
	</lib:ENTRY05>`

	v, err := Parse(g, xml.Name{Space: libNS, Local: "ENTRY05"}, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "QA76.73", v["CALLNUMBER"], "inherited field parsed")
	assert.Equal(t, "donation", v["SOURCE01"], "group field parsed")
	assert.Equal(t, true, v["VERIFIED01"])

	out, err := Build(g, xml.Name{Space: libNS, Local: "ENTRY05"}, v, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), `xmlns:lib="urn:example:library"`)
	assert.Contains(t, string(out), "<lib:CALLNUMBER>")

	again, err := Parse(g, xml.Name{Space: libNS, Local: "ENTRY05"}, out)
	require.NoError(t, err)
	assert.Equal(t, v, again)

	// unqualified children are rejected under a qualified form default
	_, err = Parse(g, xml.Name{Space: libNS, Local: "ENTRY05"},
		[]byte(`<ENTRY05 ID="x"><CALLNUMBER>c</CALLNUMBER></ENTRY05>`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUnqualifiedRejectsQualified(t *testing.T) {
	g := ordersGraph(t)
	doc := `<o:ORDER xmlns:o="urn:example:orders" ID="x"><o:CUSTOMER>a</o:CUSTOMER></o:ORDER>`
	_, err := Parse(g, orderName("ORDER"), []byte(doc))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "unqualified")
}
