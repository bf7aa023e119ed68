package codegen

import (
	"encoding/xml"
	"fmt"
	"go/ast"
	"strings"
	"unicode"

	"github.com/schemaforge/xmlschema/graph"
	"github.com/schemaforge/xmlschema/internal/gen"
	"github.com/schemaforge/xmlschema/internal/ordered"
	"github.com/schemaforge/xmlschema/schema"
	"github.com/schemaforge/xmlschema/xmlrt"
)

// Raw emits the runtime descriptor as a package-level variable named
// <Name>Schema, shared by every caller of the generated Parse and
// Build functions.
type Raw struct{}

func (Raw) EmitSchema(data *SchemaData) ([]byte, error) {
	ident := schemaIdent(data)
	decl := fmt.Sprintf("var %s = %s", ident, descriptorLiteral(data.Descriptor))
	return emit(data, decl, ident)
}

// Factory emits the runtime descriptor behind a New<Name>Schema
// constructor that returns a freshly built descriptor on every call.
type Factory struct{}

func (Factory) EmitSchema(data *SchemaData) ([]byte, error) {
	ident := schemaIdent(data)
	decl := fmt.Sprintf("func New%s() *xmlrt.Descriptor {\n\treturn %s\n}",
		ident, descriptorLiteral(data.Descriptor))
	return emit(data, decl, "New"+ident+"()")
}

// schemaIdent derives the Go identifier for a schema's descriptor from
// its bound prefix, falling back to the package name.
func schemaIdent(data *SchemaData) string {
	base := data.Prefix
	if base == "" {
		base = data.Package
	}
	return gen.Exported(base) + "Schema"
}

// emit assembles the full source file: imports, simple type
// declarations, one struct per complex type, the descriptor
// declaration, and the Parse/Build entry points delegating to the
// runtime through accessor.
func emit(data *SchemaData, descriptorDecl, accessor string) ([]byte, error) {
	var decls []ast.Decl

	imports, err := gen.Declarations(`import (
		"encoding/xml"
		"time"

		"github.com/schemaforge/xmlschema/xmlrt"
	)`)
	if err != nil {
		return nil, err
	}
	decls = append(decls, imports...)

	for _, st := range data.SimpleTypes {
		decls = append(decls, simpleTypeDecls(data, st)...)
	}
	for _, t := range data.Types {
		decls = append(decls, gen.TypeDecl(gen.Public(t.Name.Local), structExpr(data, t)))
	}

	desc, err := gen.Declarations(descriptorDecl)
	if err != nil {
		return nil, err
	}
	decls = append(decls, desc...)

	parse, err := gen.Func("Parse").
		Comment("Parse reads an XML document rooted at one of the schema's top-level elements.").
		Args("doc []byte").
		Returns("xmlrt.Value", "error").
		Body("return %s.Parse(doc)", accessor).
		Source()
	if err != nil {
		return nil, err
	}
	build, err := gen.Func("Build").
		Comment("Build renders v as an XML document rooted at the named top-level element.").
		Args("element string", "v xmlrt.Value", "opts *xmlrt.BuildOptions").
		Returns("[]byte", "error").
		Body("return %s.Build(element, v, opts)", accessor).
		Source()
	if err != nil {
		return nil, err
	}

	file := &ast.File{
		Name:  ast.NewIdent(data.Package),
		Decls: decls,
	}
	gen.PackageDoc(file,
		"Code generated from the schema for "+data.Namespace+". DO NOT EDIT.")
	return gen.FormattedSource(file, parse, build)
}

// simpleTypeDecls declares a named Go type for a simple type, plus a
// constant per enumeration value when the type is string backed. The
// base may itself be a simple type, so the restriction chain is
// followed to its built-in before picking the Go type.
func simpleTypeDecls(data *SchemaData, st *schema.SimpleType) []ast.Decl {
	name := gen.Exported(st.Name.Local)
	goType := scalarGoTypeIn(data.Graph, st.Restriction.Base)
	decls := []ast.Decl{
		gen.TypeDecl(ast.NewIdent(name), ast.NewIdent(goType)),
	}
	if len(st.Restriction.Enum) > 0 && goType == "string" {
		args := make([]string, 0, 3*len(st.Restriction.Enum))
		for _, v := range st.Restriction.Enum {
			args = append(args, name+identFrom(v), name, v)
		}
		decls = append(decls, gen.ConstString(args...))
	}
	return decls
}

func structExpr(data *SchemaData, t *graph.MergedType) *ast.StructType {
	var fields []ast.Expr
	for _, f := range t.Attributes {
		tag := fmt.Sprintf(`xml:"%s,attr"`, f.Name)
		if !f.Required {
			tag = fmt.Sprintf(`xml:"%s,attr,omitempty"`, f.Name)
		}
		fields = append(fields, gen.Public(f.Name), fieldExpr(data, f), gen.String(tag))
	}
	for _, f := range t.Fields {
		tag := fmt.Sprintf(`xml:"%s"`, f.Name)
		fields = append(fields, gen.Public(f.Name), fieldExpr(data, f), gen.String(tag))
	}
	return gen.Struct(fields...)
}

// fieldExpr maps a merged field to its Go type: slices for repeated
// fields, pointers for optional ones, named types for complex and
// same-namespace simple types, plain scalars otherwise.
func fieldExpr(data *SchemaData, f schema.Field) ast.Expr {
	var base ast.Expr
	switch {
	case data.Graph.IsComplex(f.Type):
		base = gen.Public(f.Type.Local)
	case f.Type.Space == data.Namespace && hasSimpleType(data, f.Type.Local):
		base = gen.Public(f.Type.Local)
	default:
		base = ast.NewIdent(scalarGoTypeIn(data.Graph, f.Type))
	}
	switch f.Kind {
	case schema.Elems:
		return &ast.ArrayType{Elt: base}
	default:
		if !f.Required {
			return &ast.StarExpr{X: base}
		}
		return base
	}
}

func hasSimpleType(data *SchemaData, local string) bool {
	for _, st := range data.SimpleTypes {
		if st.Name.Local == local {
			return true
		}
	}
	return false
}

func scalarGoTypeIn(g *graph.Graph, ref xml.Name) string {
	kind, _, err := g.ScalarKind(ref)
	if err != nil {
		return "string"
	}
	return goTypeFor(kind)
}

func goTypeFor(b schema.Builtin) string {
	switch b {
	case schema.Bool:
		return "bool"
	case schema.Number:
		return "float64"
	case schema.DateTime:
		return "time.Time"
	}
	return "string"
}

// identFrom turns an enumeration literal into an exported identifier
// suffix: non-alphanumeric runes are dropped and each word is
// capitalized.
func identFrom(value string) string {
	var b strings.Builder
	upper := true
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Value"
	}
	return b.String()
}

// descriptorLiteral renders a Descriptor as Go composite literal
// source. Map entries are written in sorted order so the emitted file
// is identical across runs.
func descriptorLiteral(d *xmlrt.Descriptor) string {
	var b strings.Builder
	b.WriteString("&xmlrt.Descriptor{\n")
	fmt.Fprintf(&b, "\tNamespace: %q,\n", d.Namespace)
	if d.Prefix != "" {
		fmt.Fprintf(&b, "\tPrefix: %q,\n", d.Prefix)
	}
	if d.Qualified {
		b.WriteString("\tQualified: true,\n")
	}
	b.WriteString("\tElements: map[string]xmlrt.Field{\n")
	ordered.Range(d.Elements, func(name string, f xmlrt.Field) {
		fmt.Fprintf(&b, "\t\t%q: %s,\n", name, fieldLiteral(f))
	})
	b.WriteString("\t},\n")
	b.WriteString("\tTypes: map[xml.Name]*xmlrt.Type{\n")
	ordered.RangeNames(d.Types, func(n xml.Name, t *xmlrt.Type) {
		fmt.Fprintf(&b, "\t\t%s: {\n", nameLiteral(n))
		fmt.Fprintf(&b, "\t\t\tName: %s,\n", nameLiteral(n))
		if len(t.Attributes) > 0 {
			b.WriteString("\t\t\tAttributes: []xmlrt.Field{\n")
			for _, f := range t.Attributes {
				fmt.Fprintf(&b, "\t\t\t\t%s,\n", fieldLiteral(f))
			}
			b.WriteString("\t\t\t},\n")
		}
		if len(t.Fields) > 0 {
			b.WriteString("\t\t\tFields: []xmlrt.Field{\n")
			for _, f := range t.Fields {
				fmt.Fprintf(&b, "\t\t\t\t%s,\n", fieldLiteral(f))
			}
			b.WriteString("\t\t\t},\n")
		}
		b.WriteString("\t\t},\n")
	})
	b.WriteString("\t},\n")
	b.WriteString("}")
	return b.String()
}

func fieldLiteral(f xmlrt.Field) string {
	parts := []string{fmt.Sprintf("Name: %q", f.Name)}
	if f.Kind != xmlrt.KindString {
		parts = append(parts, "Kind: "+kindLiteral(f.Kind))
	}
	if f.Kind == xmlrt.KindComplex {
		parts = append(parts, "Type: "+nameLiteral(f.Type))
	}
	if f.Repeated {
		parts = append(parts, "Repeated: true")
	}
	if f.Required {
		parts = append(parts, "Required: true")
	}
	if len(f.Enum) > 0 {
		quoted := make([]string, len(f.Enum))
		for i, v := range f.Enum {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		parts = append(parts, "Enum: []string{"+strings.Join(quoted, ", ")+"}")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func kindLiteral(k xmlrt.Kind) string {
	switch k {
	case xmlrt.KindBool:
		return "xmlrt.KindBool"
	case xmlrt.KindNumber:
		return "xmlrt.KindNumber"
	case xmlrt.KindDateTime:
		return "xmlrt.KindDateTime"
	case xmlrt.KindComplex:
		return "xmlrt.KindComplex"
	}
	return "xmlrt.KindString"
}

func nameLiteral(n xml.Name) string {
	return fmt.Sprintf("xml.Name{Space: %q, Local: %q}", n.Space, n.Local)
}
