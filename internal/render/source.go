// Package render serializes a normalized catalog: once as ordered JSON and
// once as a generated Go source file exposing the same data as nested
// attribute-accessible records.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"tilecatalog/pkg/provider"
)

// fileTemplate is the shell of the generated source file. Declarations are
// preformatted; the template only stamps the header.
const fileTemplate = `// Code generated by tilecatalog; DO NOT EDIT.

// Package providers is a Go representation of the tile providers defined by
// the leaflet-providers.js extension to Leaflet
// (https://github.com/leaflet-extras/leaflet-providers).
// Credit to the leaflet-providers.js project (BSD 2-Clause "Simplified"
// License) and the Leaflet Providers contributors.
//
// Generated at {{.Date}} from leaflet-providers at {{.Provenance}}.
package providers

import "tilecatalog/pkg/provider"

// Providers lists every tile provider in upstream definition order.
var Providers = provider.NewBunch(
{{.Declarations}},
)
`

var sourceTmpl = template.Must(template.New("providers").Parse(fileTemplate))

// Generator renders a normalized catalog to Go source. The clock is
// injectable so rendering stays reproducible under test.
type Generator struct {
	Now func() time.Time
}

// NewGenerator returns a Generator on the real clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// Source renders the generated providers file. Output is a pure function of
// the catalog, the provenance string and the clock: identical inputs yield
// byte-identical files.
func (g *Generator) Source(cat provider.Bunch, provenance string) ([]byte, error) {
	decls := make([]string, 0, cat.Len())
	for _, e := range cat.Entries() {
		switch node := e.Node.(type) {
		case provider.TileProvider:
			decls = append(decls, formatRecord(e.Key, node))
		case provider.Bunch:
			decls = append(decls, formatGroup(e.Key, node))
		default:
			return nil, fmt.Errorf("catalog entry %q: unsupported node type %T", e.Key, e.Node)
		}
	}

	var buf bytes.Buffer
	err := sourceTmpl.Execute(&buf, struct {
		Date         string
		Provenance   string
		Declarations string
	}{
		Date:         g.Now().UTC().Format("2006-01-02"),
		Provenance:   provenance,
		Declarations: indent(strings.Join(decls, ",\n"), "\t"),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering providers source: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON serializes the catalog in entry order, lossless with respect to the
// normalized records. Provenance is not embedded: JSON has no comments, so
// the pipeline reports it on the console instead.
func JSON(cat provider.Bunch) ([]byte, error) {
	return cat.MarshalJSON()
}

// formatRecord renders one leaf provider declaration, fields in record
// order.
func formatRecord(name string, p provider.TileProvider) string {
	var b strings.Builder
	fmt.Fprintf(&b, "provider.Rec(%q, provider.New(\n", name)
	for _, f := range p.Fields() {
		fmt.Fprintf(&b, "\tprovider.F(%q, %s),\n", f.Key, fieldLiteral(f.Value))
	}
	b.WriteString("))")
	return b.String()
}

// formatGroup renders a provider family as a nested bunch of variant
// records, variants in catalog order.
func formatGroup(name string, group provider.Bunch) string {
	variants := make([]string, 0, group.Len())
	for _, e := range group.Entries() {
		rec, ok := e.Node.(provider.TileProvider)
		if !ok {
			continue
		}
		variants = append(variants, formatRecord(e.Key, rec))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "provider.Group(%q, provider.NewBunch(\n", name)
	b.WriteString(indent(strings.Join(variants, ",\n"), "\t"))
	b.WriteString(",\n))")
	return b.String()
}

// fieldLiteral renders a record value as an unambiguous Go literal.
func fieldLiteral(v provider.Value) string {
	switch v.Kind() {
	case provider.KindString:
		return strconv.Quote(v.Str())
	case provider.KindNumber:
		return v.Num().String()
	case provider.KindBool:
		return strconv.FormatBool(v.Boolean())
	default:
		return fmt.Sprintf("provider.JSON(%s)", strconv.Quote(v.Raw()))
	}
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
