// Package normalize flattens the raw leaflet-providers registry into a
// language-neutral catalog of TileProvider records.
//
// Each provider is processed independently: its options are merged over its
// top-level fields, variants are merged over the provider base, keys are
// canonicalized and attribution placeholders resolved. The attribution
// table is an explicit value threaded through the normalizer; there is no
// package-level state.
package normalize

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"tilecatalog/internal/catalog"
	"tilecatalog/pkg/provider"
)

// renameKeys are the camelCase keys canonicalized to snake_case, in the
// order rewrites are attempted. The same renames apply to placeholder
// tokens embedded in url templates.
var renameKeys = [][2]string{
	{"maxZoom", "max_zoom"},
	{"minZoom", "min_zoom"},
}

// Summary counts what one normalization pass produced.
type Summary struct {
	Providers int
	Variants  int
	Records   int
}

// Normalizer transforms raw provider definitions using a prebuilt
// attribution table.
type Normalizer struct {
	attributions AttributionTable
}

// New creates a normalizer around the given attribution table.
func New(table AttributionTable) *Normalizer {
	return &Normalizer{attributions: table}
}

// Catalog normalizes every provider of the raw registry in document order.
// The first failure aborts the pass.
func (n *Normalizer) Catalog(raw *catalog.Raw) (provider.Bunch, Summary, error) {
	var out provider.Bunch
	var sum Summary

	err := raw.Each(func(p catalog.Provider) error {
		node, err := n.Provider(p)
		if err != nil {
			return err
		}
		out.Put(p.Name, node)
		sum.Providers++
		switch v := node.(type) {
		case provider.Bunch:
			sum.Variants += v.Len()
			sum.Records += v.Len()
		default:
			sum.Records++
		}
		return nil
	})
	if err != nil {
		return provider.Bunch{}, Summary{}, err
	}
	return out, sum, nil
}

// Provider normalizes a single raw provider. A provider without variants
// yields a TileProvider; one with variants yields a Bunch keyed by variant
// short name.
func (n *Normalizer) Provider(p catalog.Provider) (provider.Node, error) {
	base, err := providerBase(p)
	if err != nil {
		return nil, err
	}

	if !p.HasVariants() {
		base.Set("name", provider.String(p.Name))
		rec, err := n.fieldPass(base)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", p.Name, err)
		}
		return rec, nil
	}

	var group provider.Bunch
	err = p.EachVariant(func(v catalog.Variant) error {
		rec := variantRecord(base, v)
		rec.Set("name", provider.String(p.Name+"."+v.Name))
		rec, err := n.fieldPass(rec)
		if err != nil {
			return fmt.Errorf("provider %q variant %q: %w", p.Name, v.Name, err)
		}
		group.Put(v.Name, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// providerBase merges a provider's top-level fields with its options
// sub-mapping, options winning on collision. A provider without options is
// malformed.
func providerBase(p catalog.Provider) (provider.TileProvider, error) {
	opts := p.Options()
	if !opts.Exists() {
		return provider.TileProvider{}, fmt.Errorf("provider %q: missing options", p.Name)
	}

	var base provider.TileProvider
	p.Fields(func(key string, value gjson.Result) {
		base.Set(key, catalog.Value(value))
	})
	opts.ForEach(func(key, value gjson.Result) bool {
		base.Set(key.String(), catalog.Value(value))
		return true
	})
	return base, nil
}

// variantRecord merges a variant definition over a copy of the provider
// base, the variant winning on collision. A string-form variant contributes
// a single "variant" field.
func variantRecord(base provider.TileProvider, v catalog.Variant) provider.TileProvider {
	rec := base.With()

	if suffix, ok := v.Suffix(); ok {
		rec.Set("variant", provider.String(suffix))
		return rec
	}

	v.Fields(func(key string, value gjson.Result) {
		rec.Set(key, catalog.Value(value))
	})
	vopts := v.Options()
	if vopts.Exists() {
		vopts.ForEach(func(key, value gjson.Result) bool {
			rec.Set(key.String(), catalog.Value(value))
			return true
		})
	}
	return rec
}

// fieldPass applies key renaming and placeholder resolution to one leaf
// record. At most one rule fires per key; everything else passes through
// unchanged. The pass is idempotent: renamed keys match no rule on a second
// application.
func (n *Normalizer) fieldPass(rec provider.TileProvider) (provider.TileProvider, error) {
	var out provider.TileProvider
	for _, f := range rec.Fields() {
		key, val := f.Key, f.Value
		switch {
		case key == "attribution" && val.Kind() == provider.KindString &&
			strings.Contains(val.Str(), attributionPrefix):
			resolved, err := n.attributions.Resolve(val.Str())
			if err != nil {
				return provider.TileProvider{}, err
			}
			val = provider.String(resolved)

		case renamed(key) != "":
			key = renamed(key)

		case key == "url" && val.Kind() == provider.KindString && urlNeedsRewrite(val.Str()):
			val = provider.String(rewriteURL(val.Str()))
		}
		out.Set(key, val)
	}
	return out, nil
}

func renamed(key string) string {
	for _, r := range renameKeys {
		if key == r[0] {
			return r[1]
		}
	}
	return ""
}

func urlNeedsRewrite(url string) bool {
	for _, r := range renameKeys {
		if strings.Contains(url, r[0]) {
			return true
		}
	}
	return false
}

// rewriteURL canonicalizes renameable placeholders embedded in a url
// template, e.g. {maxZoom} -> {max_zoom}. The NASAGIBS providers carry
// these. Runtime placeholders like {z} and {x} are untouched.
func rewriteURL(url string) string {
	for _, r := range renameKeys {
		url = strings.ReplaceAll(url, "{"+r[0]+"}", "{"+r[1]+"}")
	}
	return url
}
