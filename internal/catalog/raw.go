// Package catalog models the raw leaflet-providers registry document.
//
// The document comes straight out of the browser as one JSON object. Every
// walk over it goes through gjson against the original bytes, so key order
// is always document order; converting to Go maps would scramble both merge
// precedence and the order of the generated output.
package catalog

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Raw is the raw provider registry exactly as scraped.
type Raw struct {
	data []byte
	doc  gjson.Result
}

// ParseRaw validates and wraps a raw registry document.
func ParseRaw(data []byte) (*Raw, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("raw provider document is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("raw provider document is not a JSON object")
	}
	return &Raw{data: data, doc: doc}, nil
}

// Bytes returns the document verbatim, for the raw JSON artifact.
func (r *Raw) Bytes() []byte { return r.data }

// Len returns the number of top-level providers.
func (r *Raw) Len() int {
	n := 0
	r.doc.ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n
}

// Each visits every provider in document order. A non-nil error from fn
// stops the walk and is returned.
func (r *Raw) Each(fn func(p Provider) error) error {
	var walkErr error
	r.doc.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			walkErr = fmt.Errorf("provider %q: definition is not an object", key.String())
			return false
		}
		if err := fn(Provider{Name: key.String(), node: value}); err != nil {
			walkErr = err
			return false
		}
		return true
	})
	return walkErr
}

// Provider looks up a single provider by name.
func (r *Raw) Provider(name string) (Provider, bool) {
	node := r.doc.Get(name)
	if !node.Exists() || !node.IsObject() {
		return Provider{}, false
	}
	return Provider{Name: name, node: node}, true
}

// Provider is one raw provider definition. Whether it is a plain leaf or a
// family of variants is decided solely by the presence of "variants".
type Provider struct {
	Name string
	node gjson.Result
}

// HasVariants reports whether the provider defines named variants.
func (p Provider) HasVariants() bool {
	return p.node.Get("variants").Exists()
}

// Fields visits the provider's own top-level fields in document order,
// skipping the structural "options" and "variants" keys.
func (p Provider) Fields(fn func(key string, value gjson.Result)) {
	p.node.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if k == "options" || k == "variants" {
			return true
		}
		fn(k, value)
		return true
	})
}

// Options returns the provider's options sub-mapping; the result may not
// exist, which callers treat as empty.
func (p Provider) Options() gjson.Result {
	return p.node.Get("options")
}

// Attribution returns options.attribution, used to seed the attribution
// table from the designated source providers.
func (p Provider) Attribution() (string, bool) {
	attr := p.node.Get("options.attribution")
	if !attr.Exists() || attr.Type != gjson.String {
		return "", false
	}
	return attr.String(), true
}

// EachVariant visits every variant in document order. Calling it on a
// provider without variants is a structural error.
func (p Provider) EachVariant(fn func(v Variant) error) error {
	variants := p.node.Get("variants")
	if !variants.Exists() {
		return fmt.Errorf("provider %q has no variants", p.Name)
	}
	var walkErr error
	variants.ForEach(func(key, value gjson.Result) bool {
		if err := fn(Variant{Name: key.String(), node: value}); err != nil {
			walkErr = err
			return false
		}
		return true
	})
	return walkErr
}

// Variant is one raw variant definition: either a bare url-suffix string or
// a nested mapping with its own fields and options.
type Variant struct {
	Name string
	node gjson.Result
}

// Suffix returns the variant's url suffix when the variant is defined as a
// plain string.
func (v Variant) Suffix() (string, bool) {
	if v.node.Type == gjson.String {
		return v.node.String(), true
	}
	return "", false
}

// Fields visits the variant's own fields in document order, skipping the
// structural "options" key. Only meaningful for mapping-form variants.
func (v Variant) Fields(fn func(key string, value gjson.Result)) {
	if !v.node.IsObject() {
		return
	}
	v.node.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "options" {
			return true
		}
		fn(key.String(), value)
		return true
	})
}

// Options returns the variant's nested options sub-mapping, which may not
// exist.
func (v Variant) Options() gjson.Result {
	if !v.node.IsObject() {
		return gjson.Result{}
	}
	return v.node.Get("options")
}
