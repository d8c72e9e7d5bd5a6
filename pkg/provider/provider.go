// Package provider defines the ordered record types the normalized tile
// provider catalog is built from: TileProvider, a flat field list with
// attribute-style access and copy-on-write overrides, and Bunch, an ordered
// mapping of named providers or nested groups.
//
// Field order is significant. Merge precedence while normalizing and the
// byte-for-byte stability of the generated artifacts both depend on
// insertion order, so records never degrade into unordered Go maps.
package provider

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Node is either a TileProvider leaf or a Bunch of named nodes.
type Node interface {
	json.Marshaler
	isNode()
}

// Field is one key/value pair of a TileProvider record.
type Field struct {
	Key   string
	Value Value
}

// F builds a Field from a plain Go value. Generated catalog code is written
// in terms of F so provider declarations read as simple literals.
func F(key string, value any) Field {
	switch v := value.(type) {
	case Value:
		return Field{Key: key, Value: v}
	case string:
		return Field{Key: key, Value: String(v)}
	case int:
		return Field{Key: key, Value: Number(decimal.NewFromInt(int64(v)))}
	case int64:
		return Field{Key: key, Value: Number(decimal.NewFromInt(v))}
	case float64:
		return Field{Key: key, Value: Number(decimal.NewFromFloat(v))}
	case decimal.Decimal:
		return Field{Key: key, Value: Number(v)}
	case bool:
		return Field{Key: key, Value: Bool(v)}
	default:
		return Field{Key: key, Value: String(fmt.Sprint(v))}
	}
}

// TileProvider is a flat, ordered record describing one tile source.
type TileProvider struct {
	fields []Field
}

// New builds a TileProvider from fields in declaration order.
func New(fields ...Field) TileProvider {
	p := TileProvider{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		p.Set(f.Key, f.Value)
	}
	return p
}

func (TileProvider) isNode() {}

// Set assigns a field. An existing key keeps its position and takes the new
// value; a new key is appended. These are plain dict-update semantics, which
// is what the merge rules of normalization are defined against.
func (p *TileProvider) Set(key string, v Value) {
	for i := range p.fields {
		if p.fields[i].Key == key {
			p.fields[i].Value = v
			return
		}
	}
	p.fields = append(p.fields, Field{Key: key, Value: v})
}

// Get returns the value for key.
func (p TileProvider) Get(key string) (Value, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether the record carries key.
func (p TileProvider) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Name returns the fully qualified provider name ("provider" or
// "provider.variant").
func (p TileProvider) Name() string {
	v, _ := p.Get("name")
	return v.Str()
}

// URL returns the url template with its {z}/{x}/{y} style placeholders
// intact; substitution is the consumer's business.
func (p TileProvider) URL() string {
	v, _ := p.Get("url")
	return v.Str()
}

// Fields returns the record's fields in order. The slice is a copy.
func (p TileProvider) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Len returns the number of fields.
func (p TileProvider) Len() int { return len(p.fields) }

// With derives a new record with the overrides applied. The receiver is
// copied first and left unmodified; overridden keys keep their original
// position, new keys are appended.
func (p TileProvider) With(overrides ...Field) TileProvider {
	derived := TileProvider{fields: make([]Field, len(p.fields))}
	copy(derived.fields, p.fields)
	for _, f := range overrides {
		derived.Set(f.Key, f.Value)
	}
	return derived
}

// MarshalJSON serializes the record as a JSON object in field order.
func (p TileProvider) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(jsonQuote(f.Key))
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Entry is one named member of a Bunch.
type Entry struct {
	Key  string
	Node Node
}

// Rec names a leaf provider record inside a Bunch.
func Rec(name string, p TileProvider) Entry { return Entry{Key: name, Node: p} }

// Group names a nested Bunch inside a Bunch.
func Group(name string, b Bunch) Entry { return Entry{Key: name, Node: b} }

// Bunch is an ordered mapping of names to providers or nested groups.
type Bunch struct {
	entries []Entry
}

// NewBunch builds a Bunch from entries in declaration order.
func NewBunch(entries ...Entry) Bunch {
	b := Bunch{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		b.Put(e.Key, e.Node)
	}
	return b
}

func (Bunch) isNode() {}

// Put assigns an entry with the same position-keeping semantics as
// TileProvider.Set.
func (b *Bunch) Put(key string, n Node) {
	for i := range b.entries {
		if b.entries[i].Key == key {
			b.entries[i].Node = n
			return
		}
	}
	b.entries = append(b.entries, Entry{Key: key, Node: n})
}

// Get returns the node stored under key.
func (b Bunch) Get(key string) (Node, bool) {
	for _, e := range b.entries {
		if e.Key == key {
			return e.Node, true
		}
	}
	return nil, false
}

// Provider returns the leaf record stored under key, if key names a leaf.
func (b Bunch) Provider(key string) (TileProvider, bool) {
	n, ok := b.Get(key)
	if !ok {
		return TileProvider{}, false
	}
	p, ok := n.(TileProvider)
	return p, ok
}

// Entries returns the members in order. The slice is a copy.
func (b Bunch) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b Bunch) Len() int { return len(b.entries) }

// MarshalJSON serializes the bunch as a JSON object in entry order.
func (b Bunch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range b.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(jsonQuote(e.Key))
		buf.WriteByte(':')
		val, err := e.Node.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonQuote(s string) []byte {
	out, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		panic(err)
	}
	return out
}
