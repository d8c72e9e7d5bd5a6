package provider

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind discriminates the scalar forms a record field can hold.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindJSON
)

// Value is a single field value: a string, a number, a bool, or a verbatim
// JSON fragment for anything more structured (bounds arrays and the like).
// Numbers are carried as decimals so that numeric literals survive a
// parse/serialize round trip unchanged (19 stays 19, 0.5 stays 0.5).
type Value struct {
	kind Kind
	str  string
	num  decimal.Decimal
	b    bool
	raw  string
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// JSON wraps a verbatim JSON fragment. The fragment is emitted as-is when
// the record is serialized, so it must already be valid JSON.
func JSON(raw string) Value { return Value{kind: KindJSON, raw: raw} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() string { return v.str }

func (v Value) Num() decimal.Decimal { return v.num }

func (v Value) Boolean() bool { return v.b }

func (v Value) Raw() string { return v.raw }

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	default:
		return v.raw
	}
}

// MarshalJSON serializes the value without losing the original form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return jsonQuote(v.str), nil
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return []byte(v.raw), nil
	}
}
