package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"tilecatalog/pkg/provider"
)

// Value converts a raw JSON scalar to a record value. Numbers keep their
// original literal via decimal; anything non-scalar is carried as a
// verbatim JSON fragment.
func Value(res gjson.Result) provider.Value {
	switch res.Type {
	case gjson.String:
		return provider.String(res.String())
	case gjson.Number:
		d, err := decimal.NewFromString(res.Raw)
		if err != nil {
			return provider.JSON(res.Raw)
		}
		return provider.Number(d)
	case gjson.True:
		return provider.Bool(true)
	case gjson.False:
		return provider.Bool(false)
	case gjson.Null:
		return provider.JSON("null")
	default:
		return provider.JSON(res.Raw)
	}
}

// ParseNormalized reloads a parsed catalog dump into ordered records. A
// top-level entry carrying a url field is a leaf record; anything else is a
// group of variant records.
func ParseNormalized(data []byte) (provider.Bunch, error) {
	if !gjson.ValidBytes(data) {
		return provider.Bunch{}, fmt.Errorf("parsed catalog is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return provider.Bunch{}, fmt.Errorf("parsed catalog is not a JSON object")
	}

	var out provider.Bunch
	var walkErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !value.IsObject() {
			walkErr = fmt.Errorf("catalog entry %q: not an object", name)
			return false
		}
		if value.Get("url").Exists() {
			out.Put(name, record(value))
			return true
		}
		var group provider.Bunch
		value.ForEach(func(vkey, vval gjson.Result) bool {
			if !vval.IsObject() {
				walkErr = fmt.Errorf("catalog entry %q variant %q: not an object", name, vkey.String())
				return false
			}
			group.Put(vkey.String(), record(vval))
			return true
		})
		if walkErr != nil {
			return false
		}
		out.Put(name, group)
		return true
	})
	if walkErr != nil {
		return provider.Bunch{}, walkErr
	}
	return out, nil
}

func record(node gjson.Result) provider.TileProvider {
	var rec provider.TileProvider
	node.ForEach(func(key, value gjson.Result) bool {
		rec.Set(key.String(), Value(value))
		return true
	})
	return rec
}
