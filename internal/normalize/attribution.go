package normalize

import (
	"fmt"
	"strings"

	"tilecatalog/internal/catalog"
)

// attributionPrefix marks a placeholder referencing another provider's
// attribution text, e.g. "{attribution.OpenStreetMap}".
const attributionPrefix = "{attribution."

// attributionSources are the providers whose attribution text other records
// reference by placeholder. Exactly these three are registered.
var attributionSources = []string{"OpenStreetMap", "Esri", "OpenMapSurfer"}

// AttributionTable maps placeholder tokens to resolved attribution strings.
// It is built once per run, before any provider is processed, and is
// read-only afterwards.
type AttributionTable struct {
	entries []attributionEntry
}

type attributionEntry struct {
	token string
	text  string
}

// Add registers a placeholder token and its resolved text. An existing
// token keeps its position and takes the new text.
func (t *AttributionTable) Add(token, text string) {
	for i := range t.entries {
		if t.entries[i].token == token {
			t.entries[i].text = text
			return
		}
	}
	t.entries = append(t.entries, attributionEntry{token: token, text: text})
}

// Len returns the number of registered tokens.
func (t AttributionTable) Len() int { return len(t.entries) }

// Resolve substitutes every registered token occurring in value, retrying
// across entries until no attribution placeholder remains. A placeholder
// that matches no entry is fatal.
func (t AttributionTable) Resolve(value string) (string, error) {
	if !strings.Contains(value, attributionPrefix) {
		return value, nil
	}
	for _, e := range t.entries {
		if !strings.Contains(value, e.token) {
			continue
		}
		value = strings.ReplaceAll(value, e.token, e.text)
		if !strings.Contains(value, attributionPrefix) {
			return value, nil
		}
	}
	return "", &UnknownAttributionError{Value: value}
}

// BuildAttributions reads the attribution text of the designated source
// providers out of the raw catalog. Every source must be present and carry
// options.attribution.
func BuildAttributions(raw *catalog.Raw) (AttributionTable, error) {
	var table AttributionTable
	for _, name := range attributionSources {
		p, ok := raw.Provider(name)
		if !ok {
			return AttributionTable{}, fmt.Errorf("attribution source %q not found in raw catalog", name)
		}
		attr, ok := p.Attribution()
		if !ok {
			return AttributionTable{}, fmt.Errorf("attribution source %q has no options.attribution", name)
		}
		table.Add(attributionPrefix+name+"}", attr)
	}
	return table, nil
}
