package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecatalog/internal/catalog"
	"tilecatalog/pkg/provider"
)

// registryFixture carries the three attribution sources plus the shapes the
// normalizer has to handle: plain providers, mapping variants, string
// variants and url placeholder renames.
const registryFixture = `{
	"OpenStreetMap": {
		"url": "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		"options": {"maxZoom": 19, "attribution": "(c) OpenStreetMap contributors"},
		"variants": {
			"Mapnik": {},
			"HOT": {
				"url": "https://tile-{s}.openstreetmap.fr/hot/{z}/{x}/{y}.png",
				"options": {"attribution": "{attribution.OpenStreetMap}, Humanitarian OSM Team"}
			}
		}
	},
	"Esri": {
		"url": "https://server.arcgisonline.com/{variant}/{z}/{y}/{x}",
		"options": {"variant": "World_Street_Map", "attribution": "Tiles (c) Esri"},
		"variants": {
			"WorldTopoMap": {
				"options": {"variant": "World_Topo_Map", "attribution": "{attribution.Esri} - Source: Esri et al."}
			}
		}
	},
	"OpenMapSurfer": {
		"url": "https://maps.heigit.org/openmapsurfer/tiles/{variant}/{z}/{x}/{y}.png",
		"options": {"maxZoom": 19, "variant": "roads", "attribution": "Imagery from GIScience"},
		"variants": {"Roads": "roads", "Hybrid": "hybrid"}
	},
	"NASAGIBS": {
		"url": "https://gibs.earthdata.nasa.gov/{variant}/{z}/{y}/{x}.jpg",
		"options": {
			"attribution": "Imagery provided by NASA",
			"minZoom": 1,
			"maxZoom": 9
		},
		"variants": {
			"ModisTerra": {
				"url": "https://gibs.earthdata.nasa.gov/{variant}/GoogleMapsCompatible_Level{maxZoom}/{z}/{y}/{x}.jpg"
			}
		}
	},
	"OpenSeaMap": {
		"url": "https://tiles.openseamap.org/seamark/{z}/{x}/{y}.png",
		"options": {"attribution": "Map data: {attribution.OpenStreetMap}"}
	}
}`

func mustRaw(t *testing.T, data string) *catalog.Raw {
	t.Helper()
	raw, err := catalog.ParseRaw([]byte(data))
	require.NoError(t, err)
	return raw
}

func fixtureNormalizer(t *testing.T) (*Normalizer, *catalog.Raw) {
	t.Helper()
	raw := mustRaw(t, registryFixture)
	table, err := BuildAttributions(raw)
	require.NoError(t, err)
	return New(table), raw
}

func TestBuildAttributions(t *testing.T) {
	raw := mustRaw(t, registryFixture)
	table, err := BuildAttributions(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	resolved, err := table.Resolve("Data by {attribution.OpenStreetMap}")
	require.NoError(t, err)
	assert.Equal(t, "Data by (c) OpenStreetMap contributors", resolved)
}

func TestBuildAttributionsMissingSource(t *testing.T) {
	raw := mustRaw(t, `{"OpenStreetMap": {"url": "u", "options": {"attribution": "a"}}}`)
	_, err := BuildAttributions(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Esri")
}

func TestResolveSubstitution(t *testing.T) {
	var table AttributionTable
	table.Add("{attribution.OpenStreetMap}", "(c) OSM")

	out, err := table.Resolve("Data by {attribution.OpenStreetMap}")
	require.NoError(t, err)
	assert.Equal(t, "Data by (c) OSM", out)

	// No placeholder: untouched.
	out, err = table.Resolve("plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestResolveMultipleTokens(t *testing.T) {
	var table AttributionTable
	table.Add("{attribution.OpenStreetMap}", "(c) OSM")
	table.Add("{attribution.Esri}", "(c) Esri")

	out, err := table.Resolve("{attribution.Esri}, base {attribution.OpenStreetMap}")
	require.NoError(t, err)
	assert.Equal(t, "(c) Esri, base (c) OSM", out)
}

func TestResolveUnknownAttributionFails(t *testing.T) {
	var table AttributionTable
	table.Add("{attribution.OpenStreetMap}", "(c) OSM")

	_, err := table.Resolve("{attribution.Unknown}")
	require.Error(t, err)
	var unknown *UnknownAttributionError
	require.True(t, errors.As(err, &unknown))
	assert.Contains(t, unknown.Value, "{attribution.Unknown}")

	// A known token does not rescue an unknown one next to it.
	_, err = table.Resolve("{attribution.OpenStreetMap} and {attribution.Unknown}")
	assert.Error(t, err)
}

func TestProviderWithoutVariants(t *testing.T) {
	n, raw := fixtureNormalizer(t)
	p, ok := raw.Provider("OpenSeaMap")
	require.True(t, ok)

	node, err := n.Provider(p)
	require.NoError(t, err)
	rec, isLeaf := node.(provider.TileProvider)
	require.True(t, isLeaf)

	assert.Equal(t, "OpenSeaMap", rec.Name())
	assert.False(t, rec.Has("options"))
	assert.False(t, rec.Has("variants"))

	attr, _ := rec.Get("attribution")
	assert.Equal(t, "Map data: (c) OpenStreetMap contributors", attr.Str())
}

func TestProviderWithVariants(t *testing.T) {
	n, raw := fixtureNormalizer(t)
	p, _ := raw.Provider("OpenStreetMap")

	node, err := n.Provider(p)
	require.NoError(t, err)
	group, isGroup := node.(provider.Bunch)
	require.True(t, isGroup)
	assert.Equal(t, 2, group.Len())

	// Keyed by short variant name, named fully qualified.
	mapnik, ok := group.Provider("Mapnik")
	require.True(t, ok)
	assert.Equal(t, "OpenStreetMap.Mapnik", mapnik.Name())
	assert.Equal(t, "https://tile.openstreetmap.org/{z}/{x}/{y}.png", mapnik.URL())
	zoom, _ := mapnik.Get("max_zoom")
	assert.Equal(t, "19", zoom.Num().String())

	// Variant fields win over the provider base.
	hot, ok := group.Provider("HOT")
	require.True(t, ok)
	assert.Equal(t, "OpenStreetMap.HOT", hot.Name())
	assert.Equal(t, "https://tile-{s}.openstreetmap.fr/hot/{z}/{x}/{y}.png", hot.URL())
	attr, _ := hot.Get("attribution")
	assert.Equal(t, "(c) OpenStreetMap contributors, Humanitarian OSM Team", attr.Str())
}

func TestStringVariantBecomesVariantField(t *testing.T) {
	n, raw := fixtureNormalizer(t)
	p, _ := raw.Provider("OpenMapSurfer")

	node, err := n.Provider(p)
	require.NoError(t, err)
	group := node.(provider.Bunch)

	hybrid, ok := group.Provider("Hybrid")
	require.True(t, ok)
	v, _ := hybrid.Get("variant")
	assert.Equal(t, "hybrid", v.Str())
	assert.Equal(t, "OpenMapSurfer.Hybrid", hybrid.Name())
}

func TestURLPlaceholderRewrite(t *testing.T) {
	n, raw := fixtureNormalizer(t)
	p, _ := raw.Provider("NASAGIBS")

	node, err := n.Provider(p)
	require.NoError(t, err)
	group := node.(provider.Bunch)

	modis, ok := group.Provider("ModisTerra")
	require.True(t, ok)
	assert.Equal(t,
		"https://gibs.earthdata.nasa.gov/{variant}/GoogleMapsCompatible_Level{max_zoom}/{z}/{y}/{x}.jpg",
		modis.URL())
	assert.True(t, modis.Has("max_zoom"))
	assert.True(t, modis.Has("min_zoom"))
	assert.False(t, modis.Has("maxZoom"))
	assert.False(t, modis.Has("minZoom"))
}

func TestFieldPassIdempotent(t *testing.T) {
	n, _ := fixtureNormalizer(t)
	rec := provider.New(
		provider.F("url", "https://host/{max_zoom}/{z}/{x}/{y}.png"),
		provider.F("max_zoom", 9),
		provider.F("min_zoom", 1),
		provider.F("attribution", "already resolved"),
	)

	once, err := n.fieldPass(rec)
	require.NoError(t, err)
	twice, err := n.fieldPass(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRoundTrip(t *testing.T) {
	// The classic single-provider round trip, end to end through the field
	// pass and JSON serialization.
	raw := mustRaw(t, `{"OpenStreetMap": {"url": "http://tile/{z}/{x}/{y}.png", "options": {"maxZoom": 19, "attribution": "(c) OSM"}}}`)

	var table AttributionTable
	n := New(table)
	p, _ := raw.Provider("OpenStreetMap")
	node, err := n.Provider(p)
	require.NoError(t, err)

	var out provider.Bunch
	out.Put("OpenStreetMap", node)
	data, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"OpenStreetMap":{"url":"http://tile/{z}/{x}/{y}.png","max_zoom":19,"attribution":"(c) OSM","name":"OpenStreetMap"}}`,
		string(data))
}

func TestUnknownAttributionAbortsCatalog(t *testing.T) {
	raw := mustRaw(t, `{
		"OpenStreetMap": {"url": "u", "options": {"attribution": "osm"}},
		"Esri": {"url": "u", "options": {"attribution": "esri"}},
		"OpenMapSurfer": {"url": "u", "options": {"attribution": "oms"}},
		"Broken": {"url": "u", "options": {"attribution": "{attribution.Unknown}"}}
	}`)
	table, err := BuildAttributions(raw)
	require.NoError(t, err)

	_, _, err = New(table).Catalog(raw)
	require.Error(t, err)
	var unknown *UnknownAttributionError
	assert.True(t, errors.As(err, &unknown))
}

func TestMissingOptionsIsFatal(t *testing.T) {
	n, _ := fixtureNormalizer(t)
	raw := mustRaw(t, `{"Bare": {"url": "u"}}`)
	p, _ := raw.Provider("Bare")

	_, err := n.Provider(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing options")
}

func TestCatalogSummaryAndOrder(t *testing.T) {
	n, raw := fixtureNormalizer(t)
	cat, sum, err := n.Catalog(raw)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Providers)
	assert.Equal(t, 6, sum.Variants) // 2 OSM + 1 Esri + 2 OpenMapSurfer + 1 NASAGIBS
	assert.Equal(t, 7, sum.Records)  // 6 variant records + OpenSeaMap

	var names []string
	for _, e := range cat.Entries() {
		names = append(names, e.Key)
	}
	assert.Equal(t,
		[]string{"OpenStreetMap", "Esri", "OpenMapSurfer", "NASAGIBS", "OpenSeaMap"},
		names)
}
