// Package bundle classifies a listing's text into a catalog sub-SKU so the
// pricing lookup can pick the right resale target.
package bundle

import (
	"strings"

	"dealfinder/internal/filter"
)

// StandardTag is returned when no variant marker matches.
const StandardTag = "standard"

type marker struct {
	term string
	tag  string
}

// Marker sets per product family, scanned in order; the first match wins.
// Markers are family-scoped so "combo" on a DJ controller listing does not
// classify it as a drone bundle.
var droneMarkers = []marker{
	{"fly more combo", "fly more combo"},
	{"flymore combo", "fly more combo"},
	{"fly more", "fly more combo"},
	{"cine premium", "cine premium combo"},
	{"smart controller", "smart controller"},
	{"dji rc pro", "smart controller"},
}

var cameraMarkers = []marker{
	{"creator edition", "creator edition"},
	{"creator bundle", "creator edition"},
	{"accessory bundle", "accessory bundle"},
	{"adventure kit", "accessory bundle"},
}

var djMarkers = []marker{
	{"flight case", "flight case bundle"},
	{"decksaver", "flight case bundle"},
}

// Classify scans text for the variant markers of the product family inferred
// from productKey and returns the matched variant tag, or StandardTag.
func Classify(text string, productKey string) string {
	norm := filter.Normalize(text)
	if norm == "" {
		return StandardTag
	}
	for _, m := range familyMarkers(productKey) {
		if strings.Contains(norm, m.term) {
			return m.tag
		}
	}
	return StandardTag
}

// ClassifyListing combines title- and description-derived classification.
// The description is scraped later and considered more authoritative, so its
// result wins unless it is StandardTag, in which case the title's
// classification is kept.
func ClassifyListing(title string, description string, productKey string) string {
	fromTitle := Classify(title, productKey)
	fromDescription := Classify(description, productKey)
	if fromDescription != StandardTag {
		return fromDescription
	}
	return fromTitle
}

func familyMarkers(productKey string) []marker {
	key := filter.Normalize(productKey)
	switch {
	case strings.HasPrefix(key, "dji"):
		return droneMarkers
	case strings.HasPrefix(key, "gopro"):
		return cameraMarkers
	case strings.HasPrefix(key, "pioneer"), strings.HasPrefix(key, "traktor"):
		return djMarkers
	default:
		return nil
	}
}
