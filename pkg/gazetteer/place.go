/*
Package gazetteer holds the static list of places the booking search runs over.

The gazetteer is loaded once at startup and never mutated afterwards. Records
carry a display name per supported language (en and ru); a record missing
either name is invalid and is dropped at load time. Duplicate entries with the
same name and category may exist in the raw data and are kept as-is, since the
matcher is not responsible for data quality.
*/
package gazetteer

// Category classifies a place for display priority and iconography.
type Category string

const (
	CategoryCity    Category = "city"
	CategoryAirport Category = "airport"
	CategoryRailway Category = "railway"
)

// DisplayOrder returns the display priority of a category, lower first.
// Unknown categories sort after the known ones.
func (c Category) DisplayOrder() int {
	switch c {
	case CategoryAirport:
		return 0
	case CategoryRailway:
		return 1
	case CategoryCity:
		return 2
	default:
		return 3
	}
}

// Coordinates is an optional lat/lng pair. The search core never reads it;
// it is carried through for the routing layer.
type Coordinates struct {
	Lat float64 `toml:"lat"`
	Lng float64 `toml:"lng"`
}

// Place is a single gazetteer entry.
type Place struct {
	Category Category     `toml:"category"`
	NameEN   string       `toml:"en"`
	NameRU   string       `toml:"ru"`
	Location *Coordinates `toml:"location,omitempty"`
}

// Valid reports whether the record has both display names.
func (p Place) Valid() bool {
	return p.NameEN != "" && p.NameRU != ""
}

// Name returns the display name for the given language code ("en" or "ru").
func (p Place) Name(lang string) string {
	if lang == "ru" {
		return p.NameRU
	}
	return p.NameEN
}

// Equal reports structural equality. Records carry no identifier, so two
// places are the same selection when the English name and category match.
// This mirrors the duplicate check the booking form applies.
func (p Place) Equal(other Place) bool {
	return p.NameEN == other.NameEN && p.Category == other.Category
}
