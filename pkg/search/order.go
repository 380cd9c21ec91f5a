package search

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
)

// Policy is the display order shared by the default listing and the
// score-selected results: category priority first (airports, then railway
// stations, then cities, then anything unrecognized), then locale-aware
// comparison of the primary display name. Numeric runs compare by value, so
// "Bahnhof 2" sorts before "Bahnhof 10".
type Policy struct {
	lang string
	coll *collate.Collator
}

// NewPolicy builds the ordering policy for a UI language ("en" or "ru").
// Anything other than "ru" falls back to English, matching the site's
// two-language setup.
func NewPolicy(lang string) *Policy {
	tag := language.English
	if lang == "ru" {
		tag = language.Russian
	} else {
		lang = "en"
	}
	return &Policy{
		lang: lang,
		coll: collate.New(tag, collate.Numeric),
	}
}

// Lang returns the active UI language code.
func (p *Policy) Lang() string { return p.lang }

// Less reports whether a displays before b.
func (p *Policy) Less(a, b gazetteer.Place) bool {
	ao, bo := a.Category.DisplayOrder(), b.Category.DisplayOrder()
	if ao != bo {
		return ao < bo
	}
	return p.coll.CompareString(a.Name(p.lang), b.Name(p.lang)) < 0
}

// Order returns a copy of records sorted by the display policy.
func (p *Policy) Order(records []gazetteer.Place) []gazetteer.Place {
	out := make([]gazetteer.Place, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return p.Less(out[i], out[j]) })
	return out
}
