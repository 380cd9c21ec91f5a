/*
Package search implements the bilingual typeahead engine for the booking form.

Matching is a two-pass design: a score decides which candidates are included
(prefix match on the primary-language name beats prefix match on the secondary
name beats a substring hit anywhere), and the shared display policy decides
the order of the included set. The two passes are deliberately separate; a
perfectly matching city still displays after a weaker-matching airport.

The matcher holds prefix-trie indexes for the canonical from/to lists so the
two starts-with tiers avoid a full scan, and caches the default-ordered
listing shown when an input is focused with an empty query. Pre-filtered
slices (the "to" list minus the chosen pickup) take a plain scan path with
identical results.
*/
package search

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
)

// Score tiers. The value only decides inclusion and relative selection
// priority, never the final display order.
const (
	scoreExactStart = 3
	scoreOtherStart = 2
	scoreContains   = 1
)

// Matcher scores gazetteer candidates against sanitized queries.
type Matcher struct {
	policy     *Policy
	maxResults int
	minQuery   int
	maxQuery   int
	lists      []*indexedList
}

// indexedList is a registered canonical candidate list with its prefix
// indexes and default-order cache. The gazetteer is immutable for process
// lifetime, so the cache never invalidates.
type indexedList struct {
	places         []gazetteer.Place
	lowerPrimary   []string
	lowerSecondary []string
	primary        *patricia.Trie
	secondary      *patricia.Trie

	// Lazily filled on the first default-order request. Guarded so the
	// selection guard may trigger it from concurrent goroutines.
	sortOnce sync.Once
	sorted   []gazetteer.Place
}

type scoredPlace struct {
	place gazetteer.Place
	score int
}

// NewMatcher creates a matcher for the given display policy.
// maxResults <= 0 uses the default cap.
func NewMatcher(policy *Policy, maxResults int) *Matcher {
	if maxResults <= 0 {
		maxResults = MaxResults
	}
	return &Matcher{
		policy:     policy,
		maxResults: maxResults,
		minQuery:   MinQueryLength,
		maxQuery:   MaxQueryLength,
	}
}

// SetQueryLimits overrides the minimum and maximum query lengths, both in
// code points. Non-positive values keep the builtin defaults.
func (m *Matcher) SetQueryLimits(minQuery, maxQuery int) {
	if minQuery > 0 {
		m.minQuery = minQuery
	}
	if maxQuery > 0 {
		m.maxQuery = maxQuery
	}
}

// Register indexes a canonical candidate list. Searches over a registered
// list use its tries and default-order cache; any other slice falls back to
// a linear scan. Invalid records never enter the index.
func (m *Matcher) Register(places []gazetteer.Place) {
	list := &indexedList{
		places:         places,
		lowerPrimary:   make([]string, len(places)),
		lowerSecondary: make([]string, len(places)),
		primary:        patricia.NewTrie(),
		secondary:      patricia.NewTrie(),
	}
	for i, p := range places {
		if !p.Valid() {
			continue
		}
		list.lowerPrimary[i] = strings.ToLower(p.Name(m.policy.Lang()))
		list.lowerSecondary[i] = strings.ToLower(p.Name(otherLang(m.policy.Lang())))
		trieAdd(list.primary, list.lowerPrimary[i], i)
		trieAdd(list.secondary, list.lowerSecondary[i], i)
	}
	m.lists = append(m.lists, list)
}

// Search returns the candidates matching query, ordered for display.
//
// showAll returns the full default-ordered listing regardless of the query
// (the browse-on-focus behavior). A sanitized query shorter than the
// configured minimum matches nothing. Empty candidate lists yield an empty
// result, never an error.
func (m *Matcher) Search(query string, candidates []gazetteer.Place, showAll bool) []gazetteer.Place {
	if len(candidates) == 0 {
		return nil
	}
	if showAll {
		return m.DefaultOrder(candidates)
	}

	q := strings.ToLower(SanitizeLimit(query, m.maxQuery))
	if utf8.RuneCountInString(q) < m.minQuery {
		return nil
	}

	var scored []scoredPlace
	if list := m.lookup(candidates); list != nil {
		scored = list.scoreAll(q)
	} else {
		scored = m.scanScore(candidates, q)
	}

	// Stable: candidates arrive in input order, so equal scores keep it.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > m.maxResults {
		scored = scored[:m.maxResults]
	}

	kept := make([]gazetteer.Place, len(scored))
	for i, s := range scored {
		kept[i] = s.place
	}
	return m.policy.Order(kept)
}

// DefaultOrder returns candidates in display-policy order. Registered lists
// are sorted once and the result reused; filtered slices depend on mutable
// selection state and are sorted fresh each time.
func (m *Matcher) DefaultOrder(candidates []gazetteer.Place) []gazetteer.Place {
	if len(candidates) == 0 {
		return nil
	}
	if list := m.lookup(candidates); list != nil {
		list.sortOnce.Do(func() {
			list.sorted = m.policy.Order(list.places)
		})
		return list.sorted
	}
	return m.policy.Order(candidates)
}

// Policy returns the display policy the matcher orders with.
func (m *Matcher) Policy() *Policy { return m.policy }

// lookup finds the registered list backing a candidate slice, if any.
// Identity is the backing array, the same way the form distinguishes its
// from-list from its to-list.
func (m *Matcher) lookup(candidates []gazetteer.Place) *indexedList {
	if len(candidates) == 0 {
		return nil
	}
	for _, l := range m.lists {
		if len(l.places) == len(candidates) && &l.places[0] == &candidates[0] {
			return l
		}
	}
	return nil
}

// scoreAll walks the prefix tries for the two starts-with tiers, then scans
// for substring hits among the rest. Results come back in input order.
func (l *indexedList) scoreAll(q string) []scoredPlace {
	tiers := make(map[int]int)

	err := l.primary.VisitSubtree(patricia.Prefix(q), func(p patricia.Prefix, item patricia.Item) error {
		for _, idx := range item.([]int) {
			tiers[idx] = scoreExactStart
		}
		return nil
	})
	if err != nil {
		log.Errorf("Visiting primary name index: %v", err)
	}

	err = l.secondary.VisitSubtree(patricia.Prefix(q), func(p patricia.Prefix, item patricia.Item) error {
		for _, idx := range item.([]int) {
			if tiers[idx] == 0 {
				tiers[idx] = scoreOtherStart
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("Visiting secondary name index: %v", err)
	}

	for i, p := range l.places {
		if tiers[i] != 0 || !p.Valid() {
			continue
		}
		if strings.Contains(l.lowerPrimary[i], q) || strings.Contains(l.lowerSecondary[i], q) {
			tiers[i] = scoreContains
		}
	}

	scored := make([]scoredPlace, 0, len(tiers))
	for i, p := range l.places {
		if t := tiers[i]; t > 0 {
			scored = append(scored, scoredPlace{place: p, score: t})
		}
	}
	return scored
}

// scanScore is the unindexed path for pre-filtered candidate slices.
func (m *Matcher) scanScore(candidates []gazetteer.Place, q string) []scoredPlace {
	scored := make([]scoredPlace, 0, len(candidates)/4)
	for _, p := range candidates {
		if t := m.scoreTier(p, q); t > 0 {
			scored = append(scored, scoredPlace{place: p, score: t})
		}
	}
	return scored
}

func (m *Matcher) scoreTier(p gazetteer.Place, q string) int {
	if !p.Valid() {
		return 0
	}
	primary := strings.ToLower(p.Name(m.policy.Lang()))
	secondary := strings.ToLower(p.Name(otherLang(m.policy.Lang())))
	switch {
	case strings.HasPrefix(primary, q):
		return scoreExactStart
	case strings.HasPrefix(secondary, q):
		return scoreOtherStart
	case strings.Contains(primary, q) || strings.Contains(secondary, q):
		return scoreContains
	}
	return 0
}

func trieAdd(t *patricia.Trie, key string, idx int) {
	if item := t.Get(patricia.Prefix(key)); item != nil {
		t.Set(patricia.Prefix(key), append(item.([]int), idx))
		return
	}
	t.Set(patricia.Prefix(key), []int{idx})
}

func otherLang(lang string) string {
	if lang == "ru" {
		return "en"
	}
	return "ru"
}
