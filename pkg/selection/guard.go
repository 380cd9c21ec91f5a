/*
Package selection tracks the booking form's chosen pickup and destination.

Two business rules live here: the destination cannot be chosen before the
pickup ("From" before "To"), and both fields cannot hold the same place.
Violations are recoverable UX events, surfaced through callbacks as localized
notices; nothing here panics or returns an error for user behavior.
*/
package selection

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
	"github.com/alpenroute/placeserve/pkg/search"
)

// Field names the two booking inputs.
type Field string

const (
	FieldFrom Field = "from"
	FieldTo   Field = "to"
)

// Severity of a user-facing validation notice.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NotifyFunc surfaces a localized validation message near a field. The
// presentation layer decides how (the site shows an auto-dismissing banner).
type NotifyFunc func(field Field, message string, severity Severity)

// RedirectFunc moves user attention to a field and presents a listing,
// used when a "To" interaction is blocked because "From" is still empty.
type RedirectFunc func(field Field, listing []gazetteer.Place)

// Guard owns the from/to selection state and enforces the ordering and
// distinctness invariants. Reads and writes are serialized so an IPC
// dispatcher may call it from more than one goroutine.
type Guard struct {
	mu       sync.Mutex
	from     *gazetteer.Place
	to       *gazetteer.Place
	matcher  *search.Matcher
	fromList []gazetteer.Place
	notify   NotifyFunc
	redirect RedirectFunc
}

// NewGuard creates a guard over the canonical from-list. The matcher supplies
// the default listing used when redirecting attention back to "From".
// Nil callbacks are allowed and become no-ops.
func NewGuard(matcher *search.Matcher, fromList []gazetteer.Place, notify NotifyFunc, redirect RedirectFunc) *Guard {
	if notify == nil {
		notify = func(Field, string, Severity) {}
	}
	if redirect == nil {
		redirect = func(Field, []gazetteer.Place) {}
	}
	return &Guard{
		matcher:  matcher,
		fromList: fromList,
		notify:   notify,
		redirect: redirect,
	}
}

// SetFrom unconditionally stores the pickup selection. Passing nil clears
// the field; clearing is always allowed.
func (g *Guard) SetFrom(p *gazetteer.Place) {
	g.mu.Lock()
	g.from = clone(p)
	g.mu.Unlock()
}

// SetTo unconditionally stores the destination selection. Passing nil clears
// the field; clearing is always allowed.
func (g *Guard) SetTo(p *gazetteer.Place) {
	g.mu.Lock()
	g.to = clone(p)
	g.mu.Unlock()
}

// From returns the current pickup selection, or nil.
func (g *Guard) From() *gazetteer.Place {
	g.mu.Lock()
	defer g.mu.Unlock()
	return clone(g.from)
}

// To returns the current destination selection, or nil.
func (g *Guard) To() *gazetteer.Place {
	g.mu.Lock()
	defer g.mu.Unlock()
	return clone(g.to)
}

// ValidateOrder checks that editing field is allowed yet. Only one case
// fails: touching "To" while "From" is empty. On failure the caller must
// abort the interaction; the guard has already surfaced a localized warning
// near "To" and redirected attention to "From" with its full listing open.
func (g *Guard) ValidateOrder(field Field) bool {
	g.mu.Lock()
	blocked := field == FieldTo && g.from == nil
	g.mu.Unlock()
	if !blocked {
		return true
	}

	lang := g.matcher.Policy().Lang()
	log.Debugf("Blocked %q interaction: pickup not chosen yet", field)
	g.notify(FieldTo, orderMessage(lang), SeverityWarning)
	g.redirect(FieldFrom, g.matcher.Search("", g.fromList, true))
	return false
}

// ValidateNoDuplicate checks that candidate is not already selected in the
// other field. Equality is structural (English name plus category) since
// records carry no identifier. On failure a localized error is surfaced near
// the field being set and the selection must not be committed.
func (g *Guard) ValidateNoDuplicate(candidate gazetteer.Place, field Field) bool {
	g.mu.Lock()
	other := g.to
	if field == FieldTo {
		other = g.from
	}
	duplicate := other != nil && other.Equal(candidate)
	g.mu.Unlock()
	if !duplicate {
		return true
	}

	lang := g.matcher.Policy().Lang()
	log.Debugf("Rejected duplicate selection %q for %q", candidate.NameEN, field)
	g.notify(field, duplicateMessage(lang), SeverityError)
	return false
}

// Select runs the full commit path for a user pick: ordering check, then
// duplicate check, then the unconditional set. Returns whether the selection
// was committed.
func (g *Guard) Select(candidate gazetteer.Place, field Field) bool {
	if !g.ValidateOrder(field) {
		return false
	}
	if !g.ValidateNoDuplicate(candidate, field) {
		return false
	}
	if field == FieldTo {
		g.SetTo(&candidate)
	} else {
		g.SetFrom(&candidate)
	}
	return true
}

// Clear empties a field. A user is always allowed to empty a field.
func (g *Guard) Clear(field Field) {
	if field == FieldTo {
		g.SetTo(nil)
	} else {
		g.SetFrom(nil)
	}
}

// ToCandidates returns the destination candidate list with the current
// pickup excluded, the view the form feeds into both the scored-search and
// default-listing paths for "To".
func (g *Guard) ToCandidates(toList []gazetteer.Place) []gazetteer.Place {
	return FilterExcluded(toList, g.From())
}

// FilterExcluded returns candidates minus every entry structurally equal to
// excluded. A nil exclusion returns candidates unchanged.
func FilterExcluded(candidates []gazetteer.Place, excluded *gazetteer.Place) []gazetteer.Place {
	if excluded == nil || len(candidates) == 0 {
		return candidates
	}
	filtered := make([]gazetteer.Place, 0, len(candidates))
	for _, p := range candidates {
		if p.Equal(*excluded) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func clone(p *gazetteer.Place) *gazetteer.Place {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func orderMessage(lang string) string {
	if lang == "ru" {
		return `Сначала выберите "Откуда"`
	}
	return `Please select "From" first`
}

func duplicateMessage(lang string) string {
	if lang == "ru" {
		return "Нельзя выбрать одинаковый адрес в обоих полях"
	}
	return "Cannot select the same address in both fields"
}
