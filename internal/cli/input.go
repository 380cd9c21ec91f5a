// Package cli handles cmd line input and searches for DBG and testing various features
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
	"github.com/alpenroute/placeserve/pkg/search"
	"github.com/alpenroute/placeserve/pkg/selection"
)

// InputHandler processes user input from stdin, running searches against the
// active field's candidate list and driving the selection guard. It exists
// for testing search behavior and the guard rules without a widget host.
type InputHandler struct {
	matcher     *search.Matcher
	guard       *selection.Guard
	data        *gazetteer.Data
	field       selection.Field
	limit       int
	lastResults []gazetteer.Place
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(matcher *search.Matcher, data *gazetteer.Data, field string, limit int) *InputHandler {
	h := &InputHandler{
		matcher: matcher,
		data:    data,
		field:   selection.FieldTo,
		limit:   limit,
	}
	if field == "from" {
		h.field = selection.FieldFrom
	}
	h.guard = selection.NewGuard(matcher, data.From,
		func(f selection.Field, message string, severity selection.Severity) {
			if severity == selection.SeverityError {
				log.Errorf("[%s] %s", f, message)
				return
			}
			log.Warnf("[%s] %s", f, message)
		},
		func(f selection.Field, listing []gazetteer.Place) {
			log.Printf("Focus moves to %q (%d places in its listing)", f, len(listing))
		},
	)
	return h
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin,
// and passes the trimmed input to handleInput() for processing.
// Loop terminates if an error occurs while reading from stdin
func (h *InputHandler) Start() error {
	log.Print("PlaceServe CLI")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a query and press Enter; :help lists commands (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput processes a single line: a command when it starts with ':',
// otherwise a search query against the active field.
func (h *InputHandler) handleInput(line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(line)
		return
	}
	h.runSearch(line, false)
}

func (h *InputHandler) handleCommand(line string) {
	parts := strings.Fields(line)
	switch parts[0] {
	case ":help":
		log.Print(":from | :to    switch active field")
		log.Print(":all           browse the full default listing")
		log.Print(":pick N        select result N of the last search")
		log.Print(":clear         clear the active field")
		log.Print(":state         show current selections")
	case ":from":
		h.field = selection.FieldFrom
		log.Printf("Active field: %s", h.field)
	case ":to":
		h.field = selection.FieldTo
		log.Printf("Active field: %s", h.field)
	case ":all":
		h.runSearch("", true)
	case ":pick":
		if len(parts) < 2 {
			log.Error("Usage: :pick N")
			return
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > len(h.lastResults) {
			log.Errorf("No result %q in the last search", parts[1])
			return
		}
		place := h.lastResults[n-1]
		if h.guard.Select(place, h.field) {
			log.Printf("Selected %s (%s) for %q", place.NameEN, place.Category, h.field)
		}
	case ":clear":
		h.guard.Clear(h.field)
		log.Printf("Cleared %q", h.field)
	case ":state":
		h.printSelection("from", h.guard.From())
		h.printSelection("to", h.guard.To())
	default:
		log.Errorf("Unknown command: %s", parts[0])
	}
}

func (h *InputHandler) printSelection(name string, p *gazetteer.Place) {
	if p == nil {
		log.Printf("%-4s  (empty)", name)
		return
	}
	log.Printf("%-4s  %s / %s (%s)", name, p.NameEN, p.NameRU, p.Category)
}

func (h *InputHandler) runSearch(query string, showAll bool) {
	candidates := h.data.From
	if h.field == selection.FieldTo {
		if !h.guard.ValidateOrder(selection.FieldTo) {
			return
		}
		candidates = h.guard.ToCandidates(h.data.To)
	}

	start := time.Now()
	results := h.matcher.Search(query, candidates, showAll)
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for query '%s'", elapsed, query)

	if len(results) == 0 {
		log.Warnf("No results found for query: '%s'", query)
		h.lastResults = nil
		return
	}
	if h.limit > 0 && len(results) > h.limit {
		results = results[:h.limit]
	}
	h.lastResults = results

	lang := h.matcher.Policy().Lang()
	log.Printf("Found %d places for query '%s':", len(results), query)
	for i, p := range results {
		clName := fmt.Sprintf("\033[38;5;75m%s\033[0m", p.Name(lang))
		log.Printf("%2d. %-40s (%s)", i+1, clName, p.Category)
	}
}
