package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
	"github.com/alpenroute/placeserve/pkg/routing"
	"github.com/alpenroute/placeserve/pkg/search"
	"github.com/alpenroute/placeserve/pkg/selection"
)

// Server handles the IPC for place search and selection
type Server struct {
	matcher *search.Matcher
	guard   *selection.Guard
	data    *gazetteer.Data
	router  *routing.Client

	dec *msgpack.Decoder
	enc *msgpack.Encoder

	// Guard verdicts collected while handling the current request.
	// The loop is single-threaded so plain fields suffice.
	notices  []Notice
	redirect *Redirect
}

// NewServer creates a place-search server using stdin/stdout for IPC.
func NewServer(matcher *search.Matcher, data *gazetteer.Data, router *routing.Client) *Server {
	return NewServerWithIO(matcher, data, router, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over explicit streams, used by tests.
func NewServerWithIO(matcher *search.Matcher, data *gazetteer.Data, router *routing.Client, r io.Reader, w io.Writer) *Server {
	s := &Server{
		matcher: matcher,
		data:    data,
		router:  router,
		dec:     msgpack.NewDecoder(r),
		enc:     msgpack.NewEncoder(w),
	}
	s.guard = selection.NewGuard(matcher, data.From,
		func(field selection.Field, message string, severity selection.Severity) {
			s.notices = append(s.notices, Notice{Field: string(field), Message: message, Severity: string(severity)})
		},
		func(field selection.Field, listing []gazetteer.Place) {
			s.redirect = &Redirect{Field: string(field), Places: toResults(listing)}
		},
	)
	return s
}

// Guard exposes the selection state guard backing this server.
func (s *Server) Guard() *selection.Guard { return s.guard }

// Start begins listening for IPC requests
func (s *Server) Start() error {
	log.Debug("Starting Server.")

	s.send(StatusResponse{Status: "ready"})

	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			return err
		}
		s.handleRequest(req)
	}
}

// handleRequest dispatches one request and flushes collected guard verdicts.
func (s *Server) handleRequest(req Request) {
	s.notices = nil
	s.redirect = nil

	switch req.Op {
	case "search":
		s.handleSearch(req)
	case "select":
		s.handleSelect(req)
	case "clear":
		s.handleClear(req)
	case "route":
		s.handleRoute(req)
	case "health":
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown op: %s", req.Op), 400)
	}
}

func (s *Server) handleSearch(req Request) {
	field, ok := parseField(req.Field)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("Unknown field: %s", req.Field), 400)
		return
	}

	start := time.Now()

	var candidates []gazetteer.Place
	if field == selection.FieldFrom {
		candidates = s.data.From
	} else {
		// Any "to" interaction is gated on the pickup being chosen first.
		if !s.guard.ValidateOrder(selection.FieldTo) {
			s.send(SearchResponse{
				ID:       req.ID,
				Places:   []PlaceResult{},
				Notices:  s.notices,
				Redirect: s.redirect,
			})
			return
		}
		candidates = s.guard.ToCandidates(s.data.To)
	}

	results := s.matcher.Search(req.Query, candidates, req.All)
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	elapsed := time.Since(start)

	s.send(SearchResponse{
		ID:        req.ID,
		Places:    toResults(results),
		Count:     len(results),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleSelect(req Request) {
	field, ok := parseField(req.Field)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("Unknown field: %s", req.Field), 400)
		return
	}

	place, found := s.resolve(field, req.NameEN, req.Category)
	if !found {
		s.sendError(req.ID, fmt.Sprintf("Unknown place: %s (%s)", req.NameEN, req.Category), 404)
		return
	}

	status := "rejected"
	if s.guard.Select(place, field) {
		status = "ok"
	}
	s.send(SelectResponse{
		ID:       req.ID,
		Status:   status,
		Notices:  s.notices,
		Redirect: s.redirect,
	})
}

func (s *Server) handleClear(req Request) {
	field, ok := parseField(req.Field)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("Unknown field: %s", req.Field), 400)
		return
	}
	s.guard.Clear(field)
	s.send(SelectResponse{ID: req.ID, Status: "ok"})
}

func (s *Server) handleRoute(req Request) {
	from, to := s.guard.From(), s.guard.To()
	if from == nil || to == nil {
		s.sendError(req.ID, "Both places must be selected before requesting a route", 400)
		return
	}
	if from.Location == nil || to.Location == nil {
		s.send(RouteResponse{ID: req.ID, Status: "unavailable", Error: "selected places carry no coordinates"})
		return
	}

	route, err := s.router.DrivingRoute(context.Background(), *from.Location, *to.Location)
	if err != nil {
		// Timeouts and router failures degrade to a map without a route.
		log.Warnf("Route fetch failed: %v", err)
		s.send(RouteResponse{ID: req.ID, Status: "unavailable", Error: err.Error()})
		return
	}

	s.send(RouteResponse{
		ID:          req.ID,
		Status:      "ok",
		DistanceKM:  route.DistanceKM,
		DurationMin: route.DurationMin,
	})
}

// resolve finds the gazetteer record a selection request names.
// Selection requests identify places the same way the guard compares them,
// by English name plus category.
func (s *Server) resolve(field selection.Field, nameEN, category string) (gazetteer.Place, bool) {
	list := s.data.To
	if field == selection.FieldFrom {
		list = s.data.From
	}
	want := gazetteer.Place{NameEN: nameEN, Category: gazetteer.Category(category)}
	for _, p := range list {
		if p.Equal(want) {
			return p, true
		}
	}
	return gazetteer.Place{}, false
}

func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(RequestError{ID: id, Error: message, Code: code})
}

func toResults(places []gazetteer.Place) []PlaceResult {
	results := make([]PlaceResult, len(places))
	for i, p := range places {
		results[i] = PlaceResult{NameEN: p.NameEN, NameRU: p.NameRU, Category: string(p.Category)}
	}
	return results
}

func parseField(field string) (selection.Field, bool) {
	switch field {
	case "from":
		return selection.FieldFrom, true
	case "to":
		return selection.FieldTo, true
	}
	return "", false
}
