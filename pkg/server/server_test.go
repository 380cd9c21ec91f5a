package server

import (
	"bytes"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
	"github.com/alpenroute/placeserve/pkg/routing"
	"github.com/alpenroute/placeserve/pkg/search"
	"github.com/alpenroute/placeserve/pkg/selection"
)

func testData() *gazetteer.Data {
	return &gazetteer.Data{
		From: []gazetteer.Place{
			{Category: gazetteer.CategoryCity, NameEN: "Geneva", NameRU: "Женева"},
			{Category: gazetteer.CategoryAirport, NameEN: "Geneva Airport Switzerland", NameRU: "Аэропорт Женева"},
		},
		To: []gazetteer.Place{
			{Category: gazetteer.CategoryCity, NameEN: "Geneva", NameRU: "Женева"},
			{Category: gazetteer.CategoryCity, NameEN: "Zurich", NameRU: "Цюрих"},
			{Category: gazetteer.CategoryAirport, NameEN: "Zurich Airport ZRH", NameRU: "Аэропорт Цюрих"},
		},
	}
}

// run feeds the requests through a server over in-memory streams and
// returns a decoder positioned after the ready message.
func run(t *testing.T, requests ...Request) *msgpack.Decoder {
	t.Helper()

	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			t.Fatal(err)
		}
	}

	data := testData()
	matcher := search.NewMatcher(search.NewPolicy("en"), 0)
	matcher.Register(data.From)
	matcher.Register(data.To)

	var out bytes.Buffer
	srv := NewServerWithIO(matcher, data, routing.NewClient("", time.Second), &in, &out)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	if err := dec.Decode(&ready); err != nil {
		t.Fatalf("decoding ready message: %v", err)
	}
	if ready.Status != "ready" {
		t.Fatalf("expected ready status, got %q", ready.Status)
	}
	return dec
}

func TestServerHealth(t *testing.T) {
	dec := run(t, Request{ID: "h1", Op: "health"})

	var resp StatusResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "h1" || resp.Status != "ok" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestServerSearchFrom(t *testing.T) {
	dec := run(t, Request{ID: "s1", Op: "search", Query: "gen", Field: "from"})

	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 places, got %+v", resp)
	}
	// airport displays before the city
	if resp.Places[0].NameEN != "Geneva Airport Switzerland" || resp.Places[1].NameEN != "Geneva" {
		t.Errorf("unexpected order: %+v", resp.Places)
	}
	if resp.Places[0].NameRU == "" {
		t.Error("both display names must be carried in results")
	}
}

func TestServerSearchToBlocked(t *testing.T) {
	dec := run(t, Request{ID: "s1", Op: "search", Query: "zur", Field: "to"})

	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Places) != 0 {
		t.Errorf("blocked search must return no places, got %+v", resp.Places)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Severity != "warning" || resp.Notices[0].Field != "to" {
		t.Fatalf("expected a warning near to, got %+v", resp.Notices)
	}
	if resp.Redirect == nil || resp.Redirect.Field != "from" {
		t.Fatalf("expected a redirect to from, got %+v", resp.Redirect)
	}
	if len(resp.Redirect.Places) != 2 {
		t.Errorf("redirect should carry the full from listing, got %d", len(resp.Redirect.Places))
	}
}

func TestServerSelectAndSearchTo(t *testing.T) {
	dec := run(t,
		Request{ID: "sel1", Op: "select", Field: "from", NameEN: "Geneva", Category: "city"},
		Request{ID: "s2", Op: "search", Field: "to", All: true},
	)

	var sel SelectResponse
	if err := dec.Decode(&sel); err != nil {
		t.Fatal(err)
	}
	if sel.Status != "ok" {
		t.Fatalf("from selection should commit, got %+v", sel)
	}

	var srch SearchResponse
	if err := dec.Decode(&srch); err != nil {
		t.Fatal(err)
	}
	// Geneva is the pickup, so the to listing excludes it
	if srch.Count != 2 {
		t.Fatalf("expected pickup excluded from to listing, got %+v", srch.Places)
	}
	for _, p := range srch.Places {
		if p.NameEN == "Geneva" {
			t.Error("pickup offered as a destination")
		}
	}
}

func TestServerSelectDuplicate(t *testing.T) {
	dec := run(t,
		Request{ID: "sel1", Op: "select", Field: "from", NameEN: "Geneva", Category: "city"},
		Request{ID: "sel2", Op: "select", Field: "to", NameEN: "Geneva", Category: "city"},
	)

	var first SelectResponse
	if err := dec.Decode(&first); err != nil {
		t.Fatal(err)
	}

	var second SelectResponse
	if err := dec.Decode(&second); err != nil {
		t.Fatal(err)
	}
	if second.Status != "rejected" {
		t.Fatalf("duplicate selection must be rejected, got %+v", second)
	}
	if len(second.Notices) != 1 || second.Notices[0].Severity != "error" {
		t.Errorf("expected one error notice, got %+v", second.Notices)
	}
}

func TestServerSelectUnknownPlace(t *testing.T) {
	dec := run(t, Request{ID: "sel1", Op: "select", Field: "from", NameEN: "Atlantis", Category: "city"})

	var resp RequestError
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != 404 {
		t.Errorf("expected 404 for an unknown place, got %+v", resp)
	}
}

func TestServerClear(t *testing.T) {
	dec := run(t,
		Request{ID: "sel1", Op: "select", Field: "from", NameEN: "Geneva", Category: "city"},
		Request{ID: "c1", Op: "clear", Field: "from"},
		Request{ID: "s1", Op: "search", Query: "zur", Field: "to"},
	)

	var sel, clr SelectResponse
	if err := dec.Decode(&sel); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(&clr); err != nil {
		t.Fatal(err)
	}
	if clr.ID != "c1" || clr.Status != "ok" {
		t.Errorf("unexpected clear response: %+v", clr)
	}

	// clearing from re-blocks to
	var srch SearchResponse
	if err := dec.Decode(&srch); err != nil {
		t.Fatal(err)
	}
	if len(srch.Notices) != 1 {
		t.Errorf("to search after clearing from should be blocked, got %+v", srch)
	}
}

func TestServerSearchLimit(t *testing.T) {
	dec := run(t, Request{ID: "s1", Op: "search", Field: "from", All: true, Limit: 1})

	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Places) != 1 {
		t.Errorf("expected the limit applied, got %d places", len(resp.Places))
	}
}

func TestServerBadRequests(t *testing.T) {
	testCases := []struct {
		request     Request
		code        int
		description string
	}{
		{Request{ID: "b1", Op: "teleport"}, 400, "Unknown op"},
		{Request{ID: "b2", Op: "search", Field: "via"}, 400, "Unknown field"},
		{Request{ID: "b3", Op: "route"}, 400, "Route before both selections"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			dec := run(t, tc.request)
			var resp RequestError
			if err := dec.Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.ID != tc.request.ID || resp.Code != tc.code {
				t.Errorf("unexpected error response: %+v", resp)
			}
		})
	}
}

func TestServerGuardStateShared(t *testing.T) {
	data := testData()
	matcher := search.NewMatcher(search.NewPolicy("en"), 0)
	matcher.Register(data.From)
	matcher.Register(data.To)

	var in, out bytes.Buffer
	srv := NewServerWithIO(matcher, data, routing.NewClient("", time.Second), &in, &out)

	// state set through the guard accessor is visible to request handling
	srv.Guard().SetFrom(&data.From[0])
	if !srv.Guard().ValidateOrder(selection.FieldTo) {
		t.Error("to should be unblocked after setting from via the guard")
	}
}
