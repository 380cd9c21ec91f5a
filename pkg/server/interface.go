/*
Package server implements msgpack IPC for the booking place-search service.

The server provides a minimal interface over stdin/stdout for the widget host:
place search, selection state changes, and route summaries, all encoded as
binary msgpack messages processed synchronously with timing info included in
responses.

# IPC

Clients send one request envelope per operation; the op field selects the
handler and the rest of the envelope is read as that operation's parameters.

Search requests use mainly this structure:

	{"id": "req_001", "op": "search", "q": "gen", "f": "from"}

The server responds with the places ordered for display:

	{"id": "req_001", "p": [{"en": "Geneva Airport", "ru": "Аэропорт Женева", "cat": "airport"}], "c": 1, "t": 120}

Selection ops commit or clear a field and report guard verdicts:

	{"id": "sel_001", "op": "select", "f": "to", "en": "Zurich", "cat": "city"}
	{"id": "sel_002", "op": "clear", "f": "from"}

When a guard check fails, the response carries the localized notices the
presentation layer must surface, and, for ordering violations, the redirect
payload (the field to refocus plus its full default listing):

	{"id": "sel_001", "status": "rejected", "n": [{"f": "to", "m": "Please select \"From\" first", "sev": "warning"}], "rd": {...}}

Route requests summarize the drive between the two committed selections:

	{"id": "rt_001", "op": "route"}
	{"id": "rt_001", "status": "ok", "km": 224, "min": 168}

# Message Types

Request is the single envelope for every operation. Search responses contain
place arrays with both display names so the host renders either language
without a second round trip. Selection responses carry status plus notices.
Route responses degrade to a status of "unavailable" on timeout or router
failure; the host then shows the map without a route.

msgpack encoding has ~30 to 50% smaller message sizes compared to JSON and
parses faster on the editor/widget side.
*/
package server

// Request is the envelope for all incoming operations.
// Op is one of "search", "select", "clear", "route", "health".
type Request struct {
	ID       string `msgpack:"id"`
	Op       string `msgpack:"op"`
	Query    string `msgpack:"q,omitempty"`
	Field    string `msgpack:"f,omitempty"`
	All      bool   `msgpack:"all,omitempty"`
	Limit    int    `msgpack:"l,omitempty"`
	NameEN   string `msgpack:"en,omitempty"`
	Category string `msgpack:"cat,omitempty"`
}

// PlaceResult - one place in a search response
type PlaceResult struct {
	NameEN   string `msgpack:"en"`
	NameRU   string `msgpack:"ru"`
	Category string `msgpack:"cat"`
}

// Notice - a localized validation message to surface near a field
type Notice struct {
	Field    string `msgpack:"f"`
	Message  string `msgpack:"m"`
	Severity string `msgpack:"sev"`
}

// Redirect - refocus instruction issued on an ordering violation
type Redirect struct {
	Field  string        `msgpack:"f"`
	Places []PlaceResult `msgpack:"p"`
}

// SearchResponse - search results plus any guard verdicts
type SearchResponse struct {
	ID        string        `msgpack:"id"`
	Places    []PlaceResult `msgpack:"p"`
	Count     int           `msgpack:"c"`
	TimeTaken int64         `msgpack:"t"`
	Notices   []Notice      `msgpack:"n,omitempty"`
	Redirect  *Redirect     `msgpack:"rd,omitempty"`
}

// SelectResponse - selection operation response
type SelectResponse struct {
	ID       string    `msgpack:"id"`
	Status   string    `msgpack:"status"` // "ok", "rejected"
	Notices  []Notice  `msgpack:"n,omitempty"`
	Redirect *Redirect `msgpack:"rd,omitempty"`
}

// RouteResponse - route summary response
type RouteResponse struct {
	ID          string `msgpack:"id"`
	Status      string `msgpack:"status"` // "ok", "unavailable"
	Error       string `msgpack:"error,omitempty"`
	DistanceKM  int    `msgpack:"km,omitempty"`
	DurationMin int    `msgpack:"min,omitempty"`
}

// StatusResponse - health/ready signalling
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// RequestError holds basic error information for malformed requests
type RequestError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
