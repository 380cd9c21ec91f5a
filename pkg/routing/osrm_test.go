package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
)

var (
	genevaLoc = gazetteer.Coordinates{Lat: 46.2044, Lng: 6.1432}
	zurichLoc = gazetteer.Coordinates{Lat: 47.3769, Lng: 8.5417}
)

func TestDrivingRoute(t *testing.T) {
	var requestPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestPath = r.URL.String()
		// distance 223650 m rounds to 224 km, duration 10080 s to 168 min
		w.Write([]byte(`{"routes":[{"distance":223650,"duration":10080,
			"geometry":{"coordinates":[[6.1432,46.2044],[8.5417,47.3769]]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	route, err := client.DrivingRoute(context.Background(), genevaLoc, zurichLoc)
	if err != nil {
		t.Fatalf("DrivingRoute failed: %v", err)
	}

	if route.DistanceKM != 224 {
		t.Errorf("distance: got %d km, want 224", route.DistanceKM)
	}
	if route.DurationMin != 168 {
		t.Errorf("duration: got %d min, want 168", route.DurationMin)
	}

	// OSRM wants lng,lat in the path
	if !strings.Contains(requestPath, "/route/v1/driving/6.143200,46.204400;8.541700,47.376900") {
		t.Errorf("unexpected request path: %s", requestPath)
	}

	// geometry comes back flipped into lat,lng for the map layer
	if len(route.Geometry) != 2 {
		t.Fatalf("expected 2 geometry points, got %d", len(route.Geometry))
	}
	if route.Geometry[0] != [2]float64{46.2044, 6.1432} {
		t.Errorf("geometry not flipped to lat,lng: %v", route.Geometry[0])
	}
}

func TestDrivingRouteNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.DrivingRoute(context.Background(), genevaLoc, zurichLoc); !errors.Is(err, ErrNoRoute) {
		t.Errorf("expected ErrNoRoute, got %v", err)
	}
}

func TestDrivingRouteBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.DrivingRoute(context.Background(), genevaLoc, zurichLoc); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

// A slow router must fail inside the client deadline, not hang. The server
// layer turns this error into an "unavailable" route summary.
func TestDrivingRouteTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := client.DrivingRoute(context.Background(), genevaLoc, zurichLoc)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took far longer than the client deadline")
	}
}

func TestDrivingRouteContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.DrivingRoute(ctx, genevaLoc, zurichLoc); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", 0)
	if client.endpoint != DefaultEndpoint {
		t.Errorf("empty endpoint should use the default, got %q", client.endpoint)
	}
	if client.http.Timeout != DefaultTimeout {
		t.Errorf("zero timeout should use the default, got %v", client.http.Timeout)
	}
}
