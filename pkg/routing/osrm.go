/*
Package routing fetches the driving route drawn on the booking map once both
places are chosen. It talks to an OSRM-compatible HTTP endpoint and is the
only genuinely asynchronous operation adjacent to the search core: requests
are cancellable, bounded by a deadline, and a failure or timeout degrades to
"map without a route", never to a fatal error upstream.
*/
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alpenroute/placeserve/pkg/gazetteer"
)

const (
	// DefaultEndpoint is the public OSRM demo router the site uses.
	DefaultEndpoint = "https://router.project-osrm.org"
	// DefaultTimeout bounds a route request end to end.
	DefaultTimeout = 10 * time.Second
)

// ErrNoRoute means the router answered but found no driving route.
var ErrNoRoute = errors.New("routing: no route between the selected places")

// Route is the summary shown under the booking map.
type Route struct {
	DistanceKM  int
	DurationMin int
	// Geometry is the route polyline as lat/lng pairs, ready for drawing.
	Geometry [][2]float64
}

// Client queries an OSRM-compatible routing service.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a routing client. Empty endpoint and zero timeout use the
// defaults.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// osrmResponse is the slice of the OSRM route answer we consume.
type osrmResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // lng,lat pairs
		} `json:"geometry"`
	} `json:"routes"`
}

// DrivingRoute fetches the driving route between two coordinates. The caller
// may cancel via ctx; the client deadline applies regardless.
func (c *Client) DrivingRoute(ctx context.Context, from, to gazetteer.Coordinates) (*Route, error) {
	// OSRM takes lng,lat order.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.endpoint, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("routing: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing: unexpected status %d", resp.StatusCode)
	}

	var data osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("routing: decode response: %w", err)
	}
	if len(data.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := data.Routes[0]
	route := &Route{
		DistanceKM:  int(math.Round(best.Distance / 1000)),
		DurationMin: int(math.Round(best.Duration / 60)),
		Geometry:    make([][2]float64, 0, len(best.Geometry.Coordinates)),
	}
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		route.Geometry = append(route.Geometry, [2]float64{pair[1], pair[0]})
	}

	log.Debugf("Route fetched: %d km, %d min, %d points", route.DistanceKM, route.DurationMin, len(route.Geometry))
	return route, nil
}
