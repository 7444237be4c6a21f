// Package geocode resolves coordinates to addresses and free-text queries
// to places through an open Nominatim-style HTTP service. Geocoding is a
// convenience layer: every failure collapses to an empty result so callers
// never block a user action on it.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tartu-transit/buscore/transit"
)

const (
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 10 * time.Second

	// forwardLimit caps the number of candidates a search returns.
	forwardLimit = 5
)

// Geocoder talks to a Nominatim-compatible endpoint. The zero value is not
// usable; construct with New.
type Geocoder struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	viewBox      string
	countryCodes string
}

// New returns a Geocoder for the given base URL. viewBox is the
// "lon1,lat1,lon2,lat2" restriction applied to forward searches and
// countryCodes the comma-separated ISO list; either may be empty to lift
// the restriction.
func New(baseURL, userAgent, viewBox, countryCodes string) *Geocoder {
	return &Geocoder{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		baseURL:      baseURL,
		userAgent:    userAgent,
		viewBox:      viewBox,
		countryCodes: countryCodes,
	}
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Reverse resolves a coordinate to a human-readable address. Any transport,
// status, or decode problem yields "".
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var res reverseResult
	if err := g.get(ctx, "/reverse", q, &res); err != nil {
		log.Printf("geocode: reverse lookup failed: %v", err)
		return ""
	}
	return res.DisplayName
}

// Forward searches for places matching query, bounded to the configured
// viewbox and country codes, at most five results. Failures yield an empty
// slice.
func (g *Geocoder) Forward(ctx context.Context, query string) []transit.Place {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(forwardLimit))
	if g.viewBox != "" {
		q.Set("viewbox", g.viewBox)
		q.Set("bounded", "1")
	}
	if g.countryCodes != "" {
		q.Set("countrycodes", g.countryCodes)
	}

	var results []searchResult
	if err := g.get(ctx, "/search", q, &results); err != nil {
		log.Printf("geocode: forward lookup failed: %v", err)
		return nil
	}

	places := make([]transit.Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		places = append(places, transit.Place{Name: r.DisplayName, Lat: lat, Lon: lon})
	}
	return places
}

func (g *Geocoder) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
