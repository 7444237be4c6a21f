// Package repo is the domain-level API over the transit endpoint, the cache
// tier and the bundled dataset. Every operation normalizes the endpoint's
// wire shapes to the transit domain model; callers never see GraphQL.
package repo

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tartu-transit/buscore/cache"
	"github.com/tartu-transit/buscore/client"
	"github.com/tartu-transit/buscore/dataset"
	"github.com/tartu-transit/buscore/metrics"
	"github.com/tartu-transit/buscore/transit"
)

type Repository struct {
	client     *client.Client
	cache      *cache.Cache
	dataset    *dataset.Dataset
	feedPrefix string

	group singleflight.Group
	m     *metrics.Collector
}

// New builds a Repository. feedPrefix filters endpoint results to the
// operating feed ("Tartu"); mc may be nil.
func New(c *client.Client, ca *cache.Cache, ds *dataset.Dataset, feedPrefix string, mc *metrics.Collector) *Repository {
	return &Repository{
		client:     c,
		cache:      ca,
		dataset:    ds,
		feedPrefix: feedPrefix,
		m:          mc,
	}
}

// NearbyStops returns the stops around a point with their upcoming
// departures. Results are served from the fresh cache unless force is set;
// identical in-flight requests are coalesced, force included, so concurrent
// refreshes do not multiply endpoint load. On a fetch failure the stale
// cache answers when it can.
func (r *Repository) NearbyStops(ctx context.Context, lat, lon float64, radius int, force bool) ([]transit.Stop, error) {
	key := cache.BucketKey(lat, lon, radius)

	if !force {
		if raw, ok := r.cache.Get(key, cache.StopsTTL); ok {
			if stops, err := rehydrateStops(raw); err == nil {
				return stops, nil
			}
			// A cached form we cannot read is a miss; fall through to fetch.
		}
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		return r.fetchNearby(ctx, key, lat, lon, radius)
	})
	if shared {
		r.m.CoalescedRequest()
	}
	if err != nil {
		return nil, err
	}
	return v.([]transit.Stop), nil
}

func (r *Repository) fetchNearby(ctx context.Context, key string, lat, lon float64, radius int) ([]transit.Stop, error) {
	raw, err := r.do(ctx, "stopsByRadius", client.QueryStopsByRadius, map[string]any{
		"lat": lat, "lon": lon, "radius": radius,
	})
	if err != nil {
		if stale, ok := r.cache.GetStale(key); ok {
			if stops, rerr := rehydrateStops(stale); rerr == nil {
				log.Printf("repo: nearby stops fetch failed (%s), serving stale cache for %s: %v", client.Kind(err), key, err)
				r.m.StaleFallback()
				return stops, nil
			}
		}
		return nil, err
	}

	var data client.StopsByRadiusData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	var stops []transit.Stop
	for _, edge := range data.StopsByRadius.Edges {
		ws := edge.Node.Stop
		if ws == nil || !r.inFeed(ws.GtfsID) {
			continue
		}
		s := ws.ToStop()
		d := edge.Node.Distance
		s.Distance = &d
		stops = append(stops, s)
	}

	r.cache.Set(key, compressStops(stops))
	return stops, nil
}

// StopByID returns one stop with 20 upcoming departures, or nil on any
// failure. A single unreachable stop must not break the favorites list.
func (r *Repository) StopByID(ctx context.Context, id string) *transit.Stop {
	raw, err := r.do(ctx, "stop", client.QueryStopByID, map[string]any{"id": id})
	if err != nil {
		log.Printf("repo: stop %s: %v", id, err)
		return nil
	}
	var data client.StopData
	if err := json.Unmarshal(raw, &data); err != nil || data.Stop == nil {
		log.Printf("repo: stop %s: bad payload", id)
		return nil
	}
	s := data.Stop.ToStop()
	return &s
}

func (r *Repository) inFeed(gtfsID string) bool {
	if r.feedPrefix == "" {
		return true
	}
	return strings.HasPrefix(gtfsID, r.feedPrefix+":")
}

// do issues one instrumented GraphQL request.
func (r *Repository) do(ctx context.Context, op, query string, variables map[string]any) (json.RawMessage, error) {
	r.m.TransitRequest(op)
	start := time.Now()
	raw, err := r.client.Do(ctx, query, variables)
	r.m.ObserveRequest(time.Since(start))
	if err != nil {
		r.m.TransitError(string(client.Kind(err)))
		return nil, err
	}
	return raw, nil
}
