package repo

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"

	"github.com/tartu-transit/buscore/client"
	"github.com/tartu-transit/buscore/derive"
	"github.com/tartu-transit/buscore/polyline"
	"github.com/tartu-transit/buscore/transit"
)

// PlanOptions tunes a journey-plan query. Zero values select three
// itineraries, departure now, BUS+WALK.
type PlanOptions struct {
	NumItineraries int
	Date           string // "2025-05-12", planner-local
	Time           string // "14:30"
	Modes          []string
}

const (
	// arrivalAlternativeRadius bounds which stops near the main destination
	// are also planned to in the "how to get here" flow.
	arrivalAlternativeRadius = 300.0
	// arrivalAlternativeLimit caps those alternatives.
	arrivalAlternativeLimit = 5
	// arrivalPreferenceBand is the duration tolerance inside which a plan to
	// the primary destination beats a faster plan to an alternative.
	arrivalPreferenceBand = 5 * 60.0
)

// PlanJourney asks the planner for itineraries between two points. Leg
// geometries arrive encoded and are decoded here.
func (r *Repository) PlanJourney(ctx context.Context, from, to transit.LatLon, opts PlanOptions) ([]transit.JourneyPlan, error) {
	if opts.NumItineraries <= 0 {
		opts.NumItineraries = 3
	}
	if len(opts.Modes) == 0 {
		opts.Modes = []string{transit.ModeBus, transit.ModeWalk}
	}
	modes := make([]map[string]string, 0, len(opts.Modes))
	for _, m := range opts.Modes {
		modes = append(modes, map[string]string{"mode": m})
	}

	variables := map[string]any{
		"fromLat":        from.Lat,
		"fromLon":        from.Lon,
		"toLat":          to.Lat,
		"toLon":          to.Lon,
		"numItineraries": opts.NumItineraries,
		"modes":          modes,
	}
	if opts.Date != "" {
		variables["date"] = opts.Date
	}
	if opts.Time != "" {
		variables["time"] = opts.Time
	}

	raw, err := r.do(ctx, "plan", client.QueryPlan, variables)
	if err != nil {
		return nil, err
	}
	var data client.PlanData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	plans := make([]transit.JourneyPlan, 0, len(data.Plan.Itineraries))
	for _, it := range data.Plan.Itineraries {
		plans = append(plans, it.ToPlan(polyline.Decode))
	}
	return plans, nil
}

// WalkingRoute plans a single walk-only itinerary, used to draw the path to
// a selected stop. Nil when the planner finds none.
func (r *Repository) WalkingRoute(ctx context.Context, from, to transit.LatLon) (*transit.JourneyPlan, error) {
	plans, err := r.PlanJourney(ctx, from, to, PlanOptions{
		NumItineraries: 1,
		Modes:          []string{transit.ModeWalk},
	})
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

// ArrivalPlans answers "how do I get to this stop": it plans to the main
// stop and, in parallel, to up to five nearby stops within 300 m, merges the
// results, drops duplicate bus-route signatures and sorts by duration —
// except that inside a five-minute band a plan to the main stop outranks a
// faster plan to an alternative.
func (r *Repository) ArrivalPlans(ctx context.Context, from transit.LatLon, mainStop transit.Stop, nearby []transit.Stop) ([]transit.JourneyPlan, error) {
	type target struct {
		point   transit.LatLon
		primary bool
	}
	targets := []target{{transit.LatLon{Lat: mainStop.Lat, Lon: mainStop.Lon}, true}}
	for _, s := range nearby {
		if s.GtfsID == mainStop.GtfsID {
			continue
		}
		if derive.Haversine(mainStop.Lat, mainStop.Lon, s.Lat, s.Lon) > arrivalAlternativeRadius {
			continue
		}
		targets = append(targets, target{transit.LatLon{Lat: s.Lat, Lon: s.Lon}, false})
		if len(targets) == arrivalAlternativeLimit+1 {
			break
		}
	}

	type ranked struct {
		plan    transit.JourneyPlan
		primary bool
	}
	results := make([][]ranked, len(targets))
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt target) {
			defer wg.Done()
			plans, err := r.PlanJourney(ctx, from, tgt.point, PlanOptions{NumItineraries: 3})
			if err != nil {
				errs[i] = err
				return
			}
			for _, p := range plans {
				results[i] = append(results[i], ranked{plan: p, primary: tgt.primary})
			}
		}(i, tgt)
	}
	wg.Wait()

	var merged []ranked
	for _, rs := range results {
		merged = append(merged, rs...)
	}
	if len(merged) == 0 {
		// All targets failed: surface the primary's error.
		if errs[0] != nil {
			return nil, errs[0]
		}
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	// Dedupe by signature; for a repeated signature keep the faster plan,
	// preferring the primary destination on ties.
	bySig := map[string]int{}
	var unique []ranked
	for _, cand := range merged {
		sig := cand.plan.BusRouteSignature()
		idx, seen := bySig[sig]
		if !seen {
			bySig[sig] = len(unique)
			unique = append(unique, cand)
			continue
		}
		held := unique[idx]
		if cand.plan.Duration < held.plan.Duration ||
			(cand.plan.Duration == held.plan.Duration && cand.primary && !held.primary) {
			unique[idx] = cand
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		a, b := unique[i], unique[j]
		if a.primary != b.primary && math.Abs(a.plan.Duration-b.plan.Duration) <= arrivalPreferenceBand {
			return a.primary
		}
		return a.plan.Duration < b.plan.Duration
	})

	plans := make([]transit.JourneyPlan, len(unique))
	for i, u := range unique {
		plans[i] = u.plan
	}
	return plans, nil
}
