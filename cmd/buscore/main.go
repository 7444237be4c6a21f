package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/tartu-transit/buscore/cache"
	"github.com/tartu-transit/buscore/client"
	"github.com/tartu-transit/buscore/config"
	"github.com/tartu-transit/buscore/dataset"
	"github.com/tartu-transit/buscore/geocode"
	"github.com/tartu-transit/buscore/kvstore"
	"github.com/tartu-transit/buscore/metrics"
	"github.com/tartu-transit/buscore/repo"
	"github.com/tartu-transit/buscore/transit"
)

func initLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

func main() {
	configPath := flag.String("config", "config.yml", "configuration file")
	call := flag.String("call", "nearby", "nearby|stop|routes|plan|walk|timetable|reverse|forward")
	lat := flag.Float64("lat", 0, "latitude (nearby, plan, walk, reverse; 0 = configured fallback)")
	lon := flag.Float64("lon", 0, "longitude")
	radius := flag.Int("radius", 0, "search radius in meters (nearby; 0 = configured default)")
	force := flag.Bool("force", false, "bypass the fresh cache (nearby)")
	id := flag.String("id", "", "stop id (stop, timetable)")
	names := flag.String("names", "", "comma-separated route short names (routes)")
	toLat := flag.Float64("toLat", 0, "destination latitude (plan, walk)")
	toLon := flag.Float64("toLon", 0, "destination longitude")
	query := flag.String("q", "", "search text (forward)")
	metricsAddr := flag.String("metrics", "", "expose /metrics on this address")
	flag.Parse()

	initLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var mc *metrics.Collector
	if *metricsAddr != "" {
		mc = metrics.NewCollector()
		mc.Serve(*metricsAddr)
	}

	store, err := kvstore.NewDiskStore(cfg.Cache.Dir, cfg.Cache.MaxBytes)
	if err != nil {
		log.Fatalf("cache store: %v", err)
	}
	ca := cache.New(store, mc)
	ca.Maintain(cfg.Cache.SoftClearVersion, cfg.Cache.FullClearVersion)

	ds := dataset.New(cfg.Dataset.RoutesPath, cfg.Dataset.StopsPath)
	cl := client.New(cfg.Transit.URL, cfg.Transit.APIKey, cfg.Transit.Timeout())
	r := repo.New(cl, ca, ds, cfg.Transit.FeedPrefix, mc)
	geo := geocode.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent,
		cfg.Geocoder.ViewBox, cfg.Geocoder.CountryCodes)

	if *lat == 0 && *lon == 0 {
		*lat = cfg.Location.FallbackLat
		*lon = cfg.Location.FallbackLon
	}
	if *radius == 0 {
		*radius = cfg.Defaults.NearbyRadius
	}

	ctx := context.Background()
	var out any

	switch *call {
	case "nearby":
		out, err = r.NearbyStops(ctx, *lat, *lon, *radius, *force)
	case "stop":
		out = r.StopByID(ctx, *id)
	case "routes":
		bounds := &repo.CityBounds{
			Lat:    cfg.Location.FallbackLat,
			Lon:    cfg.Location.FallbackLon,
			Radius: float64(cfg.Defaults.CityRadius),
		}
		out, err = r.RoutesByShortNames(ctx, splitNames(*names), bounds)
	case "plan":
		out, err = r.PlanJourney(ctx,
			transit.LatLon{Lat: *lat, Lon: *lon},
			transit.LatLon{Lat: *toLat, Lon: *toLon}, repo.PlanOptions{})
	case "walk":
		out, err = r.WalkingRoute(ctx,
			transit.LatLon{Lat: *lat, Lon: *lon},
			transit.LatLon{Lat: *toLat, Lon: *toLon})
	case "timetable":
		var departures []transit.Departure
		departures, err = r.DailyTimetable(ctx, *id)
		if err == nil {
			out = repo.TimetableByRoute(departures)
		}
	case "reverse":
		out = geo.Reverse(ctx, *lat, *lon)
	case "forward":
		out = geo.Forward(ctx, *query)
	default:
		log.Fatalf("unknown call %q", *call)
	}
	if err != nil {
		log.Fatalf("%s: %v", *call, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func splitNames(csv string) []string {
	var names []string
	for _, n := range strings.Split(csv, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
