package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values. DIGITRANSIT_KEY keeps the
// API key out of the config file.
const (
	EnvAPIKey     = "DIGITRANSIT_KEY"
	EnvTransitURL = "TRANSIT_URL"
	EnvCacheDir   = "CACHE_DIR"
)

// Tartu deployment defaults, applied for fields the file leaves zero.
const (
	defaultTimeout       = 20 * time.Second
	defaultFeedPrefix    = "Tartu"
	defaultUserAgent     = "buscore/1.0"
	defaultViewBox       = "26.60,58.44,26.85,58.30"
	defaultCountryCodes  = "ee"
	defaultCacheMaxBytes = 5 << 20
	defaultFallbackLat   = 58.3776
	defaultFallbackLon   = 26.7290
	defaultNearbyRadius  = 500
	defaultMaxStops      = 100
	defaultCityRadius    = 8000
)

// Load reads and validates the configuration at path. A .env file in the
// working directory is loaded first when present; environment variables win
// over file values.
func Load(path string) (AppConfig, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Transit.APIKey = v
	}
	if v := os.Getenv(EnvTransitURL); v != "" {
		cfg.Transit.URL = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Cache.Dir = v
	}
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Transit.FeedPrefix == "" {
		cfg.Transit.FeedPrefix = defaultFeedPrefix
	}
	if cfg.Transit.TimeoutMS == 0 {
		cfg.Transit.TimeoutMS = int(defaultTimeout / time.Millisecond)
	}
	if cfg.Geocoder.UserAgent == "" {
		cfg.Geocoder.UserAgent = defaultUserAgent
	}
	if cfg.Geocoder.ViewBox == "" {
		cfg.Geocoder.ViewBox = defaultViewBox
	}
	if cfg.Geocoder.CountryCodes == "" {
		cfg.Geocoder.CountryCodes = defaultCountryCodes
	}
	if cfg.Cache.MaxBytes == 0 {
		cfg.Cache.MaxBytes = defaultCacheMaxBytes
	}
	if cfg.Location.FallbackLat == 0 && cfg.Location.FallbackLon == 0 {
		cfg.Location.FallbackLat = defaultFallbackLat
		cfg.Location.FallbackLon = defaultFallbackLon
	}
	if cfg.Defaults.NearbyRadius == 0 {
		cfg.Defaults.NearbyRadius = defaultNearbyRadius
	}
	if cfg.Defaults.MaxStopsOnMap == 0 {
		cfg.Defaults.MaxStopsOnMap = defaultMaxStops
	}
	if cfg.Defaults.CityRadius == 0 {
		cfg.Defaults.CityRadius = defaultCityRadius
	}
}

// Timeout returns the transit request timeout as a duration.
func (c TransitConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
