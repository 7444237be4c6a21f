package config

// TransitConfig points at the GTFS/OTP GraphQL endpoint.
type TransitConfig struct {
	URL        string `yaml:"url" validate:"required,url"`
	APIKey     string `yaml:"apiKey"`
	FeedPrefix string `yaml:"feedPrefix" validate:"required"`
	TimeoutMS  int    `yaml:"timeoutMS" validate:"gte=0"`
}

// GeocoderConfig points at the Nominatim-compatible service.
type GeocoderConfig struct {
	BaseURL      string `yaml:"baseURL" validate:"omitempty,url"`
	UserAgent    string `yaml:"userAgent"`
	ViewBox      string `yaml:"viewbox"`
	CountryCodes string `yaml:"countrycodes"`
}

// DatasetConfig locates the bundled route and stop catalogs.
type DatasetConfig struct {
	RoutesPath string `yaml:"routesPath" validate:"required"`
	StopsPath  string `yaml:"stopsPath" validate:"required"`
}

// CacheConfig controls the persistent cache tier.
type CacheConfig struct {
	Dir              string `yaml:"dir" validate:"required"`
	MaxBytes         int64  `yaml:"maxBytes" validate:"gte=0"`
	SoftClearVersion string `yaml:"softClearVersion"`
	FullClearVersion string `yaml:"fullClearVersion"`
}

// LocationConfig holds the fallback point used before the first fix.
type LocationConfig struct {
	FallbackLat float64 `yaml:"fallbackLat"`
	FallbackLon float64 `yaml:"fallbackLon"`
}

// DefaultsConfig carries the tunables the settings store also defaults.
type DefaultsConfig struct {
	NearbyRadius  int `yaml:"nearbyRadius" validate:"gte=0"`
	MaxStopsOnMap int `yaml:"maxStopsOnMap" validate:"gte=0"`
	CityRadius    int `yaml:"cityRadius" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Transit  TransitConfig  `yaml:"transit" validate:"required"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Dataset  DatasetConfig  `yaml:"dataset" validate:"required"`
	Cache    CacheConfig    `yaml:"cache" validate:"required"`
	Location LocationConfig `yaml:"location"`
	Defaults DefaultsConfig `yaml:"defaults"`
}
