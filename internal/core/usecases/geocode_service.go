package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/metrics"
)

const (
	geocodeCacheTTL = 24 * time.Hour
	defaultZoom     = 10

	SourceProvider = "google"
	SourceFallback = "fallback"
)

// zoomRules is checked in order; the first rule sharing a type with the
// place wins.
var zoomRules = []struct {
	types []string
	zoom  int
}{
	{[]string{"street_address", "premise", "point_of_interest"}, 15},
	{[]string{"neighborhood", "sublocality"}, 13},
	{[]string{"locality", "administrative_area_level_3"}, 11},
	{[]string{"administrative_area_level_2", "administrative_area_level_1"}, 9},
	{[]string{"natural_feature", "park"}, 8},
	{[]string{"country"}, 6},
}

// ZoomForPlaceTypes ranks provider place types into a map zoom level.
func ZoomForPlaceTypes(placeTypes []string) int {
	for _, rule := range zoomRules {
		for _, want := range rule.types {
			for _, have := range placeTypes {
				if want == have {
					return rule.zoom
				}
			}
		}
	}
	return defaultZoom
}

type knownPlace struct {
	key    string
	coords domain.Coordinates
}

// knownPlaces answers when the provider is absent or failing. Order matters
// for partial matches.
var knownPlaces = []knownPlace{
	{"toronto", domain.Coordinates{Latitude: 43.6532, Longitude: -79.3832, Zoom: 10}},
	{"new york", domain.Coordinates{Latitude: 40.7128, Longitude: -74.0060, Zoom: 10}},
	{"nyc", domain.Coordinates{Latitude: 40.7128, Longitude: -74.0060, Zoom: 10}},
	{"london", domain.Coordinates{Latitude: 51.5074, Longitude: -0.1278, Zoom: 10}},
	{"paris", domain.Coordinates{Latitude: 48.8566, Longitude: 2.3522, Zoom: 10}},
	{"tokyo", domain.Coordinates{Latitude: 35.6762, Longitude: 139.6503, Zoom: 10}},
	{"sydney", domain.Coordinates{Latitude: -33.8688, Longitude: 151.2093, Zoom: 10}},
	{"san francisco", domain.Coordinates{Latitude: 37.7749, Longitude: -122.4194, Zoom: 10}},
	{"sf", domain.Coordinates{Latitude: 37.7749, Longitude: -122.4194, Zoom: 10}},
	{"los angeles", domain.Coordinates{Latitude: 34.0522, Longitude: -118.2437, Zoom: 10}},
	{"la", domain.Coordinates{Latitude: 34.0522, Longitude: -118.2437, Zoom: 10}},
	{"mumbai", domain.Coordinates{Latitude: 19.0760, Longitude: 72.8777, Zoom: 10}},
	{"delhi", domain.Coordinates{Latitude: 28.7041, Longitude: 77.1025, Zoom: 10}},
	{"chennai", domain.Coordinates{Latitude: 13.0827, Longitude: 80.2707, Zoom: 10}},
	{"bangalore", domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946, Zoom: 10}},
	{"amazon rainforest", domain.Coordinates{Latitude: -3.4653, Longitude: -62.2159, Zoom: 7}},
	{"amazon", domain.Coordinates{Latitude: -3.4653, Longitude: -62.2159, Zoom: 7}},
}

// GeocodeService resolves place names to map coordinates.
type GeocodeService struct {
	provider ports.GeocodingProvider
	cache    ports.CacheService
}

// NewGeocodeService creates a new GeocodeService. provider and cache may be
// nil; without a provider every lookup uses the built-in table.
func NewGeocodeService(provider ports.GeocodingProvider, cache ports.CacheService) *GeocodeService {
	return &GeocodeService{provider: provider, cache: cache}
}

// Geocode never fails: an unknown place is reported as Found=false.
func (s *GeocodeService) Geocode(ctx context.Context, name string) domain.GeocodeResult {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.GeocodeResult{Found: false, Error: "Location name must not be empty"}
	}

	cacheKey := "geocode:" + strings.ToLower(name)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached domain.GeocodeResult
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return cached
			}
		} else if errors.Is(err, ports.ErrCacheMiss) {
			metrics.CacheMisses.WithLabelValues("geocode").Inc()
		}
	}

	if s.provider != nil {
		match, err := s.provider.Lookup(ctx, name)
		if err == nil {
			zoom := ZoomForPlaceTypes(match.Types)
			result := domain.GeocodeResult{
				Found:    true,
				Location: match.FormattedAddress,
				Coordinates: &domain.Coordinates{
					Latitude:  match.Latitude,
					Longitude: match.Longitude,
					Zoom:      zoom,
				},
				PlaceTypes: match.Types,
				Source:     SourceProvider,
			}
			metrics.GeocodeLookups.WithLabelValues(SourceProvider).Inc()

			if s.cache != nil {
				if data, err := json.Marshal(result); err == nil {
					_ = s.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
				}
			}
			return result
		}
		slog.WarnContext(ctx, "geocoding provider failed, using fallback table", "location", name, "error", err)
	}

	result := FallbackGeocode(name)
	if result.Found {
		metrics.GeocodeLookups.WithLabelValues(SourceFallback).Inc()
	} else {
		metrics.GeocodeLookups.WithLabelValues("miss").Inc()
	}
	return result
}

// FallbackGeocode resolves name against the built-in table: exact match
// first, then a substring match in either direction. Table order decides
// between several partial matches.
func FallbackGeocode(name string) domain.GeocodeResult {
	lower := strings.ToLower(strings.TrimSpace(name))

	if lower != "" {
		for _, p := range knownPlaces {
			if p.key == lower {
				coords := p.coords
				return domain.GeocodeResult{Found: true, Location: name, Coordinates: &coords, Source: SourceFallback}
			}
		}

		for _, p := range knownPlaces {
			if strings.Contains(lower, p.key) || strings.Contains(p.key, lower) {
				coords := p.coords
				return domain.GeocodeResult{Found: true, Location: titleCase(p.key), Coordinates: &coords, Source: SourceFallback}
			}
		}
	}

	return domain.GeocodeResult{
		Found:    false,
		Location: name,
		Error:    fmt.Sprintf("Location '%s' not found. Try cities like Toronto, New York, London, etc.", name),
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
