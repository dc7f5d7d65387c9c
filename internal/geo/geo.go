// README: Provider boundaries for geocoding, weather and route estimates.
package geo

import (
	"context"
	"errors"

	"unirides/internal/types"
)

var ErrNoResult = errors.New("no result")

type Weather struct {
	TemperatureC        float64 `json:"temperature_c"`
	Conditions          string  `json:"conditions"`
	WindSpeed           float64 `json:"wind_speed"`
	PrecipitationChance float64 `json:"precipitation_chance"`
	IsRainy             bool    `json:"is_rainy"`
}

type Route struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*types.Point, error)
}

type WeatherProvider interface {
	Current(ctx context.Context, location string) (*Weather, error)
}

type DistanceProvider interface {
	Distance(ctx context.Context, origin, dest types.Point) (*Route, error)
}
