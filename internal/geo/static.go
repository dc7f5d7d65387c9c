// README: Offline providers used when no maps API key is configured.
package geo

import (
	"context"
	"math"
	"strings"

	"unirides/internal/types"
)

type city struct {
	name  string
	point types.Point
}

// ukCities is scanned in order; the first name contained in the address wins.
var ukCities = []city{
	{"London", types.Point{Lat: 51.5074, Lng: -0.1278}},
	{"Manchester", types.Point{Lat: 53.4808, Lng: -2.2426}},
	{"Birmingham", types.Point{Lat: 52.4862, Lng: -1.8904}},
	{"Leeds", types.Point{Lat: 53.8008, Lng: -1.5491}},
	{"Edinburgh", types.Point{Lat: 55.9533, Lng: -3.1883}},
	{"Glasgow", types.Point{Lat: 55.8642, Lng: -4.2518}},
	{"Liverpool", types.Point{Lat: 53.4084, Lng: -2.9916}},
	{"Oxford", types.Point{Lat: 51.7520, Lng: -1.2577}},
	{"Cambridge", types.Point{Lat: 52.2053, Lng: 0.1218}},
	{"Cardiff", types.Point{Lat: 51.4816, Lng: -3.1791}},
	{"Bristol", types.Point{Lat: 51.4545, Lng: -2.5879}},
	{"Nottingham", types.Point{Lat: 52.9548, Lng: -1.1581}},
	{"Sheffield", types.Point{Lat: 53.3811, Lng: -1.4701}},
	{"Newcastle", types.Point{Lat: 54.9783, Lng: -1.6178}},
	{"Sunderland", types.Point{Lat: 54.9066, Lng: -1.3833}},
	{"Brighton", types.Point{Lat: 50.8225, Lng: -0.1372}},
	{"Portsmouth", types.Point{Lat: 50.8058, Lng: -1.0872}},
	{"Leicester", types.Point{Lat: 52.6369, Lng: -1.1398}},
	{"Coventry", types.Point{Lat: 52.4068, Lng: -1.5197}},
}

// StaticGeocoder resolves addresses against a fixed table of UK cities.
type StaticGeocoder struct{}

func (StaticGeocoder) Geocode(_ context.Context, address string) (*types.Point, error) {
	lower := strings.ToLower(address)
	for _, c := range ukCities {
		if strings.Contains(lower, strings.ToLower(c.name)) {
			p := c.point
			return &p, nil
		}
	}
	return nil, ErrNoResult
}

// StaticWeather reports the same mild conditions everywhere.
type StaticWeather struct{}

func (StaticWeather) Current(_ context.Context, _ string) (*Weather, error) {
	return &Weather{
		TemperatureC:        19.5,
		Conditions:          "Partly Cloudy",
		WindSpeed:           12,
		PrecipitationChance: 20,
		IsRainy:             false,
	}, nil
}

// HaversineDistance estimates routes from straight-line distance at a fixed average speed.
type HaversineDistance struct {
	AverageSpeedKmh float64
}

func (h HaversineDistance) Distance(_ context.Context, origin, dest types.Point) (*Route, error) {
	speed := h.AverageSpeedKmh
	if speed <= 0 {
		speed = 50
	}
	km := HaversineKm(origin, dest)
	return &Route{
		DistanceKm:  km,
		DurationMin: math.Round(km * 60 / speed),
	}, nil
}
