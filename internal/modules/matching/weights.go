// README: Tunable scoring weights for the match engine.
package matching

import "strings"

// Weights holds every additive adjustment applied by Score. Penalties are negative.
type Weights struct {
	Base              int
	HighRatedDriver   int
	LowRatedDriver    int
	PreferredDriver   int
	FavoriteRoute     int
	PerfectTime       int
	CloseTime         int
	WeatherVehicle    int
	WeatherUnsuited   int
	HighWind          int
	AirConditioned    int
	AccurateDistance  int
	AvoidsHighways    int
	GreatPrice        int
	GoodPrice         int
	AccurateDuration  int
	FasterThanAverage int
	Accessible        int
	FemaleDriver      int
	PreferredVehicle  int
	RiddenBefore      int
}

func DefaultWeights() Weights {
	return Weights{
		Base:              100,
		HighRatedDriver:   15,
		LowRatedDriver:    -10,
		PreferredDriver:   20,
		FavoriteRoute:     25,
		PerfectTime:       15,
		CloseTime:         10,
		WeatherVehicle:    15,
		WeatherUnsuited:   -10,
		HighWind:          -15,
		AirConditioned:    10,
		AccurateDistance:  10,
		AvoidsHighways:    10,
		GreatPrice:        15,
		GoodPrice:         5,
		AccurateDuration:  5,
		FasterThanAverage: 15,
		Accessible:        25,
		FemaleDriver:      15,
		PreferredVehicle:  10,
		RiddenBefore:      5,
	}
}

func (w *Weights) fields() map[string]*int {
	return map[string]*int{
		"base":                &w.Base,
		"high_rated_driver":   &w.HighRatedDriver,
		"low_rated_driver":    &w.LowRatedDriver,
		"preferred_driver":    &w.PreferredDriver,
		"favorite_route":      &w.FavoriteRoute,
		"perfect_time":        &w.PerfectTime,
		"close_time":          &w.CloseTime,
		"weather_vehicle":     &w.WeatherVehicle,
		"weather_unsuited":    &w.WeatherUnsuited,
		"high_wind":           &w.HighWind,
		"air_conditioned":     &w.AirConditioned,
		"accurate_distance":   &w.AccurateDistance,
		"avoids_highways":     &w.AvoidsHighways,
		"great_price":         &w.GreatPrice,
		"good_price":          &w.GoodPrice,
		"accurate_duration":   &w.AccurateDuration,
		"faster_than_average": &w.FasterThanAverage,
		"accessible":          &w.Accessible,
		"female_driver":       &w.FemaleDriver,
		"preferred_vehicle":   &w.PreferredVehicle,
		"ridden_before":       &w.RiddenBefore,
	}
}

// Apply returns a copy with overrides keyed by snake_case weight name.
// Unknown keys are returned so the caller can report them.
func (w Weights) Apply(overrides map[string]int) (Weights, []string) {
	out := w
	fields := out.fields()
	var unknown []string
	for k, v := range overrides {
		p, ok := fields[strings.ToLower(k)]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		*p = v
	}
	return out, unknown
}

// ceiling is the best raw score a candidate can reach. Mutually exclusive
// adjustments contribute only their larger weight.
func (w Weights) ceiling() int {
	c := pos(w.Base) +
		pos(w.HighRatedDriver) +
		max(pos(w.PreferredDriver), pos(w.RiddenBefore)) +
		pos(w.FavoriteRoute) +
		max(pos(w.PerfectTime), pos(w.CloseTime)) +
		pos(w.WeatherVehicle) +
		pos(w.AirConditioned) +
		pos(w.AccurateDistance) +
		pos(w.AvoidsHighways) +
		max(pos(w.GreatPrice), pos(w.GoodPrice)) +
		max(pos(w.AccurateDuration), pos(w.FasterThanAverage)) +
		pos(w.Accessible) +
		pos(w.FemaleDriver) +
		pos(w.PreferredVehicle)
	if c == 0 {
		return 1
	}
	return c
}

func pos(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
