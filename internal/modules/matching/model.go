// README: Match engine inputs, collected signals, and ranked results.
package matching

import (
	"time"

	"unirides/internal/geo"
	"unirides/internal/modules/passenger"
	"unirides/internal/modules/ride"
	"unirides/internal/types"
)

// NoMatchesMessage is shown whenever a search yields nothing to book.
const NoMatchesMessage = "No matching rides found. Try adjusting your search criteria."

type SearchCriteria struct {
	PassengerID   types.ID  `json:"-"`
	Pickup        string    `json:"pickup_location"`
	Dropoff       string    `json:"dropoff_location"`
	DepartureTime time.Time `json:"departure_time"`
	MaxPrice      *float64  `json:"max_price,omitempty"`
}

// Preferences are optional soft constraints. NeedsAccessibility is the only hard one.
type Preferences struct {
	MinDriverRating       *float64 `json:"min_driver_rating,omitempty"`
	PreferFemaleDriver    bool     `json:"prefer_female_driver,omitempty"`
	NeedsAccessibility    bool     `json:"needs_accessibility,omitempty"`
	PreferredVehicleTypes []string `json:"preferred_vehicle_types,omitempty"`
	AvoidHighways         bool     `json:"avoid_highways,omitempty"`
	DisableWeather        bool     `json:"disable_weather,omitempty"`
}

// Signals is everything the collectors managed to gather for one search.
// Any field may be empty; scoring skips what is missing.
type Signals struct {
	History      []passenger.HistoryEntry
	Favorites    []passenger.FavoriteRoute
	Preferred    []passenger.PreferredDriver
	PickupPoint  *types.Point
	DropoffPoint *types.Point
	Weather      *geo.Weather
	Route        *geo.Route
	Points       int
}

type MatchResult struct {
	ride.Ride
	// MatchScore is RawScore normalized against the best reachable raw score
	// for the active weights (Weights.ceiling), rounded into [0,100]. It is
	// 0 for a ride that fails a hard constraint.
	MatchScore   int          `json:"match_score"`
	// RawScore is the additive total: base plus every adjustment applied.
	RawScore     int          `json:"raw_score"`
	MatchFactors []string     `json:"match_factors"`
	WeatherInfo  *geo.Weather `json:"weather_info,omitempty"`
	DistanceInfo *geo.Route   `json:"distance_info,omitempty"`
}

type Outcome struct {
	Matches       []MatchResult `json:"matches"`
	Degraded      bool          `json:"degraded"`
	PointsBalance int           `json:"points_balance"`
	Message       string        `json:"message,omitempty"`
}

// Vehicle classes used by the weather adjustments.
var (
	weatherSuited = map[string]bool{"car": true, "sedan": true, "suv": true}
	twoWheeled    = map[string]bool{"motorcycle": true, "scooter": true, "bike": true, "bicycle": true, "moped": true}
)

const (
	rainyPrecipitation = 60.0
	highWindSpeed      = 20.0
	hotTemperatureC    = 30.0
	lowRatedReview     = 3
)
