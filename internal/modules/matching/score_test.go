package matching

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"unirides/internal/geo"
	"unirides/internal/modules/passenger"
	"unirides/internal/modules/ride"
	"unirides/internal/types"
)

var searchAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }

// baseRide earns no adjustment on its own: an hour off, no tags, no estimates.
func baseRide() ride.Ride {
	return ride.Ride{
		ID:             "r1",
		DriverID:       "d1",
		Pickup:         "London",
		Dropoff:        "Manchester",
		DepartureTime:  searchAt.Add(time.Hour),
		SeatsAvailable: 2,
		Fare:           10,
		Status:         ride.StatusRequested,
	}
}

func baseCriteria() SearchCriteria {
	return SearchCriteria{PassengerID: "p1", Pickup: "London", Dropoff: "Manchester", DepartureTime: searchAt}
}

func TestScore_Adjustments(t *testing.T) {
	rainy := &geo.Weather{TemperatureC: 12, WindSpeed: 5, IsRainy: true}

	tests := []struct {
		name        string
		ride        func(*ride.Ride)
		criteria    func(*SearchCriteria)
		prefs       Preferences
		sig         Signals
		female      bool
		wantRaw     int
		wantFactors []string
	}{
		{name: "base only", wantRaw: 100},
		{
			name:        "perfect time",
			ride:        func(r *ride.Ride) { r.DepartureTime = searchAt.Add(10 * time.Minute) },
			wantRaw:     115,
			wantFactors: []string{FactorPerfectTime},
		},
		{
			name:        "close time before requested",
			ride:        func(r *ride.Ride) { r.DepartureTime = searchAt.Add(-20 * time.Minute) },
			wantRaw:     110,
			wantFactors: []string{FactorCloseTime},
		},
		{
			name:        "15 minutes is close, not perfect",
			ride:        func(r *ride.Ride) { r.DepartureTime = searchAt.Add(15 * time.Minute) },
			wantRaw:     110,
			wantFactors: []string{FactorCloseTime},
		},
		{
			name:        "30 minutes is still close",
			ride:        func(r *ride.Ride) { r.DepartureTime = searchAt.Add(30 * time.Minute) },
			wantRaw:     110,
			wantFactors: []string{FactorCloseTime},
		},
		{
			name:    "31 minutes earns nothing",
			ride:    func(r *ride.Ride) { r.DepartureTime = searchAt.Add(31 * time.Minute) },
			wantRaw: 100,
		},
		{
			name:        "min rating met",
			ride:        func(r *ride.Ride) { r.DriverRating = f64(4.5) },
			prefs:       Preferences{MinDriverRating: f64(4)},
			wantRaw:     115,
			wantFactors: []string{FactorHighRatedDriver},
		},
		{
			name:    "min rating not met",
			ride:    func(r *ride.Ride) { r.DriverRating = f64(3) },
			prefs:   Preferences{MinDriverRating: f64(4)},
			wantRaw: 90,
		},
		{
			name:    "unrated driver does not meet min rating",
			prefs:   Preferences{MinDriverRating: f64(4)},
			wantRaw: 90,
		},
		{
			name:        "preferred driver",
			sig:         Signals{Preferred: []passenger.PreferredDriver{{DriverID: "d1", AverageRating: 4.8, Reviews: 3}}},
			wantRaw:     120,
			wantFactors: []string{FactorPreferredDriver},
		},
		{
			name:        "favorite route overlaps both endpoints",
			sig:         Signals{Favorites: []passenger.FavoriteRoute{{Pickup: "london", Dropoff: "Manchester Piccadilly", Frequency: 4}}},
			wantRaw:     125,
			wantFactors: []string{FactorFavoriteRoute},
		},
		{
			name:    "favorite route with only pickup overlapping",
			sig:     Signals{Favorites: []passenger.FavoriteRoute{{Pickup: "London", Dropoff: "Leeds", Frequency: 9}}},
			wantRaw: 100,
		},
		{
			name:        "rain with a car",
			ride:        func(r *ride.Ride) { r.VehicleType = "car" },
			sig:         Signals{Weather: rainy},
			wantRaw:     115,
			wantFactors: []string{FactorWeatherVehicle},
		},
		{
			name:        "high precipitation with an SUV",
			ride:        func(r *ride.Ride) { r.VehicleType = "SUV" },
			sig:         Signals{Weather: &geo.Weather{TemperatureC: 12, PrecipitationChance: 70}},
			wantRaw:     115,
			wantFactors: []string{FactorWeatherVehicle},
		},
		{
			name:        "rain with a motorcycle",
			ride:        func(r *ride.Ride) { r.VehicleType = "motorcycle" },
			sig:         Signals{Weather: rainy},
			wantRaw:     90,
			wantFactors: []string{FactorWeatherUnsuited},
		},
		{
			name:        "rain with no vehicle recorded is neither suited nor unsuited",
			sig:         Signals{Weather: rainy},
			wantRaw:     100,
			wantFactors: []string{},
		},
		{
			name:        "rain with a blank vehicle type",
			ride:        func(r *ride.Ride) { r.VehicleType = "   " },
			sig:         Signals{Weather: &geo.Weather{TemperatureC: 12, PrecipitationChance: 80}},
			wantRaw:     100,
			wantFactors: []string{},
		},
		{
			name:        "rain with a recorded but unsuited vehicle",
			ride:        func(r *ride.Ride) { r.VehicleType = "van" },
			sig:         Signals{Weather: rainy},
			wantRaw:     90,
			wantFactors: []string{FactorWeatherUnsuited},
		},
		{
			name:        "high winds on a scooter",
			ride:        func(r *ride.Ride) { r.VehicleType = "scooter" },
			sig:         Signals{Weather: &geo.Weather{TemperatureC: 15, WindSpeed: 25}},
			wantRaw:     85,
			wantFactors: []string{FactorHighWind},
		},
		{
			name:    "high winds in a car",
			ride:    func(r *ride.Ride) { r.VehicleType = "car" },
			sig:     Signals{Weather: &geo.Weather{TemperatureC: 15, WindSpeed: 25}},
			wantRaw: 100,
		},
		{
			name:        "hot day with air conditioning",
			ride:        func(r *ride.Ride) { r.Features = []string{ride.FeatureAirConditioning} },
			sig:         Signals{Weather: &geo.Weather{TemperatureC: 32}},
			wantRaw:     110,
			wantFactors: []string{FactorAirConditioned},
		},
		{
			name:        "distance estimate within 10%",
			ride:        func(r *ride.Ride) { r.EstimatedDistanceKm = f64(260) },
			sig:         Signals{Route: &geo.Route{DistanceKm: 262, DurationMin: 314}},
			wantRaw:     110,
			wantFactors: []string{FactorAccurateDistance},
		},
		{
			name:    "distance estimate off by more than 10%",
			ride:    func(r *ride.Ride) { r.EstimatedDistanceKm = f64(200) },
			sig:     Signals{Route: &geo.Route{DistanceKm: 262, DurationMin: 314}},
			wantRaw: 100,
		},
		{
			name:        "duration estimate within 15%",
			ride:        func(r *ride.Ride) { r.EstimatedDurationMin = f64(300) },
			sig:         Signals{Route: &geo.Route{DistanceKm: 262, DurationMin: 280}},
			wantRaw:     105,
			wantFactors: []string{FactorAccurateDuration},
		},
		{
			name:        "computed duration well under estimate",
			ride:        func(r *ride.Ride) { r.EstimatedDurationMin = f64(400) },
			sig:         Signals{Route: &geo.Route{DistanceKm: 262, DurationMin: 280}},
			wantRaw:     115,
			wantFactors: []string{FactorFasterThanAverage},
		},
		{
			name:        "avoids highways",
			ride:        func(r *ride.Ride) { r.Features = []string{ride.FeatureNoHighway} },
			prefs:       Preferences{AvoidHighways: true},
			wantRaw:     110,
			wantFactors: []string{FactorAvoidsHighways},
		},
		{
			name:    "no-highway tag without the preference",
			ride:    func(r *ride.Ride) { r.Features = []string{ride.FeatureNoHighway} },
			wantRaw: 100,
		},
		{
			name:        "great price",
			ride:        func(r *ride.Ride) { r.Fare = 12 },
			criteria:    func(c *SearchCriteria) { c.MaxPrice = f64(20) },
			wantRaw:     115,
			wantFactors: []string{FactorGreatPrice},
		},
		{
			name:        "good price at 0.8",
			ride:        func(r *ride.Ride) { r.Fare = 16 },
			criteria:    func(c *SearchCriteria) { c.MaxPrice = f64(20) },
			wantRaw:     105,
			wantFactors: []string{FactorGoodPrice},
		},
		{
			name:        "good price at exactly 0.9",
			ride:        func(r *ride.Ride) { r.Fare = 18 },
			criteria:    func(c *SearchCriteria) { c.MaxPrice = f64(20) },
			wantRaw:     105,
			wantFactors: []string{FactorGoodPrice},
		},
		{
			name:     "price near the ceiling",
			ride:     func(r *ride.Ride) { r.Fare = 19 },
			criteria: func(c *SearchCriteria) { c.MaxPrice = f64(20) },
			wantRaw:  100,
		},
		{
			name:        "accessible vehicle",
			ride:        func(r *ride.Ride) { r.Features = []string{"Wheelchair_Accessible"} },
			prefs:       Preferences{NeedsAccessibility: true},
			wantRaw:     125,
			wantFactors: []string{FactorAccessible},
		},
		{
			name:        "female driver preferred and found",
			prefs:       Preferences{PreferFemaleDriver: true},
			female:      true,
			wantRaw:     115,
			wantFactors: []string{FactorFemaleDriver},
		},
		{
			name:    "female flag ignored without the preference",
			female:  true,
			wantRaw: 100,
		},
		{
			name:        "preferred vehicle type",
			ride:        func(r *ride.Ride) { r.VehicleType = "Sedan" },
			prefs:       Preferences{PreferredVehicleTypes: []string{"hatchback", "sedan"}},
			wantRaw:     110,
			wantFactors: []string{FactorPreferredVehicle},
		},
		{
			name:        "ridden with driver before",
			sig:         Signals{History: []passenger.HistoryEntry{{DriverID: "d1", Rating: intp(5)}, {DriverID: "d1"}}},
			wantRaw:     105,
			wantFactors: []string{FactorRiddenBefore},
		},
		{
			name:    "low past rating blocks the history bonus",
			sig:     Signals{History: []passenger.HistoryEntry{{DriverID: "d1", Rating: intp(5)}, {DriverID: "d1", Rating: intp(2)}}},
			wantRaw: 100,
		},
		{
			name: "preferred driver does not also earn the history bonus",
			sig: Signals{
				Preferred: []passenger.PreferredDriver{{DriverID: "d1", AverageRating: 5, Reviews: 1}},
				History:   []passenger.HistoryEntry{{DriverID: "d1", Rating: intp(5)}},
			},
			wantRaw:     120,
			wantFactors: []string{FactorPreferredDriver},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRide()
			if tt.ride != nil {
				tt.ride(&r)
			}
			c := baseCriteria()
			if tt.criteria != nil {
				tt.criteria(&c)
			}
			got := Score(r, c, tt.prefs, tt.sig, DefaultWeights(), tt.female)
			if got.Disqualified {
				t.Fatalf("unexpected disqualification: %+v", got)
			}
			if got.Raw != tt.wantRaw {
				t.Errorf("raw = %d, want %d (factors %v)", got.Raw, tt.wantRaw, got.Factors)
			}
			if len(got.Factors) != len(tt.wantFactors) || (len(tt.wantFactors) > 0 && !reflect.DeepEqual(got.Factors, tt.wantFactors)) {
				t.Errorf("factors = %v, want %v", got.Factors, tt.wantFactors)
			}
		})
	}
}

func TestScore_AccessibilityDisqualifiesRegardlessOfBonuses(t *testing.T) {
	r := baseRide()
	r.DepartureTime = searchAt.Add(5 * time.Minute)
	r.DriverRating = f64(5)
	r.VehicleType = "car"
	r.Fare = 5
	c := baseCriteria()
	c.MaxPrice = f64(20)
	sig := Signals{
		Preferred: []passenger.PreferredDriver{{DriverID: "d1", AverageRating: 5}},
		Favorites: []passenger.FavoriteRoute{{Pickup: "London", Dropoff: "Manchester", Frequency: 3}},
		Weather:   &geo.Weather{IsRainy: true},
	}
	prefs := Preferences{NeedsAccessibility: true, MinDriverRating: f64(4), PreferFemaleDriver: true}
	w := DefaultWeights()

	got := Score(r, c, prefs, sig, w, true)
	if !got.Disqualified {
		t.Fatal("expected disqualification")
	}
	if !reflect.DeepEqual(got.Factors[len(got.Factors)-2:], []string{FactorInaccessible, FactorFemaleDriver}) {
		t.Errorf("factors = %v", got.Factors)
	}
	if n := normalize(got, w); n != 0 {
		t.Fatalf("disqualified ride normalized to %d, want 0", n)
	}
}

func TestNormalize(t *testing.T) {
	w := DefaultWeights()
	ceil := w.ceiling()
	tests := []struct {
		name string
		sc   Scored
		want int
	}{
		{"ceiling", Scored{Raw: ceil}, 100},
		{"above ceiling clamps", Scored{Raw: ceil * 3}, 100},
		{"negative clamps", Scored{Raw: -40}, 0},
		{"base only", Scored{Raw: w.Base}, 33},
		{"disqualified", Scored{Raw: ceil, Disqualified: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.sc, w); got != tt.want {
				t.Errorf("normalize(%+v) = %d, want %d", tt.sc, got, tt.want)
			}
		})
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vehicles := []string{"", "car", "suv", "motorcycle", "bike", "van"}
	features := []string{ride.FeatureAccessible, ride.FeatureAirConditioning, ride.FeatureNoHighway}
	w := DefaultWeights()

	for i := 0; i < 500; i++ {
		r := baseRide()
		r.DriverID = types.ID([]string{"d1", "d2", "d3"}[rng.Intn(3)])
		r.DepartureTime = searchAt.Add(time.Duration(rng.Intn(240)-120) * time.Minute)
		r.VehicleType = vehicles[rng.Intn(len(vehicles))]
		r.Fare = float64(rng.Intn(30))
		for _, f := range features {
			if rng.Intn(2) == 0 {
				r.Features = append(r.Features, f)
			}
		}
		if rng.Intn(2) == 0 {
			r.DriverRating = f64(float64(rng.Intn(6)))
		}
		if rng.Intn(2) == 0 {
			r.EstimatedDistanceKm = f64(float64(200 + rng.Intn(120)))
			r.EstimatedDurationMin = f64(float64(200 + rng.Intn(200)))
		}
		c := baseCriteria()
		if rng.Intn(2) == 0 {
			c.MaxPrice = f64(20)
		}
		prefs := Preferences{
			NeedsAccessibility: rng.Intn(3) == 0,
			PreferFemaleDriver: rng.Intn(2) == 0,
			AvoidHighways:      rng.Intn(2) == 0,
		}
		if rng.Intn(2) == 0 {
			prefs.MinDriverRating = f64(4)
		}
		sig := Signals{
			Preferred: []passenger.PreferredDriver{{DriverID: "d2", AverageRating: 4.5}},
			Favorites: []passenger.FavoriteRoute{{Pickup: "London", Dropoff: "Manchester"}},
			History:   []passenger.HistoryEntry{{DriverID: "d3", Rating: intp(4)}},
			Weather:   &geo.Weather{TemperatureC: float64(rng.Intn(40)), WindSpeed: float64(rng.Intn(40)), IsRainy: rng.Intn(2) == 0},
			Route:     &geo.Route{DistanceKm: 262, DurationMin: 314},
		}

		sc := Score(r, c, prefs, sig, w, rng.Intn(2) == 0)
		n := normalize(sc, w)
		if n < 0 || n > 100 {
			t.Fatalf("score %d out of bounds for %+v", n, r)
		}
		if sc.Disqualified != (n == 0) {
			t.Fatalf("disqualified=%v but score=%d", sc.Disqualified, n)
		}
		if prefs.NeedsAccessibility && !r.HasFeature(ride.FeatureAccessible) && n != 0 {
			t.Fatalf("inaccessible ride scored %d", n)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"London", "london", true},
		{"London Euston", "London", true},
		{"London", "London Euston", true},
		{"Leeds", "London", false},
		{"", "London", false},
		{"London", "  ", false},
	}
	for _, tt := range tests {
		if got := overlaps(tt.a, tt.b); got != tt.want {
			t.Errorf("overlaps(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
