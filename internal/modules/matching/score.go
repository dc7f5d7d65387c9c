// README: Pure scoring of one candidate ride against collected signals.
package matching

import (
	"math"
	"strings"
	"time"

	"unirides/internal/modules/ride"
	"unirides/internal/types"
)

// Factor labels attached to scored rides.
const (
	FactorHighRatedDriver   = "High-rated driver"
	FactorPreferredDriver   = "Preferred driver"
	FactorFavoriteRoute     = "Favorite route"
	FactorPerfectTime       = "Departure time is perfect"
	FactorCloseTime         = "Departure time is close"
	FactorWeatherVehicle    = "Weather-appropriate vehicle"
	FactorWeatherUnsuited   = "Not ideal for current weather"
	FactorHighWind          = "Not ideal for current weather (high winds)"
	FactorAirConditioned    = "Air conditioned vehicle"
	FactorAccurateDistance  = "Accurate route estimation"
	FactorAvoidsHighways    = "Avoids highways as preferred"
	FactorGreatPrice        = "Great price"
	FactorGoodPrice         = "Good price"
	FactorAccurateDuration  = "Accurate time estimation"
	FactorFasterThanAverage = "Faster than average"
	FactorInaccessible      = "Does not meet accessibility requirements"
	FactorAccessible        = "Accessible vehicle available"
	FactorFemaleDriver      = "Female driver as preferred"
	FactorPreferredVehicle  = "Preferred vehicle type"
	FactorRiddenBefore      = "Ridden with this driver before"
)

type Scored struct {
	Raw          int
	Factors      []string
	Disqualified bool
}

type scorer struct {
	raw     int
	factors []string
}

func (s *scorer) add(weight int, factor string) {
	s.raw += weight
	if factor != "" {
		s.factors = append(s.factors, factor)
	}
}

// Score evaluates one ride. driverFemale is only consulted when the passenger
// prefers a female driver.
func Score(r ride.Ride, c SearchCriteria, prefs Preferences, sig Signals, w Weights, driverFemale bool) Scored {
	s := scorer{raw: w.Base}

	if prefs.MinDriverRating != nil {
		if r.DriverRating != nil && *r.DriverRating >= *prefs.MinDriverRating {
			s.add(w.HighRatedDriver, FactorHighRatedDriver)
		} else {
			s.add(w.LowRatedDriver, "")
		}
	}

	preferred := isPreferred(sig, r.DriverID)
	if preferred {
		s.add(w.PreferredDriver, FactorPreferredDriver)
	}

	if onFavoriteRoute(sig, r) {
		s.add(w.FavoriteRoute, FactorFavoriteRoute)
	}

	diff := r.DepartureTime.Sub(c.DepartureTime)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < 15*time.Minute:
		s.add(w.PerfectTime, FactorPerfectTime)
	case diff <= 30*time.Minute:
		s.add(w.CloseTime, FactorCloseTime)
	}

	if wx := sig.Weather; wx != nil {
		vehicle := strings.ToLower(strings.TrimSpace(r.VehicleType))
		// No recorded vehicle means unknown suitability, so rain adjusts nothing.
		if vehicle != "" && (wx.IsRainy || wx.PrecipitationChance >= rainyPrecipitation) {
			if weatherSuited[vehicle] {
				s.add(w.WeatherVehicle, FactorWeatherVehicle)
			} else {
				s.add(w.WeatherUnsuited, FactorWeatherUnsuited)
			}
		}
		if wx.WindSpeed > highWindSpeed && twoWheeled[vehicle] {
			s.add(w.HighWind, FactorHighWind)
		}
		if wx.TemperatureC > hotTemperatureC && r.HasFeature(ride.FeatureAirConditioning) {
			s.add(w.AirConditioned, FactorAirConditioned)
		}
	}

	if rt := sig.Route; rt != nil && r.EstimatedDistanceKm != nil && rt.DistanceKm > 0 {
		if math.Abs(*r.EstimatedDistanceKm-rt.DistanceKm)/rt.DistanceKm <= 0.10 {
			s.add(w.AccurateDistance, FactorAccurateDistance)
		}
	}

	if prefs.AvoidHighways && r.HasFeature(ride.FeatureNoHighway) {
		s.add(w.AvoidsHighways, FactorAvoidsHighways)
	}

	if c.MaxPrice != nil && *c.MaxPrice > 0 {
		ratio := r.Fare / *c.MaxPrice
		switch {
		case ratio < 0.7:
			s.add(w.GreatPrice, FactorGreatPrice)
		case ratio <= 0.9:
			s.add(w.GoodPrice, FactorGoodPrice)
		}
	}

	if rt := sig.Route; rt != nil && r.EstimatedDurationMin != nil && *r.EstimatedDurationMin > 0 {
		est := *r.EstimatedDurationMin
		if math.Abs(est-rt.DurationMin)/est <= 0.15 {
			s.add(w.AccurateDuration, FactorAccurateDuration)
		}
		if rt.DurationMin < 0.8*est {
			s.add(w.FasterThanAverage, FactorFasterThanAverage)
		}
	}

	disqualified := false
	if prefs.NeedsAccessibility {
		if meetsHardConstraints(r, prefs) {
			s.add(w.Accessible, FactorAccessible)
		} else {
			disqualified = true
			s.factors = append(s.factors, FactorInaccessible)
		}
	}

	if prefs.PreferFemaleDriver && driverFemale {
		s.add(w.FemaleDriver, FactorFemaleDriver)
	}

	if prefersVehicle(prefs, r.VehicleType) {
		s.add(w.PreferredVehicle, FactorPreferredVehicle)
	}

	if !preferred && riddenBefore(sig, r.DriverID) {
		s.add(w.RiddenBefore, FactorRiddenBefore)
	}

	return Scored{Raw: s.raw, Factors: s.factors, Disqualified: disqualified}
}

// normalize maps a raw score onto 0-100. Disqualification is applied last so
// no adjustment can lift a disqualified ride above zero.
func normalize(sc Scored, w Weights) int {
	if sc.Disqualified {
		return 0
	}
	n := int(math.Round(100 * float64(sc.Raw) / float64(w.ceiling())))
	return min(max(n, 0), 100)
}

// meetsHardConstraints reports whether r may be shown at all, scored or not.
func meetsHardConstraints(r ride.Ride, prefs Preferences) bool {
	return !prefs.NeedsAccessibility || r.HasFeature(ride.FeatureAccessible)
}

func isPreferred(sig Signals, driverID types.ID) bool {
	for _, p := range sig.Preferred {
		if p.DriverID == driverID {
			return true
		}
	}
	return false
}

func onFavoriteRoute(sig Signals, r ride.Ride) bool {
	for _, f := range sig.Favorites {
		if overlaps(r.Pickup, f.Pickup) && overlaps(r.Dropoff, f.Dropoff) {
			return true
		}
	}
	return false
}

// riddenBefore is true when the passenger has history with the driver and
// never rated one of those rides below lowRatedReview.
func riddenBefore(sig Signals, driverID types.ID) bool {
	found := false
	for _, h := range sig.History {
		if h.DriverID != driverID {
			continue
		}
		if h.Rating != nil && *h.Rating < lowRatedReview {
			return false
		}
		found = true
	}
	return found
}

func prefersVehicle(prefs Preferences, vehicle string) bool {
	vehicle = strings.TrimSpace(vehicle)
	if vehicle == "" {
		return false
	}
	for _, v := range prefs.PreferredVehicleTypes {
		if strings.EqualFold(strings.TrimSpace(v), vehicle) {
			return true
		}
	}
	return false
}

// overlaps is a case-insensitive substring match in either direction.
func overlaps(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
