// README: Passenger-owned signals: ride history, favorite routes, preferred drivers.
package passenger

import (
	"time"

	"unirides/internal/types"
)

type HistoryEntry struct {
	RideID        types.ID
	DriverID      types.ID
	Pickup        string
	Dropoff       string
	DepartureTime time.Time
	Rating        *int // the passenger's own review of the ride, if any
}

type FavoriteRoute struct {
	Pickup    string
	Dropoff   string
	Frequency int
}

type PreferredDriver struct {
	DriverID      types.ID
	AverageRating float64
	Reviews       int
}

// PreferredRatingFloor is the minimum average rating that makes a driver preferred.
const PreferredRatingFloor = 4
