// README: Ride offers, bookings, and their status definitions.
package ride

import (
	"strings"
	"time"

	"unirides/internal/types"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Open reports whether a ride still takes bookings.
func (s Status) Open() bool {
	return s == StatusRequested || s == StatusAccepted
}

// Feature tags a driver can attach to a ride offer.
const (
	FeatureAirConditioning = "air_conditioning"
	FeatureAccessible      = "wheelchair_accessible"
	FeatureNoHighway       = "no_highway"
)

type Ride struct {
	ID                   types.ID  `json:"ride_id"`
	DriverID             types.ID  `json:"driver_id"`
	DriverName           string    `json:"driver_name"`
	DriverRating         *float64  `json:"driver_rating,omitempty"`
	PassengerID          *types.ID `json:"-"`
	Pickup               string    `json:"pickup_location"`
	Dropoff              string    `json:"dropoff_location"`
	DepartureTime        time.Time `json:"departure_time"`
	SeatsAvailable       int       `json:"seats_available"`
	Fare                 float64   `json:"fare"`
	Status               Status    `json:"status"`
	VehicleType          string    `json:"vehicle_type,omitempty"`
	Features             []string  `json:"features,omitempty"`
	EstimatedDistanceKm  *float64  `json:"estimated_distance_km,omitempty"`
	EstimatedDurationMin *float64  `json:"estimated_duration_min,omitempty"`
}

func (r Ride) HasFeature(name string) bool {
	for _, f := range r.Features {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// SearchQuery is the structural filter behind candidate retrieval.
type SearchQuery struct {
	PassengerID   types.ID
	Pickup        string
	Dropoff       string
	DepartureTime time.Time
	MaxPrice      *float64
	Window        time.Duration
	Limit         int
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          types.ID      `json:"booking_id"`
	RideID      types.ID      `json:"ride_id"`
	PassengerID types.ID      `json:"passenger_id"`
	DriverID    types.ID      `json:"driver_id"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
