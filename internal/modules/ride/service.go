// README: Ride service: candidate retrieval plus book/confirm/cancel flows.
package ride

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"unirides/internal/modules/user"
	"unirides/internal/types"
)

var (
	ErrNotFound      = errors.New("ride or booking not found")
	ErrNoSeats       = errors.New("no seats available")
	ErrAlreadyBooked = errors.New("ride already booked by passenger")
	ErrOwnRide       = errors.New("cannot book own ride")
	ErrNotAuthorized = errors.New("not authorized for booking")
	ErrInvalidState  = errors.New("invalid booking state")
	ErrBadRequest    = errors.New("bad request")
)

type Service struct {
	store *Store
	log   *slog.Logger
}

func NewService(store *Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// OpenRides implements candidate retrieval for the matching engine.
func (s *Service) OpenRides(ctx context.Context, q SearchQuery) ([]Ride, error) {
	if strings.TrimSpace(q.Pickup) == "" || strings.TrimSpace(q.Dropoff) == "" || q.Limit <= 0 {
		return nil, ErrBadRequest
	}
	return s.store.OpenRides(ctx, q)
}

func (s *Service) Book(ctx context.Context, passengerID, rideID types.ID) (Booking, error) {
	if passengerID == "" || rideID == "" {
		return Booking{}, ErrBadRequest
	}
	b := Booking{
		ID:          newID(),
		RideID:      rideID,
		PassengerID: passengerID,
		Status:      BookingPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.BookSeat(ctx, &b); err != nil {
		return Booking{}, err
	}
	s.log.InfoContext(ctx, "ride booked",
		"booking_id", b.ID, "ride_id", b.RideID, "passenger_id", b.PassengerID)
	return b, nil
}

func (s *Service) Confirm(ctx context.Context, bookingID, driverID types.ID) (Booking, error) {
	if bookingID == "" || driverID == "" {
		return Booking{}, ErrBadRequest
	}
	b, err := s.store.ConfirmBooking(ctx, bookingID, driverID)
	if err != nil {
		return Booking{}, err
	}
	s.log.InfoContext(ctx, "booking confirmed", "booking_id", b.ID, "driver_id", driverID)
	return b, nil
}

// Cancel lets either party of a booking cancel it.
func (s *Service) Cancel(ctx context.Context, bookingID types.ID, actor user.Ref) (Booking, error) {
	if bookingID == "" || actor.ID == "" {
		return Booking{}, ErrBadRequest
	}
	b, err := s.store.CancelBooking(ctx, bookingID, func(b Booking) bool {
		return CanCancel(b, actor)
	})
	if err != nil {
		return Booking{}, err
	}
	s.log.InfoContext(ctx, "booking cancelled",
		"booking_id", b.ID, "actor_id", actor.ID, "actor_kind", actor.Kind)
	return b, nil
}

// CanCancel reports whether actor is the passenger or the driver of b.
func CanCancel(b Booking, actor user.Ref) bool {
	switch actor.Kind {
	case user.KindPassenger:
		return b.PassengerID == actor.ID
	case user.KindDriver:
		return b.DriverID == actor.ID
	default:
		return false
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
