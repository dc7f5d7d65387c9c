// README: Ride store backed by PostgreSQL (candidate search and booking transactions).
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unirides/internal/types"
)

type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: time.Now}
}

// openRidesQuery selects bookable rides. Every structural filter is ANDed; the two
// location-overlap alternatives are grouped so they never widen the status/seat/time scope.
const openRidesQuery = `
	SELECT r.ride_id, r.driver_id, COALESCE(d.name, ''), d.rating, r.passenger_id,
	       r.pickup_location, r.dropoff_location, r.departure_time, r.seats_available,
	       r.fare::double precision, r.status, COALESCE(r.vehicle_type, ''), r.features,
	       r.estimated_distance_km, r.estimated_duration_min
	FROM ride r
	LEFT JOIN driver d ON d.driver_id = r.driver_id
	WHERE r.status IN ('requested', 'accepted')
	  AND r.seats_available > 0
	  AND (r.passenger_id IS NULL OR r.passenger_id <> $1)
	  AND NOT EXISTS (
	      SELECT 1 FROM booking b
	      WHERE b.ride_id = r.ride_id AND b.passenger_id = $1 AND b.booking_status <> 'cancelled'
	  )
	  AND r.departure_time >= $2
	  AND r.departure_time <= $3
	  AND (
	      (r.pickup_location <> '' AND (strpos(lower(r.pickup_location), lower($4)) > 0
	                                OR strpos(lower($4), lower(r.pickup_location)) > 0))
	   OR (r.dropoff_location <> '' AND (strpos(lower(r.dropoff_location), lower($5)) > 0
	                                 OR strpos(lower($5), lower(r.dropoff_location)) > 0))
	  )
	  AND ($6::numeric IS NULL OR r.fare <= $6::numeric)
	ORDER BY
	  abs(extract(epoch FROM (r.departure_time - $7::timestamptz))) ASC,
	  CASE
	    WHEN lower(r.pickup_location) = lower($4) AND lower(r.dropoff_location) = lower($5) THEN 0
	    WHEN lower(r.pickup_location) = lower($4) THEN 1
	    WHEN lower(r.dropoff_location) = lower($5) THEN 2
	    ELSE 3
	  END ASC,
	  r.departure_time ASC
	LIMIT $8`

// OpenRides returns structurally bookable rides for a search, best candidates first.
func (s *Store) OpenRides(ctx context.Context, q SearchQuery) ([]Ride, error) {
	rows, err := s.db.Query(ctx, openRidesQuery,
		string(q.PassengerID),
		s.now(),
		q.DepartureTime.Add(q.Window),
		q.Pickup,
		q.Dropoff,
		q.MaxPrice,
		q.DepartureTime,
		q.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		var r Ride
		var passengerID *string
		if err := rows.Scan(
			&r.ID, &r.DriverID, &r.DriverName, &r.DriverRating, &passengerID,
			&r.Pickup, &r.Dropoff, &r.DepartureTime, &r.SeatsAvailable,
			&r.Fare, &r.Status, &r.VehicleType, &r.Features,
			&r.EstimatedDistanceKm, &r.EstimatedDurationMin,
		); err != nil {
			return nil, err
		}
		if passengerID != nil {
			id := types.ID(*passengerID)
			r.PassengerID = &id
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BookSeat inserts a pending booking and takes one seat in a single transaction.
func (s *Store) BookSeat(ctx context.Context, b *Booking) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var (
			driverID    string
			passengerID *string
			seats       int
			status      Status
		)
		err := tx.QueryRow(ctx, `
			SELECT driver_id, passenger_id, seats_available, status
			FROM ride WHERE ride_id = $1
			FOR UPDATE`, string(b.RideID),
		).Scan(&driverID, &passengerID, &seats, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !status.Open() {
			return ErrInvalidState
		}
		if passengerID != nil && *passengerID == string(b.PassengerID) {
			return ErrOwnRide
		}
		if seats <= 0 {
			return ErrNoSeats
		}

		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM booking
				WHERE ride_id = $1 AND passenger_id = $2 AND booking_status <> 'cancelled'
			)`, string(b.RideID), string(b.PassengerID),
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrAlreadyBooked
		}

		b.DriverID = types.ID(driverID)
		if _, err := tx.Exec(ctx, `
			INSERT INTO booking (booking_id, passenger_id, driver_id, ride_id, booking_status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			string(b.ID), string(b.PassengerID), driverID, string(b.RideID), string(b.Status), b.CreatedAt,
		); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE ride SET seats_available = seats_available - 1 WHERE ride_id = $1`, string(b.RideID))
		return err
	})
}

// lockBooking reads a booking row under FOR UPDATE inside tx.
func lockBooking(ctx context.Context, tx pgx.Tx, id types.ID) (Booking, error) {
	var b Booking
	err := tx.QueryRow(ctx, `
		SELECT booking_id, ride_id, passenger_id, driver_id, booking_status, created_at
		FROM booking WHERE booking_id = $1
		FOR UPDATE`, string(id),
	).Scan(&b.ID, &b.RideID, &b.PassengerID, &b.DriverID, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

// ConfirmBooking marks a pending booking confirmed; a requested ride becomes accepted.
func (s *Store) ConfirmBooking(ctx context.Context, id, driverID types.ID) (Booking, error) {
	var out Booking
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if b.DriverID != driverID {
			return ErrNotAuthorized
		}
		if b.Status != BookingPending {
			return ErrInvalidState
		}
		if _, err := tx.Exec(ctx, `UPDATE booking SET booking_status = $1 WHERE booking_id = $2`,
			string(BookingConfirmed), string(id)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE ride SET status = $1 WHERE ride_id = $2 AND status = $3`,
			string(StatusAccepted), string(b.RideID), string(StatusRequested)); err != nil {
			return err
		}
		b.Status = BookingConfirmed
		out = b
		return nil
	})
	return out, err
}

// CancelBooking cancels a live booking and returns its seat to the ride.
// allowed decides whether the caller may cancel the locked booking.
func (s *Store) CancelBooking(ctx context.Context, id types.ID, allowed func(Booking) bool) (Booking, error) {
	var out Booking
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if !allowed(b) {
			return ErrNotAuthorized
		}
		if b.Status == BookingCancelled {
			return ErrInvalidState
		}
		if _, err := tx.Exec(ctx, `UPDATE booking SET booking_status = $1 WHERE booking_id = $2`,
			string(BookingCancelled), string(id)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE ride SET seats_available = seats_available + 1 WHERE ride_id = $1`,
			string(b.RideID)); err != nil {
			return err
		}
		b.Status = BookingCancelled
		out = b
		return nil
	})
	return out, err
}
