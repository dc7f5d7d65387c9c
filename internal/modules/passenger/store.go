// README: Passenger signal store backed by PostgreSQL.
package passenger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"unirides/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// RideHistory returns the passenger's most recent bookings with their own rating.
func (s *Store) RideHistory(ctx context.Context, passengerID types.ID, limit int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.ride_id, b.driver_id, r.pickup_location, r.dropoff_location, r.departure_time, rv.rating
		FROM booking b
		JOIN ride r ON r.ride_id = b.ride_id
		LEFT JOIN LATERAL (
		    SELECT rating FROM review
		    WHERE review.ride_id = b.ride_id AND review.passenger_id = b.passenger_id
		    ORDER BY created_at DESC
		    LIMIT 1
		) rv ON TRUE
		WHERE b.passenger_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2`, string(passengerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.RideID, &h.DriverID, &h.Pickup, &h.Dropoff, &h.DepartureTime, &h.Rating); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// FavoriteRoutes groups saved routes by pickup/dropoff pair, most used first.
func (s *Store) FavoriteRoutes(ctx context.Context, passengerID types.ID, limit int) ([]FavoriteRoute, error) {
	rows, err := s.db.Query(ctx, `
		SELECT pickup_location, dropoff_location, COUNT(*)::int AS frequency
		FROM favorite_route
		WHERE passenger_id = $1
		GROUP BY pickup_location, dropoff_location
		ORDER BY frequency DESC, MAX(created_at) DESC
		LIMIT $2`, string(passengerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FavoriteRoute
	for rows.Next() {
		var f FavoriteRoute
		if err := rows.Scan(&f.Pickup, &f.Dropoff, &f.Frequency); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// PreferredDrivers lists drivers this passenger rates at least PreferredRatingFloor on average.
func (s *Store) PreferredDrivers(ctx context.Context, passengerID types.ID) ([]PreferredDriver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT driver_id, AVG(rating)::double precision AS avg_rating, COUNT(*)::int
		FROM review
		WHERE passenger_id = $1
		GROUP BY driver_id
		HAVING AVG(rating) >= $2
		ORDER BY avg_rating DESC, COUNT(*) DESC`, string(passengerID), PreferredRatingFloor,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PreferredDriver
	for rows.Next() {
		var p PreferredDriver
		if err := rows.Scan(&p.DriverID, &p.AverageRating, &p.Reviews); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
