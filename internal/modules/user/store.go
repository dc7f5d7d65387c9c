// README: Profile lookup over the passenger/driver/admin tables.
package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Each kind has its own fixed statement; user input only ever reaches the bind parameter.
var profileQueries = map[Kind]string{
	KindPassenger: `
		SELECT name, COALESCE(gender, ''), NULL::double precision, suspended
		FROM passenger WHERE passenger_id = $1`,
	KindDriver: `
		SELECT name, COALESCE(gender, ''), rating, suspended
		FROM driver WHERE driver_id = $1`,
	KindAdmin: `
		SELECT name, '', NULL::double precision, FALSE
		FROM admin WHERE admin_id = $1`,
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Profile resolves any user reference to its profile.
func (s *Store) Profile(ctx context.Context, ref Ref) (Profile, error) {
	query, ok := profileQueries[ref.Kind]
	if !ok {
		return Profile{}, ErrUnknownKind
	}
	p := Profile{Ref: ref}
	err := s.db.QueryRow(ctx, query, string(ref.ID)).Scan(&p.Name, &p.Gender, &p.Rating, &p.Suspended)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}
