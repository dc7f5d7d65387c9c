// README: Points store backed by PostgreSQL.
package points

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unirides/internal/modules/user"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Balance(ctx context.Context, ref user.Ref) (int, error) {
	var pts int
	err := s.db.QueryRow(ctx, `
		SELECT points FROM user_points WHERE user_id = $1 AND user_type = $2`,
		string(ref.ID), string(ref.Kind),
	).Scan(&pts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return pts, err
}

func (s *Store) History(ctx context.Context, ref user.Ref, limit int) ([]Activity, error) {
	rows, err := s.db.Query(ctx, `
		SELECT points, activity_type, related_entity_id, COALESCE(description, ''), created_at
		FROM points_activity
		WHERE user_id = $1 AND user_type = $2
		ORDER BY created_at DESC
		LIMIT $3`, string(ref.ID), string(ref.Kind), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.Points, &a.ActivityType, &a.RelatedEntityID, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
