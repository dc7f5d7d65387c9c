// README: Points service; balance lookups never fail the caller.
package points

import (
	"context"
	"log/slog"

	"unirides/internal/modules/user"
)

const defaultHistoryLimit = 50

type ledger interface {
	Balance(ctx context.Context, ref user.Ref) (int, error)
	History(ctx context.Context, ref user.Ref, limit int) ([]Activity, error)
}

type Service struct {
	store ledger
	log   *slog.Logger
}

func NewService(store *Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func hasLedger(k user.Kind) bool {
	return k == user.KindPassenger || k == user.KindDriver
}

// Balance returns the user's point total, or 0 when it cannot be read.
func (s *Service) Balance(ctx context.Context, ref user.Ref) int {
	if !hasLedger(ref.Kind) {
		return 0
	}
	pts, err := s.store.Balance(ctx, ref)
	if err != nil {
		s.log.WarnContext(ctx, "points balance unavailable", "user_id", ref.ID, "user_kind", ref.Kind, "error", err)
		return 0
	}
	return pts
}

func (s *Service) History(ctx context.Context, ref user.Ref, limit int) ([]Activity, error) {
	if !hasLedger(ref.Kind) {
		return nil, ErrNoLedger
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.store.History(ctx, ref, limit)
}
