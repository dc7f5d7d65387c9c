// README: Match engine: retrieval, signal fan-out, concurrent scoring, ranking.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"unirides/internal/config"
	"unirides/internal/geo"
	"unirides/internal/modules/passenger"
	"unirides/internal/modules/ride"
	"unirides/internal/modules/user"
	"unirides/internal/types"
)

var (
	ErrInvalidCriteria   = errors.New("invalid search criteria")
	ErrRetrieval         = errors.New("candidate retrieval failed")
	ErrSignalUnavailable = errors.New("signal unavailable")
	ErrScoring           = errors.New("scoring failed")
)

type RideSource interface {
	OpenRides(ctx context.Context, q ride.SearchQuery) ([]ride.Ride, error)
}

type HistorySource interface {
	RideHistory(ctx context.Context, passengerID types.ID, limit int) ([]passenger.HistoryEntry, error)
	FavoriteRoutes(ctx context.Context, passengerID types.ID, limit int) ([]passenger.FavoriteRoute, error)
	PreferredDrivers(ctx context.Context, passengerID types.ID) ([]passenger.PreferredDriver, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, ref user.Ref) (user.Profile, error)
}

type PointsSource interface {
	Balance(ctx context.Context, ref user.Ref) int
}

// Deps are the engine's collaborators. Only Rides is required; a nil signal
// source is treated as permanently unavailable.
type Deps struct {
	Rides    RideSource
	History  HistorySource
	Profiles ProfileSource
	Points   PointsSource
	Geocoder geo.Geocoder
	Weather  geo.WeatherProvider
	Distance geo.DistanceProvider
}

type Service struct {
	rides    RideSource
	history  HistorySource
	profiles ProfileSource
	points   PointsSource
	geocoder geo.Geocoder
	weather  geo.WeatherProvider
	distance geo.DistanceProvider
	cfg      config.MatchingConfig
	weights  Weights
	log      *slog.Logger

	score func(ride.Ride, SearchCriteria, Preferences, Signals, Weights, bool) Scored
}

func NewService(d Deps, cfg config.MatchingConfig, w Weights, log *slog.Logger) *Service {
	if cfg.ScoreWorkers <= 0 {
		cfg.ScoreWorkers = 1
	}
	if cfg.CollectorTimeout <= 0 {
		cfg.CollectorTimeout = config.DefaultMatching().CollectorTimeout
	}
	return &Service{
		rides:    d.Rides,
		history:  d.History,
		profiles: d.Profiles,
		points:   d.Points,
		geocoder: d.Geocoder,
		weather:  d.Weather,
		distance: d.Distance,
		cfg:      cfg,
		weights:  w,
		log:      log,
		score:    Score,
	}
}

func (s *Service) Weights() Weights {
	return s.weights
}

// FindAdvancedMatches returns ranked rides for a search. Only invalid criteria
// or a failed candidate retrieval produce an error; every other failure
// degrades the result instead.
func (s *Service) FindAdvancedMatches(ctx context.Context, c SearchCriteria, prefs *Preferences) (Outcome, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	var p Preferences
	if prefs != nil {
		p = *prefs
	}
	if c.PassengerID == "" || strings.TrimSpace(c.Pickup) == "" || strings.TrimSpace(c.Dropoff) == "" || c.DepartureTime.IsZero() {
		searchesTotal.WithLabelValues(outcomeInvalid).Inc()
		return Outcome{Message: NoMatchesMessage}, ErrInvalidCriteria
	}
	if c.MaxPrice != nil && *c.MaxPrice < 0 {
		searchesTotal.WithLabelValues(outcomeInvalid).Inc()
		return Outcome{Message: NoMatchesMessage}, ErrInvalidCriteria
	}

	candidates, err := s.rides.OpenRides(ctx, ride.SearchQuery{
		PassengerID:   c.PassengerID,
		Pickup:        c.Pickup,
		Dropoff:       c.Dropoff,
		DepartureTime: c.DepartureTime,
		MaxPrice:      c.MaxPrice,
		Window:        s.cfg.DepartureWindow,
		Limit:         s.cfg.CandidateLimit,
	})
	if err != nil {
		searchesTotal.WithLabelValues(outcomeRetrieval).Inc()
		s.log.ErrorContext(ctx, "candidate retrieval failed", "passenger_id", c.PassengerID, "error", err)
		return Outcome{Message: NoMatchesMessage}, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	sig := s.collect(ctx, c, p)
	out := Outcome{PointsBalance: sig.Points}

	if len(candidates) == 0 {
		searchesTotal.WithLabelValues(outcomeEmpty).Inc()
		out.Matches = []MatchResult{}
		out.Message = NoMatchesMessage
		return out, nil
	}

	scored, err := s.scoreAll(ctx, candidates, c, p, sig)
	if err != nil {
		searchesTotal.WithLabelValues(outcomeDegraded).Inc()
		s.log.ErrorContext(ctx, "scoring failed, returning unscored candidates",
			"passenger_id", c.PassengerID, "candidates", len(candidates), "error", err)
		out.Matches = unscored(candidates, p)
		out.Degraded = true
		if len(out.Matches) == 0 {
			out.Message = NoMatchesMessage
		}
		return out, nil
	}

	out.Matches = Rank(scored)
	if len(out.Matches) == 0 {
		searchesTotal.WithLabelValues(outcomeEmpty).Inc()
		out.Message = NoMatchesMessage
		return out, nil
	}
	searchesTotal.WithLabelValues(outcomeMatched).Inc()
	s.log.InfoContext(ctx, "advanced search matched",
		"passenger_id", c.PassengerID,
		"candidates", len(candidates),
		"matches", len(out.Matches),
		"top_score", out.Matches[0].MatchScore,
	)
	return out, nil
}

// scoreAll scores candidates on a bounded worker pool. Results keep retrieval order.
func (s *Service) scoreAll(ctx context.Context, candidates []ride.Ride, c SearchCriteria, p Preferences, sig Signals) ([]MatchResult, error) {
	results := make([]MatchResult, len(candidates))
	genders := newGenderLookup(s.profiles, s.cfg.CollectorTimeout, func(id types.ID, err error) {
		s.absorb(ctx, "driver_gender", c.PassengerID, fmt.Errorf("driver %s: %w", id, err))
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ScoreWorkers)
	for i, r := range candidates {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("%w: ride %s: %v", ErrScoring, r.ID, rec)
				}
			}()
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrScoring, err)
			}

			female := false
			if p.PreferFemaleDriver {
				female = genders.female(gctx, r.DriverID)
			}
			sc := s.score(r, c, p, sig, s.weights, female)
			candidatesScored.Inc()
			if sc.Disqualified {
				candidatesDisqualified.Inc()
			}
			results[i] = MatchResult{
				Ride:         r,
				MatchScore:   normalize(sc, s.weights),
				RawScore:     sc.Raw,
				MatchFactors: sc.Factors,
				WeatherInfo:  sig.Weather,
				DistanceInfo: sig.Route,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// unscored keeps retrieval order but still drops rides that fail a hard constraint.
func unscored(candidates []ride.Ride, p Preferences) []MatchResult {
	out := make([]MatchResult, 0, len(candidates))
	for _, r := range candidates {
		if !meetsHardConstraints(r, p) {
			continue
		}
		out = append(out, MatchResult{Ride: r, MatchFactors: []string{}})
	}
	return out
}

// genderLookup resolves driver gender at most once per driver within one search.
type genderLookup struct {
	profiles ProfileSource
	timeout  time.Duration
	onError  func(types.ID, error)

	group singleflight.Group
	mu    sync.Mutex
	seen  map[types.ID]bool
}

func newGenderLookup(profiles ProfileSource, timeout time.Duration, onError func(types.ID, error)) *genderLookup {
	return &genderLookup{profiles: profiles, timeout: timeout, onError: onError, seen: make(map[types.ID]bool)}
}

// female reports whether the driver's recorded gender is female. Lookup
// failures count as "not female" and are remembered for the rest of the search.
func (g *genderLookup) female(ctx context.Context, driverID types.ID) bool {
	if g.profiles == nil {
		return false
	}
	g.mu.Lock()
	v, ok := g.seen[driverID]
	g.mu.Unlock()
	if ok {
		return v
	}

	res, _, _ := g.group.Do(string(driverID), func() (any, error) {
		g.mu.Lock()
		v, ok := g.seen[driverID]
		g.mu.Unlock()
		if ok {
			return v, nil
		}
		prof, err := gather(ctx, g.timeout, func(ctx context.Context) (user.Profile, error) {
			return g.profiles.Profile(ctx, user.Ref{ID: driverID, Kind: user.KindDriver})
		})
		female := err == nil && prof.IsFemale()
		if err != nil {
			g.onError(driverID, err)
		}
		g.mu.Lock()
		g.seen[driverID] = female
		g.mu.Unlock()
		return female, nil
	})
	return res.(bool)
}
