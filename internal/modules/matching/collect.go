// README: Concurrent, failure-isolated signal collection.
package matching

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"unirides/internal/geo"
	"unirides/internal/modules/passenger"
	"unirides/internal/modules/user"
	"unirides/internal/types"
)

const (
	collectorHistory   = "ride_history"
	collectorFavorites = "favorite_routes"
	collectorPreferred = "preferred_drivers"
	collectorGeoPickup = "geocode_pickup"
	collectorGeoDrop   = "geocode_dropoff"
	collectorWeather   = "weather"
	collectorDistance  = "distance"
	collectorPoints    = "points"
)

// gather runs fn with its own deadline. A call that outlives the deadline is
// abandoned; none of the collectors write, so nothing needs undoing.
func gather[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(cctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return zero, r.err
		}
		return r.v, nil
	case <-cctx.Done():
		return zero, cctx.Err()
	}
}

func (s *Service) absorb(ctx context.Context, collector string, passengerID types.ID, err error) {
	signalFailures.WithLabelValues(collector).Inc()
	s.log.WarnContext(ctx, "signal unavailable",
		"collector", collector,
		"passenger_id", passengerID,
		"error", fmt.Errorf("%w: %v", ErrSignalUnavailable, err),
	)
}

// collect fans out every enabled collector, then derives the route once both
// endpoints are known. It never fails; missing signals stay zero-valued.
func (s *Service) collect(ctx context.Context, c SearchCriteria, prefs Preferences) Signals {
	var (
		sig     Signals
		g       errgroup.Group
		timeout = s.cfg.CollectorTimeout
		pid     = c.PassengerID
	)

	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				s.absorb(ctx, name, pid, err)
			}
			return nil
		})
	}

	if s.history != nil {
		run(collectorHistory, func() (err error) {
			sig.History, err = gather(ctx, timeout, func(ctx context.Context) ([]passenger.HistoryEntry, error) {
				return s.history.RideHistory(ctx, pid, s.cfg.HistoryLimit)
			})
			return err
		})
		run(collectorFavorites, func() (err error) {
			sig.Favorites, err = gather(ctx, timeout, func(ctx context.Context) ([]passenger.FavoriteRoute, error) {
				return s.history.FavoriteRoutes(ctx, pid, s.cfg.FavoriteLimit)
			})
			return err
		})
		run(collectorPreferred, func() (err error) {
			sig.Preferred, err = gather(ctx, timeout, func(ctx context.Context) ([]passenger.PreferredDriver, error) {
				return s.history.PreferredDrivers(ctx, pid)
			})
			return err
		})
	}

	if s.geocoder != nil {
		run(collectorGeoPickup, func() (err error) {
			sig.PickupPoint, err = gather(ctx, timeout, func(ctx context.Context) (*types.Point, error) {
				return s.geocoder.Geocode(ctx, c.Pickup)
			})
			return err
		})
		run(collectorGeoDrop, func() (err error) {
			sig.DropoffPoint, err = gather(ctx, timeout, func(ctx context.Context) (*types.Point, error) {
				return s.geocoder.Geocode(ctx, c.Dropoff)
			})
			return err
		})
	}

	if s.weather != nil && !prefs.DisableWeather {
		run(collectorWeather, func() (err error) {
			sig.Weather, err = gather(ctx, timeout, func(ctx context.Context) (*geo.Weather, error) {
				return s.weather.Current(ctx, c.Pickup)
			})
			return err
		})
	}

	if s.points != nil {
		run(collectorPoints, func() (err error) {
			sig.Points, err = gather(ctx, timeout, func(ctx context.Context) (int, error) {
				return s.points.Balance(ctx, user.Ref{ID: pid, Kind: user.KindPassenger}), nil
			})
			return err
		})
	}

	_ = g.Wait()

	if s.distance != nil && sig.PickupPoint != nil && sig.DropoffPoint != nil {
		route, err := gather(ctx, timeout, func(ctx context.Context) (*geo.Route, error) {
			return s.distance.Distance(ctx, *sig.PickupPoint, *sig.DropoffPoint)
		})
		if err != nil {
			s.absorb(ctx, collectorDistance, pid, err)
		} else {
			sig.Route = route
		}
	}
	return sig
}
