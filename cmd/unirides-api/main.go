// README: Entry point; loads config, wires stores, providers and services, serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"unirides/internal/config"
	"unirides/internal/geo"
	httptransport "unirides/internal/http"
	"unirides/internal/infra"
	"unirides/internal/logging"
	"unirides/internal/modules/matching"
	"unirides/internal/modules/passenger"
	"unirides/internal/modules/points"
	"unirides/internal/modules/ride"
	"unirides/internal/modules/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("unirides-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Firebase.ProjectID == "" {
		return errors.New("UNIRIDES_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return fmt.Errorf("firebase init: %w", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	weights, unknown := matching.DefaultWeights().Apply(cfg.Matching.WeightOverrides)
	if len(unknown) > 0 {
		log.Warn("ignoring unknown weight overrides", "keys", unknown)
	}

	geocoder, weather, distance, err := providers(cfg, redisClient, log)
	if err != nil {
		return err
	}

	rideSvc := ride.NewService(ride.NewStore(dbPool), log)
	pointsSvc := points.NewService(points.NewStore(dbPool), log)

	matchingSvc := matching.NewService(matching.Deps{
		Rides:    rideSvc,
		History:  passenger.NewStore(dbPool),
		Profiles: user.NewStore(dbPool),
		Points:   pointsSvc,
		Geocoder: geocoder,
		Weather:  weather,
		Distance: distance,
	}, cfg.Matching, weights, log)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier: verifier,
		Matcher:  matchingSvc,
		Bookings: rideSvc,
		Points:   pointsSvc,
		Log:      log,
	})
	server := httptransport.NewServer(cfg.HTTP.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// providers picks Google Maps backed geocoding and routing when an API key is
// configured and the offline tables otherwise. Weather is always offline.
func providers(cfg config.Config, rdb *redis.Client, log *slog.Logger) (geo.Geocoder, geo.WeatherProvider, geo.DistanceProvider, error) {
	var (
		geocoder geo.Geocoder         = geo.StaticGeocoder{}
		distance geo.DistanceProvider = geo.HaversineDistance{AverageSpeedKmh: cfg.Matching.AverageSpeedKmh}
	)
	if cfg.Maps.APIKey != "" {
		client, err := geo.NewMapsClient(cfg.Maps.APIKey)
		if err != nil {
			return nil, nil, nil, err
		}
		geocoder = geo.NewMapsGeocoder(client, "uk")
		distance = geo.NewMapsDistance(client)
		log.Info("using google maps providers")
	}
	geocoder = geo.NewCachedGeocoder(geocoder, rdb, cfg.Matching.GeoCacheTTL)
	weather := geo.NewCachedWeather(geo.StaticWeather{}, rdb, cfg.Matching.WeatherCacheTTL)
	return geocoder, weather, distance, nil
}
