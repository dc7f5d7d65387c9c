package matching

import (
	"context"
	"testing"
	"time"

	"unirides/internal/config"
	"unirides/internal/geo"
	"unirides/internal/logging"
	"unirides/internal/modules/passenger"
	"unirides/internal/modules/points"
	"unirides/internal/modules/ride"
	"unirides/internal/modules/user"
	"unirides/internal/testutil"
)

func TestFindAdvancedMatches_AgainstPostgres(t *testing.T) {
	db := testutil.Postgres(t)
	ctx := context.Background()
	at := time.Now().Add(time.Hour).Truncate(time.Minute).UTC()

	testutil.MustExec(t, db, `INSERT INTO passenger (passenger_id, name) VALUES ('p1', 'Pat')`)
	testutil.MustExec(t, db, `INSERT INTO driver (driver_id, name, gender, rating) VALUES
		('d1', 'Dana', 'female', 4.9), ('d2', 'Sam', 'male', 3.1)`)
	testutil.MustExec(t, db, `
		INSERT INTO ride (ride_id, driver_id, pickup_location, dropoff_location, departure_time, seats_available, fare, status, vehicle_type, features)
		VALUES
		('near', 'd2', 'London', 'Manchester', $1, 2, 18, 'requested', 'car', '{}'),
		('best', 'd1', 'London', 'Manchester', $2, 1, 11, 'requested', 'sedan', '{wheelchair_accessible}'),
		('full', 'd1', 'London', 'Manchester', $1, 0, 5, 'requested', 'car', '{wheelchair_accessible}')`,
		at.Add(2*time.Minute), at.Add(12*time.Minute))
	testutil.MustExec(t, db, `INSERT INTO user_points (user_id, user_type, points) VALUES ('p1', 'passenger', 40)`)

	log := logging.Discard()
	svc := NewService(Deps{
		Rides:    ride.NewService(ride.NewStore(db), log),
		History:  passenger.NewStore(db),
		Profiles: user.NewStore(db),
		Points:   points.NewService(points.NewStore(db), log),
		Geocoder: geo.StaticGeocoder{},
		Weather:  geo.StaticWeather{},
		Distance: geo.HaversineDistance{AverageSpeedKmh: 50},
	}, config.DefaultMatching(), DefaultWeights(), log)

	c := SearchCriteria{PassengerID: "p1", Pickup: "London", Dropoff: "Manchester", DepartureTime: at, MaxPrice: f64(20)}
	out, err := svc.FindAdvancedMatches(ctx, c, &Preferences{MinDriverRating: f64(4), PreferFemaleDriver: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.PointsBalance != 40 {
		t.Errorf("points = %d, want 40", out.PointsBalance)
	}
	if got := ids(out.Matches); len(got) != 2 || got[0] != "best" || got[1] != "near" {
		t.Fatalf("unexpected ranking %v", got)
	}
	if !hasFactor(out.Matches[0], FactorFemaleDriver) || !hasFactor(out.Matches[0], FactorHighRatedDriver) {
		t.Errorf("factors = %v", out.Matches[0].MatchFactors)
	}

	out, err = svc.FindAdvancedMatches(ctx, c, &Preferences{NeedsAccessibility: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(out.Matches); len(got) != 1 || got[0] != "best" {
		t.Fatalf("accessibility should leave only the accessible ride, got %v", got)
	}
}
