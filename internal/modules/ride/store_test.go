// README: DB-backed tests for candidate retrieval and booking transactions.
package ride

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"unirides/internal/logging"
	"unirides/internal/modules/user"
	"unirides/internal/testutil"
	"unirides/internal/types"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	db := testutil.Postgres(t)
	testutil.MustExec(t, db, `INSERT INTO driver (driver_id, name, gender, rating) VALUES ('d1', 'Dana', 'female', 4.8), ('d2', 'Sam', 'male', 3.9)`)
	testutil.MustExec(t, db, `INSERT INTO passenger (passenger_id, name) VALUES ('p1', 'Pat'), ('p2', 'Alex')`)
	store := NewStore(db)
	store.now = func() time.Time { return testNow }
	return store, db
}

func seedRide(t *testing.T, db *pgxpool.Pool, id, driver, pickup, dropoff string, dep time.Time, seats int, fare float64, status Status) {
	t.Helper()
	testutil.MustExec(t, db, `
		INSERT INTO ride (ride_id, driver_id, pickup_location, dropoff_location, departure_time, seats_available, fare, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, driver, pickup, dropoff, dep, seats, fare, string(status))
}

func searchAt(dep time.Time) SearchQuery {
	return SearchQuery{
		PassengerID:   "p1",
		Pickup:        "London",
		Dropoff:       "Manchester",
		DepartureTime: dep,
		Window:        2 * time.Hour,
		Limit:         20,
	}
}

func ids(rides []Ride) []types.ID {
	out := make([]types.ID, len(rides))
	for i, r := range rides {
		out[i] = r.ID
	}
	return out
}

func TestOpenRidesStructuralFilters(t *testing.T) {
	store, db := setupTestStore(t)
	dep := testNow.Add(time.Hour)

	seedRide(t, db, "ok", "d1", "London Euston", "Manchester", dep.Add(5*time.Minute), 2, 20, StatusRequested)
	seedRide(t, db, "cancelled", "d1", "London", "Manchester", dep, 3, 20, StatusCancelled)
	seedRide(t, db, "completed", "d1", "London", "Manchester", dep, 3, 20, StatusCompleted)
	seedRide(t, db, "full", "d1", "London", "Manchester", dep, 0, 20, StatusAccepted)
	seedRide(t, db, "too_late", "d1", "London", "Manchester", dep.Add(3*time.Hour), 2, 20, StatusAccepted)
	seedRide(t, db, "past", "d1", "London", "Manchester", testNow.Add(-time.Minute), 2, 20, StatusAccepted)
	seedRide(t, db, "elsewhere", "d2", "Leeds", "York", dep, 2, 20, StatusAccepted)

	got, err := store.OpenRides(context.Background(), searchAt(dep))
	if err != nil {
		t.Fatalf("open rides: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected only [ok], got %v", ids(got))
	}
	if got[0].DriverName != "Dana" || got[0].DriverRating == nil || *got[0].DriverRating != 4.8 {
		t.Errorf("driver join not populated: %+v", got[0])
	}
}

func TestOpenRidesMaxPriceAndOwnBooking(t *testing.T) {
	store, db := setupTestStore(t)
	dep := testNow.Add(time.Hour)
	seedRide(t, db, "cheap", "d1", "London", "Manchester", dep, 2, 12, StatusAccepted)
	seedRide(t, db, "pricey", "d1", "London", "Manchester", dep, 2, 45, StatusAccepted)
	seedRide(t, db, "booked", "d2", "London", "Manchester", dep, 2, 10, StatusAccepted)
	testutil.MustExec(t, db, `INSERT INTO booking (booking_id, passenger_id, driver_id, ride_id, booking_status) VALUES ('b1', 'p1', 'd2', 'booked', 'pending')`)

	q := searchAt(dep)
	maxPrice := 20.0
	q.MaxPrice = &maxPrice
	got, err := store.OpenRides(context.Background(), q)
	if err != nil {
		t.Fatalf("open rides: %v", err)
	}
	if len(got) != 1 || got[0].ID != "cheap" {
		t.Fatalf("expected only [cheap], got %v", ids(got))
	}
}

func TestOpenRidesOrdering(t *testing.T) {
	store, db := setupTestStore(t)
	dep := testNow.Add(time.Hour)
	// Same departure time: exact match beats pickup-only beats dropoff-only beats substring.
	seedRide(t, db, "substring", "d1", "Central London", "Greater Manchester", dep, 2, 20, StatusAccepted)
	seedRide(t, db, "dropoff_only", "d1", "Heathrow", "manchester", dep, 2, 20, StatusAccepted)
	seedRide(t, db, "exact", "d1", "LONDON", "Manchester", dep, 2, 20, StatusAccepted)
	seedRide(t, db, "pickup_only", "d1", "London", "Salford", dep, 2, 20, StatusAccepted)
	// Closest in time wins over location precedence.
	seedRide(t, db, "later_exact", "d2", "London", "Manchester", dep.Add(40*time.Minute), 2, 20, StatusAccepted)

	got, err := store.OpenRides(context.Background(), searchAt(dep))
	if err != nil {
		t.Fatalf("open rides: %v", err)
	}
	want := []types.ID{"exact", "pickup_only", "dropoff_only", "substring", "later_exact"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, ids(got), want)
		}
	}
}

func TestOpenRidesLimit(t *testing.T) {
	store, db := setupTestStore(t)
	dep := testNow.Add(time.Hour)
	for i := 0; i < 25; i++ {
		seedRide(t, db, "r"+string(rune('a'+i)), "d1", "London", "Manchester", dep.Add(time.Duration(i)*time.Minute), 1, 20, StatusAccepted)
	}
	got, err := store.OpenRides(context.Background(), searchAt(dep))
	if err != nil {
		t.Fatalf("open rides: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected limit 20, got %d", len(got))
	}
}

func TestBookConfirmCancelFlow(t *testing.T) {
	store, db := setupTestStore(t)
	seedRide(t, db, "r1", "d1", "London", "Manchester", testNow.Add(time.Hour), 1, 20, StatusRequested)
	svc := NewService(store, logging.Discard())
	ctx := context.Background()

	b, err := svc.Book(ctx, "p1", "r1")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if b.DriverID != "d1" || b.Status != BookingPending {
		t.Fatalf("unexpected booking %+v", b)
	}
	assertSeats(t, db, "r1", 0)

	if _, err := svc.Book(ctx, "p2", "r1"); err != ErrNoSeats {
		t.Fatalf("expected ErrNoSeats, got %v", err)
	}
	if _, err := svc.Confirm(ctx, b.ID, "d2"); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized for wrong driver, got %v", err)
	}
	if _, err := svc.Confirm(ctx, b.ID, "d1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	var status string
	if err := db.QueryRow(ctx, `SELECT status FROM ride WHERE ride_id = 'r1'`).Scan(&status); err != nil {
		t.Fatalf("query: %v", err)
	}
	if status != string(StatusAccepted) {
		t.Fatalf("ride status = %s, want accepted", status)
	}

	if _, err := svc.Cancel(ctx, b.ID, user.Ref{ID: "p2", Kind: user.KindPassenger}); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized for other passenger, got %v", err)
	}
	if _, err := svc.Cancel(ctx, b.ID, user.Ref{ID: "p1", Kind: user.KindPassenger}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertSeats(t, db, "r1", 1)
	if _, err := svc.Cancel(ctx, b.ID, user.Ref{ID: "d1", Kind: user.KindDriver}); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState on double cancel, got %v", err)
	}
}

func TestBookDuplicateAndMissing(t *testing.T) {
	store, db := setupTestStore(t)
	seedRide(t, db, "r1", "d1", "London", "Manchester", testNow.Add(time.Hour), 3, 20, StatusAccepted)
	svc := NewService(store, logging.Discard())
	ctx := context.Background()

	if _, err := svc.Book(ctx, "p1", "r1"); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.Book(ctx, "p1", "r1"); err != ErrAlreadyBooked {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}
	if _, err := svc.Book(ctx, "p1", "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestBookConcurrentLastSeat runs with -race: exactly one passenger gets the last seat.
func TestBookConcurrentLastSeat(t *testing.T) {
	store, db := setupTestStore(t)
	seedRide(t, db, "r1", "d1", "London", "Manchester", testNow.Add(time.Hour), 1, 20, StatusAccepted)
	svc := NewService(store, logging.Discard())
	ctx := context.Background()

	passengers := []types.ID{"p1", "p2"}
	errs := make(chan error, len(passengers))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, p := range passengers {
		wg.Add(1)
		go func(pid types.ID) {
			defer wg.Done()
			<-start
			_, err := svc.Book(ctx, pid, "r1")
			errs <- err
		}(p)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrNoSeats {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 booking, got %d", success)
	}
	assertSeats(t, db, "r1", 0)
}

func assertSeats(t *testing.T, db *pgxpool.Pool, rideID string, want int) {
	t.Helper()
	var seats int
	if err := db.QueryRow(context.Background(), `SELECT seats_available FROM ride WHERE ride_id = $1`, rideID).Scan(&seats); err != nil {
		t.Fatalf("query seats: %v", err)
	}
	if seats != want {
		t.Fatalf("seats_available = %d, want %d", seats, want)
	}
}
