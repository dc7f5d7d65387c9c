// README: Bench cases: environment, schema, public routes, auth, seat contention and search load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	departure := time.Now().Add(30 * time.Minute).UTC()
	search := map[string]any{
		"pickup_location":  "London",
		"dropoff_location": "Manchester",
		"departure_time":   departure.Format(time.RFC3339),
		"max_price":        25,
	}

	return []TestCase{
		{Name: "Env: Postgres connect", Run: pingDB},
		{Name: "Env: Redis connect", Run: pingRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables present", Run: tablesPresent},
		httpCase("HTTP: health", http.MethodGet, base+"/health", nil, false, http.StatusOK),
		httpCase("HTTP: metrics", http.MethodGet, base+"/metrics", nil, false, http.StatusOK),
		httpCase("Auth: search without token", http.MethodPost, base+"/api/rides/search/advanced", search, false, http.StatusUnauthorized),
		httpCase("Search: advanced", http.MethodPost, base+"/api/rides/search/advanced", search, true, http.StatusOK),
		httpCase("Search: missing fields", http.MethodPost, base+"/api/rides/search/advanced", map[string]any{"pickup_location": "London"}, true, http.StatusBadRequest),
		httpCase("Points: balance", http.MethodGet, base+"/api/users/me/points", nil, true, http.StatusOK),
		{
			Name: "Booking: concurrent last seat",
			Run: func(ctx context.Context, r *Runner) Result {
				return lastSeat(ctx, r, departure)
			},
		},
		{
			Name: "Perf: advanced search load",
			Run: func(ctx context.Context, r *Runner) Result {
				return searchLoad(ctx, r, base+"/api/rides/search/advanced", search)
			},
		},
	}
}

func pingDB(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func pingRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusFail, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	// Without arguments pgx uses the simple protocol, which accepts a whole script.
	if _, err := r.db.Exec(ctx, string(sql)); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

var createTableRe = regexp.MustCompile(`(?i)CREATE TABLE IF NOT EXISTS\s+(\w+)`)

func tablesPresent(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	var missing []string
	for _, m := range createTableRe.FindAllStringSubmatch(string(sql), -1) {
		var ok bool
		if err := r.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, m[1]).Scan(&ok); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !ok {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		return Result{Status: statusFail, Note: "missing " + strings.Join(missing, ",")}
	}
	return Result{Status: statusPass}
}

func (r *Runner) do(ctx context.Context, method, url string, body any, auth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	return r.httpc.Do(req)
}

func httpCase(name, method, url string, body any, auth bool, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			if auth && r.cfg.Token == "" {
				return Result{Status: statusSkip, Note: "no token"}
			}
			start := time.Now()
			resp, err := r.do(ctx, method, url, body, auth)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			status := statusFail
			if resp.StatusCode == want {
				status = statusPass
			}
			return Result{Status: status, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

// lastSeat seeds a one-seat ride and books it from many workers at once.
// At most one booking may succeed.
func lastSeat(ctx context.Context, r *Runner, departure time.Time) Result {
	if r.cfg.Token == "" {
		return Result{Status: statusSkip, Note: "no token"}
	}
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	driverID := "bench" + compactID()[:20]
	rideID := compactID()
	if _, err := r.db.Exec(ctx, `INSERT INTO driver (driver_id, name, gender) VALUES ($1, 'Bench Driver', 'female')`, driverID); err != nil {
		return Result{Status: statusFail, Note: "seed driver: " + err.Error()}
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO ride (ride_id, driver_id, pickup_location, dropoff_location, departure_time, seats_available, fare, status)
		VALUES ($1, $2, 'London', 'Manchester', $3, 1, 12, 'requested')`, rideID, driverID, departure); err != nil {
		return Result{Status: statusFail, Note: "seed ride: " + err.Error()}
	}

	var created, conflicts atomic.Int64
	var g errgroup.Group
	for i := 0; i < r.cfg.Concurrency; i++ {
		g.Go(func() error {
			resp, err := r.do(ctx, http.MethodPost, r.cfg.BaseURL+"/api/rides/"+rideID+"/book", nil, true)
			if err != nil {
				return err
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}

	note := fmt.Sprintf("created=%d conflicts=%d", created.Load(), conflicts.Load())
	if created.Load() != 1 {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Note: note}
}

func searchLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	if r.cfg.Token == "" {
		return Result{Status: statusSkip, Note: "no token"}
	}
	end := time.Now().Add(r.cfg.Duration)
	var (
		mu        sync.Mutex
		latencies []time.Duration
		errCount  atomic.Int64
		g         errgroup.Group
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		g.Go(func() error {
			for time.Now().Before(end) && ctx.Err() == nil {
				start := time.Now()
				resp, err := r.do(ctx, http.MethodPost, url, payload, true)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errCount.Add(1)
					continue
				}
				mu.Lock()
				latencies = append(latencies, time.Since(start))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(latencies) == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	rps := float64(len(latencies)) / r.cfg.Duration.Seconds()
	return Result{
		Status:  statusPass,
		Latency: total / time.Duration(len(latencies)),
		Note:    fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load()),
	}
}

func compactID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
