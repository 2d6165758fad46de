// README: Smoke-check cases; HTTP booking flow, DB, Redis, and a health load check.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
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
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
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

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "no DSN"}
				}
				start := time.Now()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "no redis addr"}
				}
				start := time.Now()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		{
			Name: "HTTP: health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				status, _, err := r.get(ctx, base+"/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", status)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		{
			Name: "HTTP: create and fetch booking",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				payload := map[string]any{
					"client_id":      fmt.Sprintf("bench-%d", time.Now().UnixNano()),
					"service_type":   "regular",
					"duration_hours": 2,
					"date":           time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
					"start_min":      10 * 60,
					"timezone":       "Europe/London",
					"postcode":       "SW1A 2AA",
				}
				status, body, err := r.post(ctx, base+"/api/bookings", payload)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusCreated {
					return Result{Status: "FAIL", Note: fmt.Sprintf("create status %d", status)}
				}
				id, _ := body["booking_id"].(string)
				if id == "" {
					return Result{Status: "FAIL", Note: "no booking_id"}
				}
				status, body, err = r.get(ctx, base+"/api/bookings/"+id)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK || body["status"] != "pending" {
					return Result{Status: "FAIL", Note: fmt.Sprintf("get status %d body %v", status, body["status"])}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		{
			Name: "HTTP: sweep trigger",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				status, body, err := r.post(ctx, base+"/internal/sweep", nil)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", status)}
				}
				note := fmt.Sprintf("attempted=%v assigned=%v skipped=%v",
					body["attempted"], body["assigned"], body["skipped"])
				return Result{Status: "PASS", Latency: time.Since(start), Note: note}
			},
		},
		{
			Name: "Load: concurrent health checks",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				var wg sync.WaitGroup
				errs := make(chan error, r.cfg.Concurrency)
				for i := 0; i < r.cfg.Concurrency; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						status, _, err := r.get(ctx, base+"/health")
						if err == nil && status != http.StatusOK {
							err = fmt.Errorf("status %d", status)
						}
						errs <- err
					}()
				}
				wg.Wait()
				close(errs)
				for err := range errs {
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
	}
}

func (r *Runner) get(ctx context.Context, url string) (int, map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	return r.do(req)
}

func (r *Runner) post(ctx context.Context, url string, payload any) (int, map[string]any, error) {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r *Runner) do(req *http.Request) (int, map[string]any, error) {
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body, nil
}
