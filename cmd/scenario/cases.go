// README: Scenario cases; end-to-end dispatch flows exercised over HTTP.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type Scenario struct {
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
	scenarios := r.scenarios()
	results := make([]Result, 0, len(scenarios))

	for _, sc := range scenarios {
		res := sc.Run(ctx, r)
		res.Name = sc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, sc.Name)
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

func (r *Runner) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func fail(note string) Result       { return Result{Status: "FAIL", Note: note} }
func failErr(err error) Result      { return fail(err.Error()) }
func pass() Result                  { return Result{Status: "PASS"} }
func passIn(d time.Duration) Result { return Result{Status: "PASS", Latency: d} }
func point(x, y int) map[string]int { return map[string]int{"x": x, "y": y} }

// reset wipes the world so scenarios do not leak into one another.
func (r *Runner) reset(ctx context.Context) error {
	code, err := r.do(ctx, http.MethodPost, "/api/simulation/reset", nil, nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("reset returned %d", code)
	}
	return nil
}

// tickUntil advances the simulation until check passes or the budget runs out.
func (r *Runner) tickUntil(ctx context.Context, check func() (bool, error)) (int, error) {
	for i := 1; i <= r.cfg.MaxTicks; i++ {
		if code, err := r.do(ctx, http.MethodPost, "/api/simulation/tick", nil, nil); err != nil || code != http.StatusOK {
			return i, fmt.Errorf("tick %d failed (code %d): %v", i, code, err)
		}
		ok, err := check()
		if err != nil {
			return i, err
		}
		if ok {
			return i, nil
		}
	}
	return r.cfg.MaxTicks, fmt.Errorf("condition not reached in %d ticks", r.cfg.MaxTicks)
}

func (r *Runner) rideStatus(ctx context.Context, rideID string) (string, error) {
	var state struct {
		RideRequests map[string]struct {
			Status string `json:"status"`
		} `json:"ride_requests"`
	}
	if _, err := r.do(ctx, http.MethodGet, "/api/simulation/state", nil, &state); err != nil {
		return "", err
	}
	ride, ok := state.RideRequests[rideID]
	if !ok {
		return "", fmt.Errorf("ride %s missing from state", rideID)
	}
	return ride.Status, nil
}

func (r *Runner) scenarios() []Scenario {
	return []Scenario{
		{
			Name: "Env: API health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				code, err := r.do(ctx, http.MethodGet, "/health", nil, nil)
				if err != nil {
					return failErr(err)
				}
				if code != http.StatusOK {
					return fail(fmt.Sprintf("health returned %d", code))
				}
				return passIn(time.Since(start))
			},
		},
		{
			Name: "Driver: create, query nearby, remove",
			Run: func(ctx context.Context, r *Runner) Result {
				if err := r.reset(ctx); err != nil {
					return failErr(err)
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/drivers",
					map[string]any{"id": "sc-d1", "x": 10, "y": 10}, nil); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create driver: code %d err %v", code, err))
				}
				var nearby struct {
					Drivers []struct {
						ID string `json:"id"`
					} `json:"drivers"`
				}
				if _, err := r.do(ctx, http.MethodGet, "/api/drivers/nearby?x=10&y=10&radius=3", nil, &nearby); err != nil {
					return failErr(err)
				}
				if len(nearby.Drivers) != 1 || nearby.Drivers[0].ID != "sc-d1" {
					return fail(fmt.Sprintf("nearby returned %+v", nearby.Drivers))
				}
				if code, err := r.do(ctx, http.MethodDelete, "/api/drivers/sc-d1", nil, nil); err != nil || code != http.StatusOK {
					return fail(fmt.Sprintf("remove driver: code %d err %v", code, err))
				}
				return pass()
			},
		},
		{
			Name: "Trip: request, dispatch, complete",
			Run: func(ctx context.Context, r *Runner) Result {
				if err := r.reset(ctx); err != nil {
					return failErr(err)
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/drivers",
					map[string]any{"id": "sc-d1", "x": 48, "y": 50}, nil); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create driver: code %d err %v", code, err))
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/riders",
					map[string]any{"id": "sc-r1", "x": 50, "y": 50}, nil); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create rider: code %d err %v", code, err))
				}
				var ride struct {
					ID string `json:"id"`
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/rides", map[string]any{
					"rider_id": "sc-r1", "pickup": point(50, 50), "dropoff": point(55, 55),
				}, &ride); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create ride: code %d err %v", code, err))
				}

				start := time.Now()
				ticks, err := r.tickUntil(ctx, func() (bool, error) {
					status, err := r.rideStatus(ctx, ride.ID)
					if err != nil {
						return false, err
					}
					if status == "failed" {
						return false, fmt.Errorf("ride failed before completing")
					}
					return status == "completed", nil
				})
				if err != nil {
					return failErr(err)
				}
				return Result{Status: "PASS", Latency: time.Since(start),
					Note: fmt.Sprintf("completed in %d ticks", ticks)}
			},
		},
		{
			Name: "Rejection: lone driver reject fails ride",
			Run: func(ctx context.Context, r *Runner) Result {
				if err := r.reset(ctx); err != nil {
					return failErr(err)
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/drivers",
					map[string]any{"id": "sc-d1", "x": 50, "y": 50}, nil); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create driver: code %d err %v", code, err))
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/riders",
					map[string]any{"id": "sc-r1", "x": 52, "y": 50}, nil); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create rider: code %d err %v", code, err))
				}
				var ride struct {
					ID string `json:"id"`
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/rides", map[string]any{
					"rider_id": "sc-r1", "pickup": point(52, 50), "dropoff": point(70, 70),
				}, &ride); err != nil || code != http.StatusCreated {
					return fail(fmt.Sprintf("create ride: code %d err %v", code, err))
				}
				if code, err := r.do(ctx, http.MethodPost, "/api/simulation/tick", nil, nil); err != nil || code != http.StatusOK {
					return fail(fmt.Sprintf("tick: code %d err %v", code, err))
				}
				var resp struct {
					Status string `json:"status"`
				}
				code, err := r.do(ctx, http.MethodPost, "/api/rides/"+ride.ID+"/respond",
					map[string]any{"driver_id": "sc-d1", "accepted": false}, &resp)
				if err != nil || code != http.StatusOK {
					return fail(fmt.Sprintf("respond: code %d err %v", code, err))
				}
				if resp.Status != "failed" {
					return fail(fmt.Sprintf("ride status %q after lone rejection, want failed", resp.Status))
				}
				return pass()
			},
		},
		{
			Name: "Config: runtime update applies",
			Run: func(ctx context.Context, r *Runner) Result {
				if err := r.reset(ctx); err != nil {
					return failErr(err)
				}
				var cfg struct {
					FairnessPenalty float64 `json:"fairness_penalty"`
				}
				code, err := r.do(ctx, http.MethodPut, "/api/simulation/config",
					map[string]any{"fairness_penalty": 2.0}, &cfg)
				if err != nil || code != http.StatusOK {
					return fail(fmt.Sprintf("update config: code %d err %v", code, err))
				}
				if cfg.FairnessPenalty != 2.0 {
					return fail(fmt.Sprintf("fairness_penalty = %v, want 2.0", cfg.FairnessPenalty))
				}
				if code, _ := r.do(ctx, http.MethodPut, "/api/simulation/config",
					map[string]any{"no_such_key": 1}, nil); code != http.StatusBadRequest {
					return fail(fmt.Sprintf("unknown key returned %d, want 400", code))
				}
				return pass()
			},
		},
		{
			Name: "Export: snapshot decompresses",
			Run: func(ctx context.Context, r *Runner) Result {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/api/simulation/export", nil)
				if err != nil {
					return failErr(err)
				}
				resp, err := r.httpc.Do(req)
				if err != nil {
					return failErr(err)
				}
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return fail(fmt.Sprintf("export returned %d", resp.StatusCode))
				}
				dec, err := zstd.NewReader(resp.Body)
				if err != nil {
					return failErr(err)
				}
				defer dec.Close()
				var snap map[string]any
				if err := json.NewDecoder(dec).Decode(&snap); err != nil {
					return failErr(err)
				}
				if _, ok := snap["drivers"]; !ok {
					return fail("snapshot missing drivers")
				}
				return pass()
			},
		},
		{
			Name: "Load: concurrent state reads",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				var wg sync.WaitGroup
				errs := make(chan error, r.cfg.Concurrency)
				for i := 0; i < r.cfg.Concurrency; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for j := 0; j < 10; j++ {
							if code, err := r.do(ctx, http.MethodGet, "/api/simulation/summary", nil, nil); err != nil || code != http.StatusOK {
								errs <- fmt.Errorf("summary: code %d err %v", code, err)
								return
							}
						}
					}()
				}
				wg.Wait()
				close(errs)
				if err := <-errs; err != nil {
					return failErr(err)
				}
				return passIn(time.Since(start))
			},
		},
	}
}
