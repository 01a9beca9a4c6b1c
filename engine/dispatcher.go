package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher coordinates multi-engine racing with staged escalation.
// It starts the fastest engine first and progressively escalates to heavier
// engines if earlier ones fail, time out or return a page that does not
// validate.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher with the given engines and escalation delays.
// engines[i] starts after escalationDelays[i] from the race beginning; missing
// delays are treated as 0.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Dispatch runs the multi-engine race for the given request and returns
// the first accepted result. ErrNotFound from any engine ends the race
// immediately. If all engines fail, it returns the last error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	domain := extractDomain(req.URL)

	// Try the engine that last won for this host before racing.
	if remembered := d.memory.Get(domain); remembered != "" {
		if eng := d.engine(remembered); eng != nil {
			slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
			result, err := d.fetch(ctx, eng, req)
			if err == nil || errors.Is(err, ErrNotFound) {
				return result, err
			}
			slog.Info("domain memory miss (engine failed), running full race",
				"domain", domain, "engine", remembered, "error", err)
			d.memory.Delete(domain)
		}
	}

	return d.race(ctx, req, domain)
}

func (d *Dispatcher) engine(name string) Engine {
	for _, eng := range d.engines {
		if eng.Name() == name {
			return eng
		}
	}
	return nil
}

// fetch runs one engine and applies the request's validator.
func (d *Dispatcher) fetch(ctx context.Context, eng Engine, req *FetchRequest) (*FetchResult, error) {
	result, err := eng.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Validate != nil {
		if verr := req.Validate(result); verr != nil {
			return nil, fmt.Errorf("%s: rejected: %w", eng.Name(), verr)
		}
	}
	return result, nil
}

// race runs all engines with staged delays and returns the first success.
func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		delay := d.escalationDelays[i]
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}

			// Another engine may have won while we were waiting.
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := d.fetch(raceCtx, e, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, delay)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if errors.Is(rr.err, ErrNotFound) {
			raceCancel()
			return nil, rr.err
		}
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		raceCancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		d.memory.Set(domain, rr.result.EngineName)
		return rr.result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
		if ctx.Err() != nil {
			lastErr = fmt.Errorf("dispatcher: %s: %w", req.URL, ctx.Err())
		}
	}
	return nil, lastErr
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
