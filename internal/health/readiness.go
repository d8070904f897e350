// Package health reports liveness and readiness of the API and its dependencies.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status values reported per check
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Check probes one dependency
type Check func(ctx context.Context) error

// DependencyHealth is the background monitor view, satisfied by *Monitor
type DependencyHealth interface {
	Health() map[string]bool
}

// Result is the outcome of a readiness probe
type Result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Readiness runs the registered checks concurrently with a shared timeout
type Readiness struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
	monitor DependencyHealth
}

// NewReadiness creates a Readiness. monitor may be nil.
func NewReadiness(timeout time.Duration, monitor DependencyHealth) *Readiness {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Readiness{checks: map[string]Check{}, timeout: timeout, monitor: monitor}
}

// Add registers a named check
func (r *Readiness) Add(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// Names returns the registered check names in order
func (r *Readiness) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs every probe. The overall status fails if any probe fails or the
// background monitor reports a critical dependency down.
func (r *Readiness) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.mu.RLock()
	checks := make(map[string]Check, len(r.checks))
	for k, v := range r.checks {
		checks[k] = v
	}
	r.mu.RUnlock()

	res := Result{Status: StatusOK, Checks: map[string]string{}}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			status := StatusOK
			if err := check(ctx); err != nil {
				status = StatusFail + ": " + err.Error()
			}
			mu.Lock()
			res.Checks[name] = status
			if status != StatusOK {
				res.Status = StatusFail
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	if r.monitor != nil {
		for dep, healthy := range r.monitor.Health() {
			key := "dephealth:" + dep
			if healthy {
				res.Checks[key] = StatusOK
				continue
			}
			res.Checks[key] = StatusFail
			res.Status = StatusFail
		}
	}
	return res
}
