package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type staticMonitor map[string]bool

func (m staticMonitor) Health() map[string]bool { return m }

func TestReadinessAllOK(t *testing.T) {
	r := NewReadiness(time.Second, staticMonitor{"postgresql": true})
	r.Add("postgres", func(context.Context) error { return nil })
	r.Add("redis", func(context.Context) error { return nil })

	res := r.Check(context.Background())
	if res.Status != StatusOK {
		t.Fatalf("status = %s, checks %+v", res.Status, res.Checks)
	}
	if res.Checks["dephealth:postgresql"] != StatusOK {
		t.Fatalf("monitor state missing: %+v", res.Checks)
	}
	if names := r.Names(); len(names) != 2 || names[0] != "postgres" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestReadinessFailingCheck(t *testing.T) {
	r := NewReadiness(time.Second, nil)
	r.Add("postgres", func(context.Context) error { return nil })
	r.Add("redis", func(context.Context) error { return errors.New("connection refused") })

	res := r.Check(context.Background())
	if res.Status != StatusFail {
		t.Fatalf("expected fail, got %s", res.Status)
	}
	if !strings.Contains(res.Checks["redis"], "connection refused") {
		t.Fatalf("failure reason missing: %+v", res.Checks)
	}
}

func TestReadinessTimeout(t *testing.T) {
	r := NewReadiness(20*time.Millisecond, nil)
	r.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	if res := r.Check(context.Background()); res.Status != StatusFail {
		t.Fatalf("timed out check should fail")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestReadinessMonitorDown(t *testing.T) {
	r := NewReadiness(time.Second, staticMonitor{"postgresql": false})
	if res := r.Check(context.Background()); res.Status != StatusFail {
		t.Fatalf("critical dependency down should fail readiness")
	}
}
