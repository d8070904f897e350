package health

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// MonitorConfig configures background dependency monitoring
type MonitorConfig struct {
	ServiceID     string
	Group         string
	PostgresURL   string
	CheckInterval time.Duration
	Registerer    prometheus.Registerer
}

// Monitor periodically probes PostgreSQL through the application pool and
// exports app_dependency_* metrics on /metrics.
type Monitor struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewMonitor creates a Monitor. db should wrap the application's pgx pool
// (stdlib.OpenDBFromPool) so pool exhaustion shows up as unhealthy.
func NewMonitor(cfg MonitorConfig, db *sql.DB, logger *slog.Logger) (*Monitor, error) {
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(cfg.PostgresURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		),
	}
	if cfg.Registerer != nil {
		opts = append(opts, dephealth.WithRegisterer(cfg.Registerer))
	}

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}
	return &Monitor{dh: dh, logger: logger.With(slog.String("component", "dephealth"))}, nil
}

// Start begins periodic checks
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("dependency monitoring started")
	return m.dh.Start(ctx)
}

// Stop ends periodic checks
func (m *Monitor) Stop() {
	m.dh.Stop()
	m.logger.Info("dependency monitoring stopped")
}

// Health returns the last known state per dependency
func (m *Monitor) Health() map[string]bool {
	return m.dh.Health()
}
