package services

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/database"
	"github.com/temcen/cinerec/internal/store"
)

// BreakerStater reports the state of the storage circuit breaker.
type BreakerStater interface {
	State() gobreaker.State
}

type HealthService struct {
	config  *config.Config
	logger  *logrus.Logger
	db      *database.Database
	breaker BreakerStater
	checks  map[string]func(context.Context) error

	healthCheckStatus   *prometheus.GaugeVec
	lastHealthCheck     *prometheus.GaugeVec
	systemMetrics       *prometheus.GaugeVec
	dbConnectionMetrics *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Latency     time.Duration          `json:"latency,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

var errBackendNotConnected = errors.New("backend not connected")

// NewHealthService builds the health checks for the configured storage
// driver. breaker may be nil when the circuit breaker is disabled.
func NewHealthService(cfg *config.Config, logger *logrus.Logger, db *database.Database, breaker BreakerStater) *HealthService {
	hs := &HealthService{
		config:  cfg,
		logger:  logger,
		db:      db,
		breaker: breaker,
	}

	hs.checks = map[string]func(context.Context) error{
		"storage": hs.checkStorage,
		"redis":   hs.checkRedis,
	}

	hs.healthCheckStatus = register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"}), logger)

	hs.lastHealthCheck = register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_timestamp",
		Help: "Timestamp of last health check",
	}, []string{"service"}), logger)

	hs.systemMetrics = register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "system_info",
		Help: "System information metrics",
	}, []string{"metric_type"}), logger)

	hs.dbConnectionMetrics = register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "database_connection_pool_usage",
		Help: "Database connection pool usage percentage",
	}, []string{"database", "state"}), logger)

	return hs
}

// Start runs the background metric collectors until ctx is done.
func (s *HealthService) Start(ctx context.Context) {
	go s.collectSystemMetrics(ctx)
	go s.collectDatabaseMetrics(ctx)
}

// CheckHealth pings the storage backend and Redis. The storage backend is
// critical; Redis and an open circuit breaker only degrade the service.
func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Timestamp: start,
		Services:  make(map[string]string),
		Details: map[string]interface{}{
			"storage_driver": s.config.Storage.Driver,
		},
	}

	critical := map[string]bool{"storage": true}

	allCriticalHealthy := true
	for name, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check(checkCtx)
		cancel()

		if err == nil {
			status.Services[name] = "healthy"
			s.UpdateHealthMetrics(name, true)
			continue
		}

		status.Services[name] = "unhealthy"
		s.UpdateHealthMetrics(name, false)
		if critical[name] {
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
		} else {
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
		}
	}

	if s.breaker != nil {
		state := s.breaker.State()
		status.Details["store_breaker"] = state.String()
		if state == gobreaker.StateOpen {
			status.NonCritical = append(status.NonCritical, "store_breaker")
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	status.Latency = time.Since(start)

	return status
}

func (s *HealthService) checkStorage(ctx context.Context) error {
	switch s.config.Storage.Driver {
	case store.DriverPostgres:
		if s.db == nil || s.db.PG == nil {
			return errBackendNotConnected
		}
		return s.db.PG.Ping(ctx)
	case store.DriverNeo4j:
		if s.db == nil || s.db.Neo4j == nil {
			return errBackendNotConnected
		}
		return s.db.Neo4j.VerifyConnectivity(ctx)
	case store.DriverMongo:
		if s.db == nil || s.db.Mongo == nil {
			return errBackendNotConnected
		}
		return s.db.Mongo.Ping(ctx, nil)
	default:
		return nil
	}
}

func (s *HealthService) checkRedis(ctx context.Context) error {
	if s.db == nil || s.db.Redis == nil {
		return errBackendNotConnected
	}
	return s.db.Redis.Ping(ctx).Err()
}

func (s *HealthService) collectSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var memStats runtime.MemStats

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		runtime.ReadMemStats(&memStats)

		s.systemMetrics.WithLabelValues("memory_alloc_bytes").Set(float64(memStats.Alloc))
		s.systemMetrics.WithLabelValues("memory_sys_bytes").Set(float64(memStats.Sys))
		s.systemMetrics.WithLabelValues("goroutines_count").Set(float64(runtime.NumGoroutine()))
		s.systemMetrics.WithLabelValues("gc_runs_total").Set(float64(memStats.NumGC))

		if len(memStats.PauseNs) > 0 {
			lastPause := memStats.PauseNs[(memStats.NumGC+255)%256]
			s.systemMetrics.WithLabelValues("gc_pause_ns").Set(float64(lastPause))
		}
	}
}

func (s *HealthService) collectDatabaseMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.db == nil || s.db.PG == nil {
			continue
		}
		stats := s.db.PG.Stat()

		s.dbConnectionMetrics.WithLabelValues("postgresql", "acquired_conns").Set(float64(stats.AcquiredConns()))
		s.dbConnectionMetrics.WithLabelValues("postgresql", "idle_conns").Set(float64(stats.IdleConns()))
		s.dbConnectionMetrics.WithLabelValues("postgresql", "max_conns").Set(float64(stats.MaxConns()))
		s.dbConnectionMetrics.WithLabelValues("postgresql", "total_conns").Set(float64(stats.TotalConns()))

		if stats.MaxConns() > 0 {
			usage := float64(stats.AcquiredConns()) / float64(stats.MaxConns()) * 100
			s.dbConnectionMetrics.WithLabelValues("postgresql", "usage_percent").Set(usage)
		}
	}
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
