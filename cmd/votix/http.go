package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/types"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthService is the gRPC health service name reported alongside the overall status.
const healthService = "votix.Election"

// Monitor keeps the view-model connected and refreshed for headless serving,
// and mirrors the outcome into the gRPC health server.
type Monitor struct {
	vm       *election.ViewModel
	health   *health.Server
	interval time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger

	mu      sync.RWMutex
	lastErr error
}

// NewMonitor creates a monitor refreshing every interval. hs may be nil.
func NewMonitor(vm *election.ViewModel, hs *health.Server, interval time.Duration, log logrus.FieldLogger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m := &Monitor{
		vm:       vm,
		health:   hs,
		interval: interval,
		timeout:  time.Minute,
		log:      log.WithField("component", "monitor"),
	}
	m.setServing(false)
	return m
}

// Poll connects if needed and refreshes once.
func (m *Monitor) Poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var err error
	if m.vm.Session() == nil {
		_, err = m.vm.Connect(ctx)
	}
	if err == nil {
		_, err = m.vm.Refresh(ctx)
	}

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	m.setServing(err == nil)
	if err != nil {
		m.log.WithError(err).Warn("refresh failed")
	}
	return err
}

// Run polls immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	_ = m.Poll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = m.Poll(ctx)
		}
	}
}

// LastError returns the error from the latest poll, nil after a success.
func (m *Monitor) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Monitor) setServing(ok bool) {
	if m.health == nil {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	m.health.SetServingStatus("", status)
	m.health.SetServingStatus(healthService, status)
}

// StatusHandler handles HTTP status requests.
type StatusHandler struct {
	vm      *election.ViewModel
	monitor *Monitor
}

// NewStatusHandler creates a StatusHandler. monitor may be nil.
func NewStatusHandler(vm *election.ViewModel, monitor *Monitor) *StatusHandler {
	return &StatusHandler{vm: vm, monitor: monitor}
}

// ServeHTTP handles GET /status requests.
// Returns the latest snapshot as JSON, or 503 until the first refresh succeeds.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.vm.Snapshot()
	resp := types.NewStatusResponse(h.vm.Session(), snap)
	if h.monitor != nil {
		if err := h.monitor.LastError(); err != nil {
			resp.LastError = election.Message(err)
		}
	}

	code := http.StatusOK
	if snap == nil {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
