package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/isdelr/studentily-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HostStatsProvider returns the latest host sample.
type HostStatsProvider interface {
	Latest() monitoring.HostStats
}

// HealthHandler serves liveness and health probes.
type HealthHandler struct {
	store   Pinger
	stats   HostStatsProvider
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger, stats HostStatsProvider) *HealthHandler {
	return &HealthHandler{store: store, stats: stats, started: time.Now()}
}

// Root answers plain liveness checks.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("läuft ok"))
}

// Health reports store reachability and host memory usage.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := envelope{
		"status":        "ok",
		"store":         "up",
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
	}
	if h.stats != nil {
		body["memoryUsedPercent"] = h.stats.Latest().MemoryUsedPercent
	}

	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: store unreachable")
		body["status"] = "degraded"
		body["store"] = "down"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, body)
}
