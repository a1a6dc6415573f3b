package api

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	xhttp "SignalForge/pkg/http"
	xlogger "SignalForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthChecker is any dependency that can report its own health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// OpsEchoHandler serves the operational endpoints of the generator process.
// It exposes state; it never triggers a run.
type OpsEchoHandler struct {
	logger  *xlogger.Logger
	history domrepo.HistoryStore
	checks  map[string]HealthChecker
	timeout time.Duration

	mu   sync.RWMutex
	last *models.RunResult
}

func NewOpsEchoHandler(logger *xlogger.Logger, history domrepo.HistoryStore) *OpsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &OpsEchoHandler{
		logger:  logger,
		history: history,
		checks:  make(map[string]HealthChecker),
		timeout: 3 * time.Second,
	}
	if history != nil {
		h.checks["history"] = history
	}
	return h
}

// AddCheck registers an extra component for /healthz.
func (h *OpsEchoHandler) AddCheck(name string, c HealthChecker) {
	if c != nil {
		h.checks[name] = c
	}
}

// PublishRun keeps the latest run for /runs/last. It satisfies RunPublisher.
func (h *OpsEchoHandler) PublishRun(_ context.Context, run *models.RunResult) error {
	h.mu.Lock()
	h.last = run
	h.mu.Unlock()
	return nil
}

func (h *OpsEchoHandler) Close() error { return nil }

func (h *OpsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/signals/active", h.ActiveSignals)
	e.GET("/runs/last", h.LastRun)
}

func (h *OpsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := xhttp.HealthStatus{Status: "ok", Components: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("component", name), xlogger.Error(err))
			status.Status = "degraded"
			status.Components[name] = err.Error()
			continue
		}
		status.Components[name] = "ok"
	}
	if status.Status != "ok" {
		return xhttp.UnavailableResponse(c, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *OpsEchoHandler) ActiveSignals(c echo.Context) error {
	if h.history == nil {
		return xhttp.DataResponse(c, http.StatusNotFound, nil)
	}
	recs, err := h.history.ActiveSignals(c.Request().Context())
	if err != nil {
		h.logger.Error("active signals error", xlogger.Error(err))
		return xhttp.UnavailableResponse(c, map[string]string{"error": err.Error()})
	}
	if symbol := strings.ToUpper(c.QueryParam("symbol")); symbol != "" {
		filtered := recs[:0]
		for _, r := range recs {
			if r.Symbol == symbol {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}
	return xhttp.SuccessResponse(c, recs)
}

func (h *OpsEchoHandler) LastRun(c echo.Context) error {
	h.mu.RLock()
	run := h.last
	h.mu.RUnlock()
	if run == nil {
		return xhttp.DataResponse(c, http.StatusNotFound, nil)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, run)
}
