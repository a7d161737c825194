package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"decofer/core-go/internal/apperr"
	"decofer/core-go/internal/db"
	"decofer/core-go/internal/dto"
	"decofer/core-go/internal/metrics"
	"decofer/core-go/internal/reference"
)

// CommunicationConfigs is the service surface the API exposes.
// *commconfig.Service satisfies it.
type CommunicationConfigs interface {
	FindByID(ctx context.Context, id int64) (reference.CommunicationConfig, error)
	FindByIDAndConvertToChangeDTO(ctx context.Context, id int64) (dto.ChangeCommunicationConfig, error)
}

type Handler struct {
	log     zerolog.Logger
	configs CommunicationConfigs
	pool    *db.Pool
	metrics *metrics.Metrics
}

// NewHandler wires the API. pool is only set when snapshots are read from
// the warehouse database; it backs /readyz.
func NewHandler(log zerolog.Logger, configs CommunicationConfigs, pool *db.Pool, m *metrics.Metrics) *Handler {
	return &Handler{log: log, configs: configs, pool: pool, metrics: m}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/communication-configs/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetCommunicationConfig)
				r.Get("/change", h.handleGetChangeCommunicationConfig)
			})
		})
	})

	return r
}

// echoRequestID returns the request id assigned by middleware.RequestID to the caller.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)
		h.metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), duration)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.configs == nil {
		h.writeError(w, http.StatusServiceUnavailable, "not_configured", "communication config service not configured", nil)
		return
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "warehouse database not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

type communicationConfig struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Active   bool   `json:"active"`
	EMS      *ems   `json:"ems,omitempty"`
}

type ems struct {
	GUID uuid.UUID `json:"guid"`
	Code string    `json:"code,omitempty"`
	Name string    `json:"name,omitempty"`
}

func toCommunicationConfig(c reference.CommunicationConfig) communicationConfig {
	out := communicationConfig{
		ID:       c.ID,
		Name:     c.Name,
		Protocol: c.Protocol,
		Address:  c.Address,
		Port:     c.Port,
		Active:   c.Active,
	}
	if c.EMS != nil {
		out.EMS = &ems{GUID: c.EMS.GUID, Code: c.EMS.Code, Name: c.EMS.Name}
	}
	return out
}

func (h *Handler) ensureConfigs(w http.ResponseWriter) bool {
	if h.configs == nil {
		h.writeError(w, http.StatusServiceUnavailable, "not_configured", "communication config service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "communication config id must be a positive integer", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeLookupError(w http.ResponseWriter, id int64, err error) {
	var upErr *apperr.UpstreamError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "communication config not found", map[string]any{"id": id})
	case errors.Is(err, apperr.ErrMissingDependency):
		h.writeError(w, http.StatusBadGateway, "missing_dependency", "communication config has no ems guid", map[string]any{"id": id})
	case errors.As(err, &upErr):
		h.log.Error().Err(err).Int64("id", id).Str("upstream", upErr.Upstream).Msg("upstream lookup failed")
		h.writeError(w, http.StatusBadGateway, "upstream_error", "upstream lookup failed", map[string]any{"upstream": upErr.Upstream, "status": upErr.StatusCode})
	default:
		h.log.Error().Err(err).Int64("id", id).Msg("communication config lookup failed")
		h.writeError(w, http.StatusInternalServerError, "internal_error", "failed to fetch communication config", nil)
	}
}

func (h *Handler) handleGetCommunicationConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok || !h.ensureConfigs(w) {
		return
	}

	cfg, err := h.configs.FindByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCommunicationConfig(cfg))
}

func (h *Handler) handleGetChangeCommunicationConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok || !h.ensureConfigs(w) {
		return
	}

	out, err := h.configs.FindByIDAndConvertToChangeDTO(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	h.writeJSON(w, http.StatusOK, out)
}
