package http

import (
	"Shortly-Backend/internal/analytics"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Version сообщается в health и metrics ответах
var Version = "dev"

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обработчик health checks
type HealthHandler struct {
	db        Pinger
	processor *analytics.Processor
	startTime time.Time
	log       *zap.Logger
}

// NewHealthHandler создает новый health handler. processor может быть nil.
func NewHealthHandler(db Pinger, processor *analytics.Processor, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		processor: processor,
		startTime: time.Now(),
		log:       log,
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	DatabaseStatus string    `json:"database_status"`
	Uptime         string    `json:"uptime,omitempty"`
}

// MetricsResponse счетчики процесса
type MetricsResponse struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	Timestamp     time.Time        `json:"timestamp"`
	Version       string           `json:"version"`
	Clicks        *analytics.Stats `json:"click_processor,omitempty"`
}

// Health основной health check endpoint
//
//	@Summary	Health check
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code, dbStatus := "healthy", http.StatusOK, h.checkDatabase(r.Context())
	if dbStatus != "healthy" {
		status, code = "unhealthy", http.StatusServiceUnavailable
		h.log.Warn("health check failed", zap.String("database_status", dbStatus))
	}

	h.writeJSON(w, HealthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		Version:        Version,
		DatabaseStatus: dbStatus,
		Uptime:         time.Since(h.startTime).String(),
	}, code)
}

// Ready readiness probe: готов, если доступна база и запущен обработчик кликов
//
//	@Summary	Readiness probe
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	503	{object}	map[string]interface{}
//	@Router		/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ready := h.checkDatabase(r.Context()) == "healthy"
	if h.processor != nil && !h.processor.GetStats().Started {
		ready = false
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	h.writeJSON(w, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
	}, code)
}

// Metrics простой endpoint с метриками
//
//	@Summary	Process metrics
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	MetricsResponse
//	@Router		/metrics [get]
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	resp := MetricsResponse{
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Timestamp:     time.Now(),
		Version:       Version,
	}
	if h.processor != nil {
		stats := h.processor.GetStats()
		resp.Clicks = &stats
	}
	h.writeJSON(w, resp, http.StatusOK)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database health check failed", zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}

func (h *HealthHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode health response", zap.Error(err))
	}
}
