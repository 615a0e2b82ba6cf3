package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/wudi/paysim/internal/engine"
	"github.com/wudi/paysim/internal/httperr"
	"github.com/wudi/paysim/internal/middleware"
)

type payRequest struct {
	Amount *float64 `json:"amount"`
}

type payResponse struct {
	Status        string  `json:"status"`
	ProviderID    string  `json:"providerId"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	ProcessedAt   string  `json:"processedAt"`
	Latency       int64   `json:"latency"` // milliseconds
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, r, "body must be JSON with a numeric amount")
		return
	}
	if req.Amount == nil || *req.Amount <= 0 {
		s.writeBadRequest(w, r, "amount must be a positive number")
		return
	}

	res := s.engine.Process(*req.Amount)

	switch res.Kind {
	case engine.KindSuccess:
		writeJSON(w, http.StatusOK, payResponse{
			Status:        "success",
			ProviderID:    s.cfg.ProviderID,
			TransactionID: res.TransactionID,
			Amount:        res.Amount,
			ProcessedAt:   res.ProcessedAt.UTC().Format(time.RFC3339Nano),
			Latency:       res.Latency.Milliseconds(),
		})
	case engine.KindRateLimited:
		s.writeError(w, r, httperr.ErrRateLimited.WithRetryAfter(res.RetryAfter))
	case engine.KindBreakerOpen:
		s.writeError(w, r, httperr.ErrBreakerOpen)
	case engine.KindTimeout:
		s.writeError(w, r, httperr.ErrTimeout)
	case engine.KindPermanentFailure:
		s.writeError(w, r, httperr.ErrPermanent)
	default:
		s.writeError(w, r, httperr.ErrTransient)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snap := s.engine.Snapshot()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime":         time.Since(s.startTime).String(),
		"circuitBreaker": snap.Breaker,
		"rateLimiter":    snap.RateLimiter,
		"metrics": map[string]any{
			"totalRequests":  snap.Metrics.TotalRequests,
			"successRate":    snap.Metrics.SuccessRate,
			"averageLatency": snap.Metrics.AverageLatencyMs,
		},
		"config": s.cfg,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.cfg)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.engine.Reset()
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "metrics, circuit breaker, and rate limiter reset",
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":   s.version,
		"buildTime": s.buildTime,
	})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.writeError(w, r, httperr.ErrBadRequest.WithMessage(msg))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, e *httperr.Error) {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		e = e.WithRequestID(id)
	}
	e.WriteJSON(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
