package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/logger"
)

// Dependency the service can't work without
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func handleHealth(checks []HealthCheck, l logger.Logger) http.Handler {
	type response struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := response{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				l.Warn("Health check failed", "check", c.Name, "error", err)
				resp.Checks[c.Name] = "unavailable"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		render.Success(w, code, resp, "")
	})
}
