package health

import (
	"context"
	"net/http"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/api/handlers"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Response HTTP response model
type Response struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

type Handler struct {
	service string
	checks  map[string]Pinger
}

// NewHandler checks - зависимости по имени; пустой набор - только liveness
func NewHandler(service string, checks map[string]Pinger) *Handler {
	return &Handler{service: service, checks: checks}
}

// Handle GET /health
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:    "ok",
		Message:   h.service + " is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, p := range h.checks {
			if err := p.PingContext(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	handlers.RespondJSON(w, status, resp)
}
