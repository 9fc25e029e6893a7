package holdexpiry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// Handler обрабатывает задачи TypeExpireHold
type Handler struct {
	expirer Expirer
	logger  Logger
}

func NewHandler(expirer Expirer, logger Logger) *Handler {
	return &Handler{expirer: expirer, logger: logger}
}

// ProcessTask реализует asynq.Handler
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p ExpirePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		h.logger.Error("expire hold: invalid payload: %v", err)
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	released, err := h.expirer.ExpireHold(ctx, p.ReservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("expire hold: reservation %s not found", p.ReservationID)
			return nil
		}
		return err
	}

	if released {
		h.logger.Info("expire hold: released %s", p.ReservationID)
	}
	return nil
}

// NewServeMux регистрирует обработчик снятия холдов
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeExpireHold, h)
	return mux
}
