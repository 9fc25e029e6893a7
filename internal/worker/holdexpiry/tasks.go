package holdexpiry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeExpireHold тип задачи снятия холда
const TypeExpireHold = "reservation:hold:expire"

// ExpirePayload тело задачи
type ExpirePayload struct {
	ReservationID string    `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// NewExpireTask создает задачу, которая выполнится в момент истечения холда
// ID задачи привязан к бронированию, повторная постановка не создает дубль
func NewExpireTask(reservationID string, at time.Time, queue string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(ExpirePayload{ReservationID: reservationID, ExpiresAt: at})
	if err != nil {
		return nil, nil, fmt.Errorf("encode expire payload: %w", err)
	}

	opts := []asynq.Option{
		asynq.ProcessAt(at),
		asynq.TaskID("hold-expire:" + reservationID),
		asynq.MaxRetry(5),
		asynq.Retention(time.Hour),
	}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return asynq.NewTask(TypeExpireHold, b), opts, nil
}
