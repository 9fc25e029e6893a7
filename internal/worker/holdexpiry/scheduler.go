package holdexpiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer часть asynq.Client, нужная планировщику
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler ставит отложенную задачу снятия холда в очередь asynq
type Scheduler struct {
	client Enqueuer
	queue  string
	logger Logger
}

func NewScheduler(client Enqueuer, queue string, logger Logger) *Scheduler {
	return &Scheduler{client: client, queue: queue, logger: logger}
}

func (s *Scheduler) ScheduleExpiry(ctx context.Context, reservationID string, at time.Time) error {
	task, opts, err := NewExpireTask(reservationID, at, s.queue)
	if err != nil {
		return err
	}

	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue hold expiry for %s: %w", reservationID, err)
	}

	s.logger.Info("ScheduleExpiry: reservation=%s task=%s at=%s", reservationID, info.ID, at.Format(time.RFC3339))
	return nil
}
