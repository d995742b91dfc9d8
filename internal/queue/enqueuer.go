package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer publishes tasks from the API process.
type Enqueuer struct {
	Client *asynq.Client
	Log    zerolog.Logger
}

// EnqueueOrderSubmitted queues document generation for an order. The order
// id doubles as the task id so a retried submission cannot enqueue twice.
func (e *Enqueuer) EnqueueOrderSubmitted(ctx context.Context, orderID string) error {
	if e == nil || e.Client == nil {
		return nil
	}
	task, err := NewOrderSubmittedTask(orderID)
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task, asynq.TaskID("order-submitted-"+orderID))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeOrderSubmitted, err)
	}
	e.Log.Debug().Str("task_id", info.ID).Str("order_id", orderID).Msg("order submitted task enqueued")
	return nil
}
