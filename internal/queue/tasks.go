// Package queue wires background work through asynq. The only task today is
// document generation after order submission; keeping it off the request
// path means a slow print archive never delays the salesperson.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeOrderSubmitted is emitted once per successful order submission.
const TypeOrderSubmitted = "order:submitted"

// QueueDefault is the asynq queue all tasks land on.
const QueueDefault = "default"

// OrderSubmittedPayload identifies the order to document.
type OrderSubmittedPayload struct {
	OrderID string `json:"orderId"`
}

// NewOrderSubmittedTask builds the asynq task for a submitted order.
func NewOrderSubmittedTask(orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderSubmittedPayload{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("encode order submitted payload: %w", err)
	}
	return asynq.NewTask(TypeOrderSubmitted, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
