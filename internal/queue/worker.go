package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/lmcorreia/backend-pedidos/internal/document"
)

type documentBuilder interface {
	BuildAndSave(ctx context.Context, orderID string) (document.Printable, error)
}

// Handlers holds the worker-side task handlers.
type Handlers struct {
	Documents documentBuilder
	Log       zerolog.Logger
}

// Mux registers all task handlers on an asynq mux.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderSubmitted, h.HandleOrderSubmitted)
	return mux
}

// HandleOrderSubmitted archives the printable document pair for a freshly
// submitted order.
func (h *Handlers) HandleOrderSubmitted(ctx context.Context, t *asynq.Task) error {
	var payload OrderSubmittedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TypeOrderSubmitted, err, asynq.SkipRetry)
	}
	p, err := h.Documents.BuildAndSave(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("document order %s: %w", payload.OrderID, err)
	}
	h.Log.Info().
		Str("order_id", payload.OrderID).
		Bool("half_invoice", p.HalfInvoice).
		Str("total_with_invoice", p.Pair.WithInvoice.Total.String()).
		Msg("order documents archived")
	return nil
}
