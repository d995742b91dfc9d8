package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lmcorreia/backend-pedidos/internal/document"
)

type fakeBuilder struct {
	built []string
	err   error
}

func (f *fakeBuilder) BuildAndSave(_ context.Context, orderID string) (document.Printable, error) {
	if f.err != nil {
		return document.Printable{}, f.err
	}
	f.built = append(f.built, orderID)
	return document.Printable{OrderID: orderID}, nil
}

func TestHandleOrderSubmitted(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{}
	h := &Handlers{Documents: builder, Log: zerolog.Nop()}

	task, err := NewOrderSubmittedTask("o1")
	require.NoError(t, err)
	require.Equal(t, TypeOrderSubmitted, task.Type())

	require.NoError(t, h.HandleOrderSubmitted(context.Background(), task))
	require.Equal(t, []string{"o1"}, builder.built)
}

func TestHandleOrderSubmittedBuildFailureRetries(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{err: errors.New("db down")}
	h := &Handlers{Documents: builder, Log: zerolog.Nop()}

	task, err := NewOrderSubmittedTask("o2")
	require.NoError(t, err)

	err = h.HandleOrderSubmitted(context.Background(), task)
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry), "transient failures must stay retryable")
}

func TestHandleOrderSubmittedBadPayload(t *testing.T) {
	t.Parallel()

	h := &Handlers{Documents: &fakeBuilder{}, Log: zerolog.Nop()}
	task := asynq.NewTask(TypeOrderSubmitted, []byte("{not json"))

	err := h.HandleOrderSubmitted(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry, "malformed payloads are dropped, not retried")
	require.Contains(t, err.Error(), "invalid character", "decode failure detail must survive wrapping")
}
