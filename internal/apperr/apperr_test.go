package apperr

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"validation", Validation("items are required"), KindValidation, http.StatusBadRequest},
		{"not found", NotFound("order not found"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("email already registered"), KindConflict, http.StatusConflict},
		{"wrapped transient", errors.Wrap(Transient(context.DeadlineExceeded, "store timeout"), "create order"), KindTransient, http.StatusServiceUnavailable},
		{"upstream", Upstream(errors.New("boom"), "payment provider error"), KindUpstream, http.StatusBadGateway},
		{"plain", errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(KindOf(tt.err)))
		})
	}
}

func TestMessageHidesInternalCause(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: connection refused")))
	assert.Equal(t, "order not found", Message(NotFound("order not found")))
	assert.Equal(t, "store timeout", Message(Transient(context.DeadlineExceeded, "store timeout")))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindConflict, nil, "ignored"))
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := Transient(context.DeadlineExceeded, "store timeout")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
