package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validationf("bad payment method"), http.StatusBadRequest},
		{InvalidTransitionf("only pending orders may be cancelled"), http.StatusBadRequest},
		{NotFoundf("order 7 not found"), http.StatusNotFound},
		{Forbiddenf("not your order"), http.StatusForbidden},
		{Dependency("ledger unreachable", errors.New("dial tcp")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err))
	}
}

func TestIsKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("while cancelling: %w", InvalidTransitionf("only pending orders may be cancelled"))
	assert.True(t, IsKind(err, KindInvalidTransition))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestDependency_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("ledger write failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ledger write failed")
	assert.Contains(t, err.Error(), "connection refused")
}
