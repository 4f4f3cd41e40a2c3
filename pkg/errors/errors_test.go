package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("product", "p1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "p1")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := Internal(inner)
	assert.ErrorIs(t, err, inner)
}

func TestConstructors_MapToSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{"not found", NotFound("cart item", "l1"), ErrNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("quantity must be at least 1"), ErrInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("session expired"), ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), ErrForbidden, http.StatusForbidden},
		{"conflict", Conflict("already exists"), ErrConflict, http.StatusConflict},
		{"checkout rejected", CheckoutRejected("cart is empty"), ErrCheckoutRejected, http.StatusUnprocessableEntity},
		{"internal", Internal(errors.New("boom")), nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.sentinel != nil {
				assert.ErrorIs(t, tt.err, tt.sentinel)
			}
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_BareSentinels(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCheckoutRejected))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestWrap_PreservesChain(t *testing.T) {
	err := Wrap(ErrUnauthorized, "toggle wishlist")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "toggle wishlist")
}
