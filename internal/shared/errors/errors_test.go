package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_MapStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		typ  ErrorType
		code int
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("missing"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("raced"), ErrorTypeConflict, http.StatusConflict},
		{"upstream", NewUpstreamError("chain down"), ErrorTypeUpstream, http.StatusBadGateway},
		{"unavailable", NewUnavailableError("no rate"), ErrorTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestGetAppError_Wrapped(t *testing.T) {
	err := fmt.Errorf("saving: %w", NewConflictError("state changed", "payment 7"))

	appErr := GetAppError(err)
	if assert.NotNil(t, appErr) {
		assert.Equal(t, "payment 7", appErr.Details)
	}
	assert.True(t, IsConflictError(err))
	assert.False(t, IsNotFoundError(err))
	assert.Nil(t, GetAppError(fmt.Errorf("plain")))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(fmt.Errorf("UNIQUE constraint failed: coin_payment_transactions.transaction_hash")))
	assert.True(t, IsDuplicateError(fmt.Errorf("Error 1062: Duplicate entry 'x' for key 'idx'")))
	assert.False(t, IsDuplicateError(nil))
	assert.False(t, IsDuplicateError(fmt.Errorf("connection refused")))
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, IsRetryableTxError(fmt.Errorf("Error 1213 (40001): Deadlock found when trying to get lock")))
	assert.True(t, IsRetryableTxError(fmt.Errorf("ERROR: deadlock detected (SQLSTATE 40P01)")))
	assert.True(t, IsRetryableTxError(fmt.Errorf("wrapped: %w", fmt.Errorf("database is locked"))))
	assert.False(t, IsRetryableTxError(nil))
	assert.False(t, IsRetryableTxError(NewConflictError("payment state changed concurrently")))
}
