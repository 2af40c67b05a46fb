package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewUnavailableError("dynamodb", cause)

	assert.Contains(t, err.Error(), "UNAVAILABLE")
	assert.Contains(t, err.Error(), "socket closed")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestGetAppError_ThroughWrapping(t *testing.T) {
	inner := NewConflictError("seq already taken")
	wrapped := fmt.Errorf("append failed: %w", inner)

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeConflict, appErr.Type)
}

func TestTypeHelpers(t *testing.T) {
	assert.True(t, IsConflict(NewConflictError("x")))
	assert.True(t, IsNotFound(NewNotFoundError("session")))
	assert.True(t, IsValidation(NewValidationError("bad input")))
	assert.True(t, IsRetryExhausted(NewRetryExhaustedError("append", 3)))
	assert.True(t, IsUnavailable(NewUnavailableError("dynamodb", errors.New("down"))))

	assert.False(t, IsConflict(NewNotFoundError("session")))
	assert.False(t, IsConflict(errors.New("plain")))
	assert.False(t, IsConflict(nil))
}

func TestRetryExhaustedMessage(t *testing.T) {
	err := NewRetryExhaustedError("context append", 3)
	assert.Contains(t, err.Message, "context append")
	assert.Contains(t, err.Message, "3")
}

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "ignored"))
	})

	t.Run("app error keeps its type", func(t *testing.T) {
		err := Wrap(NewNotFoundError("session"), "lookup failed")
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "lookup failed")
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		err := Wrap(errors.New("boom"), "operation failed")
		appErr := GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeInternal, appErr.Type)
	})
}

func TestWithDetails(t *testing.T) {
	err := NewConflictError("duplicate").WithDetails(map[string]interface{}{
		"agent_id": "agent-1",
	})
	assert.Equal(t, "agent-1", err.Details["agent_id"])
}
