package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf_WrappedAppError(t *testing.T) {
	base := NewInternalError("failed to upsert suggestion", errors.New("connection refused"))
	wrapped := fmt.Errorf("train scene 7: %w", base)

	assert.Equal(t, ErrorTypeInternal, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeInternal))
	assert.False(t, Is(wrapped, ErrorTypeNotFound))
}

func TestTypeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("boom")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}

func TestAppError_Message(t *testing.T) {
	err := NewNotFoundError("scene with id 4 not found")
	assert.Equal(t, "NOT_FOUND: scene with id 4 not found", err.Error())

	cause := errors.New("duplicate key")
	conflict := NewConflictError("scene title already exists", cause)
	assert.Equal(t, "CONFLICT: scene title already exists: duplicate key", conflict.Error())
	assert.ErrorIs(t, conflict, cause)
}
