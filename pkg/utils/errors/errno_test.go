package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCode(t *testing.T) {
	tests := []struct {
		service, category, sequence int
		want                        int
	}{
		{0, 0, 0, 0},
		{21, 1, 1, 2101001},
		{21, 9, 3, 2109003},
		{22, 7, 1, 2207001},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MakeCode(tt.service, tt.category, tt.sequence))

		svc, cat, seq := ParseCode(tt.want)
		assert.Equal(t, tt.service, svc)
		assert.Equal(t, tt.category, cat)
		assert.Equal(t, tt.sequence, seq)
	}
}

func TestErrnoIs(t *testing.T) {
	wrapped := ErrRetrieval.WithCause(fmt.Errorf("milvus: connection refused"))

	assert.True(t, Is(wrapped, ErrRetrieval))
	assert.False(t, Is(wrapped, ErrGeneration))

	// Wrapping through fmt.Errorf must still match.
	deep := fmt.Errorf("search failed: %w", wrapped)
	assert.True(t, Is(deep, ErrRetrieval))
}

func TestWithMessageDoesNotMutate(t *testing.T) {
	custom := ErrValidation.WithMessage("message_text is required")

	assert.Equal(t, "message_text is required", custom.Message)
	assert.Equal(t, "Invalid request", ErrValidation.Message)
	assert.Equal(t, ErrValidation.Code, custom.Code)
	assert.Equal(t, "VALIDATION_ERROR", custom.Reason)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := fmt.Errorf("boom")
	e := FromError(plain)
	require.NotNil(t, e)
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus())

	// Errno inside a wrapped chain is recovered, not re-wrapped.
	chained := fmt.Errorf("turn failed: %w", ErrGeneration.WithCause(plain))
	e = FromError(chained)
	assert.Equal(t, ErrGeneration.Code, e.Code)
	assert.Equal(t, "GENERATION_ERROR", e.Reason)
}

func TestRegistryUniqueness(t *testing.T) {
	assert.Panics(t, func() {
		Register(&Errno{Code: ErrInternal.Code, Reason: "DUP"})
	})

	got, ok := Lookup(ErrSessionNotFound.Code)
	require.True(t, ok)
	assert.Equal(t, "SESSION_NOT_FOUND", got.Reason)
}
