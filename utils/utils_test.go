package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, "^[0-9A-F]+$", code)

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestCircuitBreaker_PassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test")

	err := cb.Do(context.Background(), func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	wantErr := errors.New("broker down")
	err = cb.Do(context.Background(), func(context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestCircuitBreaker_OpensAfterSustainedFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < 100; i++ {
		_ = cb.Do(context.Background(), func(context.Context) error {
			return errors.New("broker down")
		})
	}

	err := cb.Do(context.Background(), func(context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}
