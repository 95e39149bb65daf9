package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	err := NewAppError("SYNC_ERROR", "listing failed", ErrUnauthorized)

	assert.EqualError(t, err, "SYNC_ERROR: listing failed: unauthorized")
	assert.ErrorIs(t, err, ErrUnauthorized)

	bare := NewAppError("SYNC_ERROR", "listing failed", nil)
	assert.EqualError(t, bare, "SYNC_ERROR: listing failed")
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ignored"))

	cause := errors.New("boom")
	wrapped := WrapError(cause, "download")
	assert.EqualError(t, wrapped, "download: boom")
	assert.ErrorIs(t, wrapped, cause)
}
