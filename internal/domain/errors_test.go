package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrFetchFailed, "Failed to create booking.", cause)

	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Failed to create booking.", err.Error())

	wrapped := fmt.Errorf("commit: %w", err)
	assert.Equal(t, ErrFetchFailed, KindOf(wrapped))
	assert.Nil(t, KindOf(cause))
}

func TestErrorMessageFallsBackToKind(t *testing.T) {
	err := &Error{Kind: ErrUnauthorized}
	assert.Equal(t, "unauthorized access", err.Error())
}
