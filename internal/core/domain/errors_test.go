package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountDeletedError_Is(t *testing.T) {
	err := NewAccountDeletedError(time.Now())
	assert.True(t, errors.Is(err, ErrAccountDeleted))

	var target *AccountDeletedError
	assert.True(t, errors.As(err, &target))
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("email", "invalid format")
	assert.True(t, errors.Is(err, ErrValidationFailed))
}
