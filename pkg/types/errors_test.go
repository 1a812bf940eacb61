package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	cause := errors.New("disk full")

	verr := NewValidationError("missing required fields", "title", "genres")
	nerr := &NotFoundError{ID: 7}
	perr := &PersistenceError{Op: "insert item", Err: cause}

	assert.ErrorIs(t, verr, ErrValidation)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", verr), ErrValidation)
	assert.NotErrorIs(t, verr, ErrNotFound)

	assert.ErrorIs(t, nerr, ErrNotFound)
	assert.NotErrorIs(t, nerr, ErrPersistence)

	assert.ErrorIs(t, perr, ErrPersistence)
	assert.ErrorIs(t, perr, cause)

	assert.Equal(t, "missing required fields: title, genres", verr.Error())
	assert.Equal(t, "invalid kind", NewValidationError("invalid kind").Error())
	assert.Equal(t, "item 7 not found", nerr.Error())
	assert.Equal(t, "insert item: disk full", perr.Error())
}
