package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError_Classification(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &StoreError{Op: "tasks.update", Kind: ErrUpdateFailed, Reason: "timeout", Err: cause}

	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, "tasks.update: update failed: timeout", err.Error())

	wrapped := fmt.Errorf("move: %w", err)
	assert.ErrorIs(t, wrapped, ErrUpdateFailed)
	assert.Equal(t, "timeout", Reason(wrapped))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "boom", Reason(errors.New("boom")))
	assert.Equal(t, "x: fetch failed", Reason(&StoreError{Op: "x", Kind: ErrFetchFailed}))
	assert.Equal(t, "Board not found", Reason(&StoreError{Op: "x", Kind: ErrFetchFailed, Reason: "Board not found"}))
}
