// Package ordering decides where a task lands when it is dropped on a column.
//
// Placement is append-only: a moved task always takes the destination
// column's append slot. Nothing else in either column is renumbered, so the
// origin column keeps a gap where the task used to be.
package ordering

import (
	"errors"
	"fmt"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

var (
	ErrInvalidStatus = model.ErrInvalidStatus
	ErrInvalidLength = errors.New("invalid destination length")
)

type MoveResult struct {
	TaskID      string       `json:"id"`
	NewStatus   model.Status `json:"status"`
	NewPosition int          `json:"position"`
}

// PlanMove computes the new (status, position) of a task moving from one
// column to another. ok is false when the move is a no-op, which is the case
// for every drop on the task's own column.
func PlanMove(taskID string, from, to model.Status, destinationLength int) (result MoveResult, ok bool, err error) {
	if !from.Valid() {
		return MoveResult{}, false, fmt.Errorf("%w: from %q", ErrInvalidStatus, from)
	}
	if !to.Valid() {
		return MoveResult{}, false, fmt.Errorf("%w: to %q", ErrInvalidStatus, to)
	}
	if destinationLength < 0 {
		return MoveResult{}, false, fmt.Errorf("%w: %d", ErrInvalidLength, destinationLength)
	}
	if from == to {
		return MoveResult{}, false, nil
	}

	return MoveResult{
		TaskID:      taskID,
		NewStatus:   to,
		NewPosition: destinationLength,
	}, true, nil
}
