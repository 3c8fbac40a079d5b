package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidStatus is returned for any status outside Todo/Doing/Done.
var ErrInvalidStatus = errors.New("invalid status")

type Status string

const (
	StatusTodo  Status = "Todo"
	StatusDoing Status = "Doing"
	StatusDone  Status = "Done"
)

// Statuses returns the board columns in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusDoing, StatusDone}
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

type Task struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	BoardID   string    `json:"board_id" yaml:"board_id"`
	Status    Status    `json:"status" yaml:"status"`
	Position  int       `json:"position" yaml:"position"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
}

type Board struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

type TaskFilter struct {
	BoardID string
	Status  *Status
}

// Column is the ordered set of tasks sharing a (board, status) pair.
type Column []Task

// NextPosition is the append slot of the column. For a dense column it equals
// its length; a column left with gaps by earlier moves never hands out a
// position that is already taken.
func (c Column) NextPosition() int {
	next := len(c)
	for _, t := range c {
		if t.Position >= next {
			next = t.Position + 1
		}
	}
	return next
}

// Columns groups tasks by status. Every status is present, possibly empty,
// and each column is sorted by position (ties by ID).
func Columns(tasks []Task) map[Status]Column {
	cols := make(map[Status]Column, 3)
	for _, s := range Statuses() {
		cols[s] = Column{}
	}
	for _, t := range tasks {
		if !t.Status.Valid() {
			continue
		}
		cols[t.Status] = append(cols[t.Status], t)
	}
	for _, c := range cols {
		sort.SliceStable(c, func(i, j int) bool {
			if c[i].Position != c[j].Position {
				return c[i].Position < c[j].Position
			}
			return c[i].ID < c[j].ID
		})
	}
	return cols
}
