// Package board keeps an optimistic, grouped view of one board's tasks in
// step with a Task Store.
//
// Mutations are applied to the local view first and persisted afterwards.
// A failed move is never undone field by field: the synchronizer reloads
// the board and the store's answer replaces the view wholesale.
//
// Mutations are not queued. Several may be in flight at once; loads carry a
// sequence number so that a slower, older load never overwrites a newer one.
// A move the store confirms is written back only if no load landed while it
// was pending. Otherwise the board is reloaded, and a task that comes back
// sharing its slot with another is appended to its column again.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/ordering"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

var (
	ErrNotReady    = errors.New("board view is not ready")
	ErrUnknownTask = errors.New("task is not on this board")
	ErrWrongColumn = errors.New("task is not in the origin column")
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateMutating
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateMutating:
		return "mutating"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Synchronizer struct {
	store   repo.TaskStore
	boardID string
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	err      error
	tasks    []model.Task
	inFlight int
	issued   uint64 // last load sequence handed out
	applied  uint64 // sequence of the load currently shown
}

func New(store repo.TaskStore, boardID string, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		store:   store,
		boardID: boardID,
		logger:  logger.With(zap.String("board_id", boardID)),
	}
}

func (s *Synchronizer) BoardID() string { return s.boardID }

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the failure behind StateError, nil in every other state.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// View returns a copy of the board grouped into columns.
func (s *Synchronizer) View() map[model.Status]model.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Columns(s.tasks)
}

// Load fetches every task of the board and replaces the view with the result.
// A first load (or a retry after an error) puts the view in StateLoading; a
// reload of a populated view keeps serving the current tasks meanwhile.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	if s.state == StateIdle || s.state == StateError {
		s.state = StateLoading
		s.err = nil
	}
	s.mu.Unlock()

	tasks, err := s.store.ListTasks(ctx, s.boardID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.applied {
		s.logger.Debug("discarding stale load", zap.Uint64("seq", seq), zap.Uint64("applied", s.applied))
		return err
	}
	if err != nil {
		s.logger.Error("failed to load tasks", zap.Error(err))
		s.state = StateError
		s.err = err
		return err
	}

	s.applied = seq
	s.tasks = append([]model.Task(nil), tasks...)
	s.err = nil
	s.settle()
	s.logger.Debug("tasks loaded", zap.Int("count", len(tasks)), zap.Uint64("seq", seq))
	return nil
}

// MoveTask drops a task onto another column. The task is appended to the
// destination right away; the store is then asked to persist the new
// (status, position). If that fails the board is reloaded and the store's
// error is returned.
func (s *Synchronizer) MoveTask(ctx context.Context, taskID string, from, to model.Status) error {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateMutating {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotReady, state)
	}
	idx := s.indexOf(taskID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}

	destLen := 0
	if to.Valid() {
		destLen = model.Columns(s.tasks)[to].NextPosition()
	}
	move, ok, err := ordering.PlanMove(taskID, from, to, destLen)
	if current := s.tasks[idx].Status; err == nil && ok && current != from {
		if current == to {
			ok = false
		} else {
			err = fmt.Errorf("%w: %s is in %s", ErrWrongColumn, taskID, current)
		}
	}
	if err != nil || !ok {
		s.mu.Unlock()
		return err
	}

	s.tasks[idx].Status = move.NewStatus
	s.tasks[idx].Position = move.NewPosition
	planned := s.applied
	s.begin()
	s.mu.Unlock()

	s.logger.Debug("task moved",
		zap.String("task_id", taskID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int("position", move.NewPosition),
	)

	err = s.store.UpdateTask(ctx, taskID, move.NewStatus, move.NewPosition)

	s.mu.Lock()
	s.finish()
	if err == nil {
		if s.applied == planned && !s.occupied(taskID, move.NewStatus, move.NewPosition) {
			if i := s.indexOf(taskID); i >= 0 {
				s.tasks[i].Status = move.NewStatus
				s.tasks[i].Position = move.NewPosition
			}
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		s.logger.Debug("board reloaded while move was pending", zap.String("task_id", taskID))
		if err := s.Load(ctx); err != nil {
			return nil
		}
		return s.reappend(ctx, taskID)
	}
	s.mu.Unlock()

	s.logger.Warn("failed to persist move, reloading board", zap.String("task_id", taskID), zap.Error(err))
	_ = s.Load(ctx)
	return err
}

// reappend moves a task that shares its position with another task of the
// same column to the end of that column.
func (s *Synchronizer) reappend(ctx context.Context, taskID string) error {
	s.mu.Lock()
	idx := s.indexOf(taskID)
	if idx < 0 || !s.occupied(taskID, s.tasks[idx].Status, s.tasks[idx].Position) {
		s.mu.Unlock()
		return nil
	}
	status := s.tasks[idx].Status
	position := model.Columns(s.tasks)[status].NextPosition()
	s.tasks[idx].Position = position
	s.begin()
	s.mu.Unlock()

	s.logger.Warn("task shares its position, appending again",
		zap.String("task_id", taskID),
		zap.String("status", string(status)),
		zap.Int("position", position),
	)

	err := s.store.UpdateTask(ctx, taskID, status, position)

	s.mu.Lock()
	s.finish()
	s.mu.Unlock()

	if err != nil {
		_ = s.Load(ctx)
		return err
	}
	return nil
}

// CreateTask appends a new task to the status column. The submitted position
// is read from the local view at call time; the board is refreshed once the
// store accepts the task.
func (s *Synchronizer) CreateTask(ctx context.Context, title string, status model.Status) (repo.Created, error) {
	if !status.Valid() {
		return repo.Created{}, fmt.Errorf("%w: %q", ordering.ErrInvalidStatus, status)
	}

	s.mu.Lock()
	if s.state != StateReady && s.state != StateMutating {
		state := s.state
		s.mu.Unlock()
		return repo.Created{}, fmt.Errorf("%w: %s", ErrNotReady, state)
	}
	position := model.Columns(s.tasks)[status].NextPosition()
	s.begin()
	s.mu.Unlock()

	created, err := s.store.CreateTask(ctx, model.Task{
		BoardID:  s.boardID,
		Title:    title,
		Status:   status,
		Position: position,
	})

	s.mu.Lock()
	s.finish()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("failed to create task", zap.String("title", title), zap.Error(err))
		return repo.Created{}, err
	}
	if created.Message == "" {
		created.Message = fmt.Sprintf("Task %q created in column %s!", title, status)
	}

	_ = s.Load(ctx)
	return created, nil
}

// DeleteTask removes a task through the store and refreshes the board. The
// remaining tasks of its column keep their positions.
func (s *Synchronizer) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	s.begin()
	s.mu.Unlock()

	err := s.store.DeleteTask(ctx, taskID)

	s.mu.Lock()
	s.finish()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("failed to delete task", zap.String("task_id", taskID), zap.Error(err))
		return err
	}

	_ = s.Load(ctx)
	return nil
}

// ColumnCount asks the store how many tasks the board holds in one column.
func (s *Synchronizer) ColumnCount(ctx context.Context, status model.Status) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %q", ordering.ErrInvalidStatus, status)
	}
	tasks, err := s.store.ListTasksByStatus(ctx, s.boardID, status)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func (s *Synchronizer) indexOf(taskID string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// occupied reports whether a task other than taskID holds (status, position);
// callers hold mu.
func (s *Synchronizer) occupied(taskID string, status model.Status, position int) bool {
	for _, t := range s.tasks {
		if t.ID != taskID && t.Status == status && t.Position == position {
			return true
		}
	}
	return false
}

// begin and finish bracket a persistence request; callers hold mu.
func (s *Synchronizer) begin() {
	s.inFlight++
	if s.state == StateReady {
		s.state = StateMutating
	}
}

func (s *Synchronizer) finish() {
	s.inFlight--
	if s.state == StateMutating || s.state == StateReady {
		s.settle()
	}
}

func (s *Synchronizer) settle() {
	if s.inFlight > 0 {
		s.state = StateMutating
		return
	}
	s.state = StateReady
}
