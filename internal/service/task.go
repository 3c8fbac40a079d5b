package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	store  repo.TaskStore
	logger *zap.Logger
}

func NewTaskService(store repo.TaskStore, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{store: store, logger: logger}
}

func (s *TaskService) List(ctx context.Context, boardID string) ([]model.Task, error) {
	if strings.TrimSpace(boardID) == "" {
		return nil, fmt.Errorf("%w: board id is required", ErrValidation)
	}
	return s.store.ListTasks(ctx, boardID)
}

func (s *TaskService) ListByStatus(ctx context.Context, boardID, status string) ([]model.Task, error) {
	if strings.TrimSpace(boardID) == "" {
		return nil, fmt.Errorf("%w: board id is required", ErrValidation)
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.store.ListTasksByStatus(ctx, boardID, st)
}

func (s *TaskService) Create(ctx context.Context, t model.Task) (repo.Created, error) {
	t.Title = strings.TrimSpace(t.Title)
	if err := validateNew(t); err != nil { // Валидация модели на корректность введенных данных
		return repo.Created{}, err
	}

	created, err := s.store.CreateTask(ctx, t)
	if err != nil {
		return repo.Created{}, err
	}
	if created.Message == "" {
		created.Message = "Task created"
	}

	s.logger.Info("task created",
		zap.String("board_id", t.BoardID),
		zap.String("status", string(t.Status)),
		zap.Int("position", t.Position),
	)
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, id string, status model.Status, position int) error {
	if err := validatePlacement(status, position); err != nil {
		return err
	}
	return s.store.UpdateTask(ctx, id, status, position)
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

func validateNew(t model.Task) error {
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(t.BoardID) == "" {
		return fmt.Errorf("%w: board id is required", ErrValidation)
	}
	return validatePlacement(t.Status, t.Position)
}

func validatePlacement(status model.Status, position int) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status must be one of Todo, Doing, Done", ErrValidation)
	}
	if position < 0 {
		return fmt.Errorf("%w: position must not be negative", ErrValidation)
	}
	return nil
}
