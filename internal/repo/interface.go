package repo

import (
	"context"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

// Created is the store's reply to a create call. Task is nil when the
// backend only acknowledged the write.
type Created struct {
	Task    *model.Task `json:"task,omitempty"`
	Message string      `json:"message,omitempty"`
}

// TaskStore определяет интерфейс хранилища задач доски
type TaskStore interface {
	ListTasks(ctx context.Context, boardID string) ([]model.Task, error)
	ListTasksByStatus(ctx context.Context, boardID string, status model.Status) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (Created, error)
	UpdateTask(ctx context.Context, id string, status model.Status, position int) error
	DeleteTask(ctx context.Context, id string) error
}
