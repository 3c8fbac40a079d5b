package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

// MockTaskStore - мок хранилища задач
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) ListTasks(ctx context.Context, boardID string) ([]model.Task, error) {
	args := m.Called(ctx, boardID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskStore) ListTasksByStatus(ctx context.Context, boardID string, status model.Status) ([]model.Task, error) {
	args := m.Called(ctx, boardID, status)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskStore) CreateTask(ctx context.Context, t model.Task) (repo.Created, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(repo.Created), args.Error(1)
}

func (m *MockTaskStore) UpdateTask(ctx context.Context, id string, status model.Status, position int) error {
	args := m.Called(ctx, id, status, position)
	return args.Error(0)
}

func (m *MockTaskStore) DeleteTask(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		task      model.Task
		setupMock func(*MockTaskStore)
		wantMsg   string
		wantErr   error
	}{
		{
			name: "successful creation",
			task: model.Task{BoardID: "b1", Title: "  Write docs ", Status: model.StatusTodo, Position: 2},
			setupMock: func(m *MockTaskStore) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
					return t.Title == "Write docs" && t.Position == 2
				})).Return(repo.Created{Task: &model.Task{ID: "t1", Title: "Write docs"}}, nil)
			},
			wantMsg: "Task created",
		},
		{
			name: "store message is kept",
			task: model.Task{BoardID: "b1", Title: "x", Status: model.StatusDone},
			setupMock: func(m *MockTaskStore) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(repo.Created{Message: "Added"}, nil)
			},
			wantMsg: "Added",
		},
		{
			name:      "validation error - blank title",
			task:      model.Task{BoardID: "b1", Title: "   ", Status: model.StatusTodo},
			setupMock: func(m *MockTaskStore) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - no board",
			task:      model.Task{Title: "x", Status: model.StatusTodo},
			setupMock: func(m *MockTaskStore) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - invalid status",
			task:      model.Task{BoardID: "b1", Title: "x", Status: "Blocked"},
			setupMock: func(m *MockTaskStore) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - negative position",
			task:      model.Task{BoardID: "b1", Title: "x", Status: model.StatusTodo, Position: -1},
			setupMock: func(m *MockTaskStore) {},
			wantErr:   ErrValidation,
		},
		{
			name: "store failure",
			task: model.Task{BoardID: "b1", Title: "x", Status: model.StatusTodo},
			setupMock: func(m *MockTaskStore) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(repo.Created{}, repo.ErrorConflict)
			},
			wantErr: repo.ErrorConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockTaskStore)
			tt.setupMock(store)
			svc := NewTaskService(store, nil)

			got, err := svc.Create(context.Background(), tt.task)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMsg, got.Message)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	tests := []struct {
		name      string
		status    model.Status
		position  int
		setupMock func(*MockTaskStore)
		wantErr   error
	}{
		{
			name: "success", status: model.StatusDoing, position: 0,
			setupMock: func(m *MockTaskStore) {
				m.On("UpdateTask", mock.Anything, "t1", model.StatusDoing, 0).Return(nil)
			},
		},
		{
			name: "not found", status: model.StatusDone, position: 3,
			setupMock: func(m *MockTaskStore) {
				m.On("UpdateTask", mock.Anything, "t1", model.StatusDone, 3).Return(repo.ErrorNotFound)
			},
			wantErr: repo.ErrorNotFound,
		},
		{name: "invalid status", status: "Archived", setupMock: func(m *MockTaskStore) {}, wantErr: ErrValidation},
		{name: "negative position", status: model.StatusTodo, position: -2, setupMock: func(m *MockTaskStore) {}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockTaskStore)
			tt.setupMock(store)

			err := NewTaskService(store, nil).Update(context.Background(), "t1", tt.status, tt.position)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestTaskService_ListByStatus(t *testing.T) {
	store := new(MockTaskStore)
	store.On("ListTasksByStatus", mock.Anything, "b1", model.StatusDone).
		Return([]model.Task{{ID: "t1", Status: model.StatusDone}}, nil)
	svc := NewTaskService(store, nil)

	tasks, err := svc.ListByStatus(context.Background(), "b1", "Done")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	_, err = svc.ListByStatus(context.Background(), "b1", "done")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.List(context.Background(), " ")
	assert.ErrorIs(t, err, ErrValidation)

	store.AssertExpectations(t)
}

func TestTaskService_Delete(t *testing.T) {
	store := new(MockTaskStore)
	store.On("DeleteTask", mock.Anything, "missing").Return(repo.ErrorNotFound)

	err := NewTaskService(store, nil).Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, repo.ErrorNotFound)
	store.AssertExpectations(t)
}
