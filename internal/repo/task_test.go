package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/testutil"
)

func TestTaskRepo(t *testing.T) {
	pool, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	repo := NewTaskRepo(pool)
	ctx := context.Background()

	t.Run("create returns stored task", func(t *testing.T) {
		testutil.TruncateTables(t, pool)

		created, err := repo.CreateTask(ctx, model.Task{
			BoardID:  "board-1",
			Title:    "Write spec",
			Status:   model.StatusTodo,
			Position: 3,
		})
		require.NoError(t, err)
		require.NotNil(t, created.Task)
		assert.NotEmpty(t, created.Task.ID)
		assert.Equal(t, model.StatusTodo, created.Task.Status)
		assert.Equal(t, 3, created.Task.Position)
		assert.False(t, created.Task.CreatedAt.IsZero())
	})

	t.Run("list is scoped to the board", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		testutil.SeedColumn(t, pool, "board-1", "Todo", 2)
		testutil.SeedColumn(t, pool, "board-1", "Doing", 1)
		testutil.SeedColumn(t, pool, "board-2", "Todo", 4)

		tasks, err := repo.ListTasks(ctx, "board-1")
		require.NoError(t, err)
		assert.Len(t, tasks, 3)

		todo, err := repo.ListTasksByStatus(ctx, "board-1", model.StatusTodo)
		require.NoError(t, err)
		require.Len(t, todo, 2)
		assert.Equal(t, 0, todo[0].Position)
		assert.Equal(t, 1, todo[1].Position)

		empty, err := repo.ListTasks(ctx, "missing")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("update moves task between columns", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		ids := testutil.SeedColumn(t, pool, "board-1", "Todo", 2)

		require.NoError(t, repo.UpdateTask(ctx, ids[0], model.StatusDoing, 0))

		got, err := repo.GetTask(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, model.StatusDoing, got.Status)
		assert.Equal(t, 0, got.Position)
	})

	t.Run("update and delete of unknown ids", func(t *testing.T) {
		testutil.TruncateTables(t, pool)

		assert.ErrorIs(t, repo.UpdateTask(ctx, "00000000-0000-0000-0000-000000000000", model.StatusDone, 0), ErrorNotFound)
		assert.ErrorIs(t, repo.UpdateTask(ctx, "not-a-uuid", model.StatusDone, 0), ErrorNotFound)
		assert.ErrorIs(t, repo.DeleteTask(ctx, "00000000-0000-0000-0000-000000000000"), ErrorNotFound)
	})

	t.Run("delete leaves a gap", func(t *testing.T) {
		testutil.TruncateTables(t, pool)
		ids := testutil.SeedColumn(t, pool, "board-1", "Done", 3)

		require.NoError(t, repo.DeleteTask(ctx, ids[1]))

		done, err := repo.ListTasksByStatus(ctx, "board-1", model.StatusDone)
		require.NoError(t, err)
		require.Len(t, done, 2)
		assert.Equal(t, 0, done[0].Position)
		assert.Equal(t, 2, done[1].Position)
	})
}
