package handler

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/auth"
	"github.com/BuzzLyutic/kanban-board/internal/board"
	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
	"github.com/BuzzLyutic/kanban-board/internal/repo/cache"
	"github.com/BuzzLyutic/kanban-board/internal/repo/httpstore"
	"github.com/BuzzLyutic/kanban-board/internal/service"
	"github.com/BuzzLyutic/kanban-board/internal/testutil"
)

const e2eBoard = "board-e2e"

// setupE2E поднимает API поверх Postgres и возвращает хранилище задач так,
// как его видит клиент доски: HTTP с токеном и кэш в Redis.
func setupE2E(t *testing.T) (*pgxpool.Pool, repo.TaskStore, func()) {
	pool, cleanup := testutil.SetupTestDB(t)
	testutil.TruncateTables(t, pool)

	logger := zap.NewNop()
	verifier := auth.NewVerifier("e2e-secret")
	h := NewTaskHandler(service.NewTaskService(repo.NewTaskRepo(pool), logger), logger)
	server := httptest.NewServer(NewRouter(h, verifier, logger))

	token, err := verifier.Issue("user-1", time.Hour)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := httpstore.New(server.URL,
		httpstore.WithHTTPClient(server.Client()),
		httpstore.WithSession(auth.NewSession(token, nil, logger)),
	)
	store := cache.New(client, rdb, time.Minute, logger)

	return pool, store, func() {
		_ = rdb.Close()
		server.Close()
		cleanup()
	}
}

func columnPositions(col model.Column) []int {
	out := make([]int, 0, len(col))
	for _, t := range col {
		out = append(out, t.Position)
	}
	return out
}

func TestE2E_BoardWorkflow(t *testing.T) {
	pool, store, cleanup := setupE2E(t)
	defer cleanup()
	ctx := context.Background()

	todo := testutil.SeedColumn(t, pool, e2eBoard, "Todo", 3)
	testutil.SeedColumn(t, pool, e2eBoard, "Done", 1)

	s := board.New(store, e2eBoard, zap.NewNop())
	require.NoError(t, s.Load(ctx))
	require.Equal(t, board.StateReady, s.State())

	t.Run("move appends to destination", func(t *testing.T) {
		require.NoError(t, s.MoveTask(ctx, todo[0], model.StatusTodo, model.StatusDone))

		view := s.View()
		assert.Len(t, view[model.StatusTodo], 2)
		require.Len(t, view[model.StatusDone], 2)
		assert.Equal(t, todo[0], view[model.StatusDone][1].ID)
		assert.Equal(t, 1, view[model.StatusDone][1].Position)

		// сервер видит то же самое
		require.NoError(t, s.Load(ctx))
		done := s.View()[model.StatusDone]
		assert.Equal(t, []int{0, 1}, columnPositions(done))
		assert.Equal(t, todo[0], done[1].ID)
	})

	t.Run("create uses current column length", func(t *testing.T) {
		created, err := s.CreateTask(ctx, "Write release notes", model.StatusDoing)
		require.NoError(t, err)
		require.NotNil(t, created.Task)
		assert.Equal(t, 0, created.Task.Position)
		assert.Equal(t, "Task created", created.Message)

		doing := s.View()[model.StatusDoing]
		require.Len(t, doing, 1)
		assert.Equal(t, "Write release notes", doing[0].Title)

		n, err := s.ColumnCount(ctx, model.StatusDoing)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("failed move reloads from the store", func(t *testing.T) {
		victim := todo[1]
		_, err := pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1::uuid", victim)
		require.NoError(t, err)

		err = s.MoveTask(ctx, victim, model.StatusTodo, model.StatusDoing)

		assert.ErrorIs(t, err, repo.ErrUpdateFailed)
		assert.Equal(t, "Task not found", repo.Reason(err))
		assert.Equal(t, board.StateReady, s.State())
		for _, col := range s.View() {
			for _, task := range col {
				assert.NotEqual(t, victim, task.ID)
			}
		}
	})

	t.Run("delete keeps remaining positions", func(t *testing.T) {
		require.NoError(t, s.DeleteTask(ctx, todo[2]))

		view := s.View()
		assert.Empty(t, view[model.StatusTodo])
		assert.Equal(t, []int{0, 1}, columnPositions(view[model.StatusDone]))
	})
}

func TestE2E_ConcurrentMovesKeepPositionsUnique(t *testing.T) {
	pool, store, cleanup := setupE2E(t)
	defer cleanup()
	ctx := context.Background()

	ids := testutil.SeedColumn(t, pool, e2eBoard, "Todo", 8)

	s := board.New(store, e2eBoard, zap.NewNop())
	require.NoError(t, s.Load(ctx))

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- s.MoveTask(ctx, id, model.StatusTodo, model.StatusDoing)
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, testutil.WaitForCondition(t, 2*time.Second, func() bool {
		return s.State() == board.StateReady
	}))

	require.NoError(t, s.Load(ctx))
	doing := s.View()[model.StatusDoing]
	require.Len(t, doing, len(ids))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, columnPositions(doing))
}
