package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

const taskColumns = `id::text, board_id, title, status, position, created_at, updated_at`

type TaskRepo struct { // Репозиторий задач поверх Postgres
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) CreateTask(ctx context.Context, t model.Task) (Created, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, board_id, title, status, position)
		VALUES ($1::uuid, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		uuid.NewString(), t.BoardID, t.Title, string(t.Status), t.Position,
	).Scan(scanTargets(&t)...)
	if err != nil {
		return Created{}, r.mapError(err)
	}
	return Created{Task: &t}, nil
}

func (r *TaskRepo) GetTask(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1::uuid
	`, id).Scan(scanTargets(&t)...)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, r.mapError(err)
}

func (r *TaskRepo) ListTasks(ctx context.Context, boardID string) ([]model.Task, error) {
	return r.list(ctx, model.TaskFilter{BoardID: boardID})
}

func (r *TaskRepo) ListTasksByStatus(ctx context.Context, boardID string, status model.Status) ([]model.Task, error) {
	return r.list(ctx, model.TaskFilter{BoardID: boardID, Status: &status})
}

func (r *TaskRepo) list(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE board_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY status, position, id
	`, filter.BoardID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(scanTargets(&t)...); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) UpdateTask(ctx context.Context, id string, status model.Status, position int) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET status = $2, position = $3, updated_at = now()
		WHERE id = $1::uuid
	`, id, string(status), position)
	if err != nil {
		return r.mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) DeleteTask(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1::uuid", id)
	if err != nil {
		return r.mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func scanTargets(t *model.Task) []any {
	return []any{&t.ID, &t.BoardID, &t.Title, &t.Status, &t.Position, &t.CreatedAt, &t.UpdatedAt}
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrorConflict
		case "22P02": // id is not a uuid, so no such row can exist
			return ErrorNotFound
		}
	}
	return err
}
