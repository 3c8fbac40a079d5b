// Package cache puts a Redis read-through layer in front of a TaskStore.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

// errStale aborts a refill whose board was evicted while the read was running.
var errStale = errors.New("board changed during read")

// Cache serves board reads from Redis and drops a board's entries on every
// write attempt against it, successful or not. Every eviction also bumps a
// generation counter; a read only fills the cache if the counter it saw before
// going to the base store is still current.
type Cache struct {
	base   repo.TaskStore
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func New(base repo.TaskStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if base == nil {
		panic("cache.New: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{base: base, redis: client, ttl: ttl, logger: logger}
}

func (c *Cache) ListTasks(ctx context.Context, boardID string) ([]model.Task, error) {
	key := boardKey(boardID)
	if tasks, ok := c.load(ctx, key); ok {
		return tasks, nil
	}

	gen := c.readGeneration(ctx, boardID)
	tasks, err := c.base.ListTasks(ctx, boardID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, boardID, gen, tasks)
	return tasks, nil
}

func (c *Cache) ListTasksByStatus(ctx context.Context, boardID string, status model.Status) ([]model.Task, error) {
	key := columnKey(boardID, status)
	if tasks, ok := c.load(ctx, key); ok {
		return tasks, nil
	}

	gen := c.readGeneration(ctx, boardID)
	tasks, err := c.base.ListTasksByStatus(ctx, boardID, status)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, boardID, gen, tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, t model.Task) (repo.Created, error) {
	created, err := c.base.CreateTask(ctx, t)
	c.evictBoard(ctx, t.BoardID)
	if err == nil && created.Task != nil && created.Task.ID != "" {
		c.index(ctx, t.BoardID, []model.Task{*created.Task})
	}
	return created, err
}

func (c *Cache) UpdateTask(ctx context.Context, id string, status model.Status, position int) error {
	err := c.base.UpdateTask(ctx, id, status, position)
	c.evictTask(ctx, id)
	return err
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	err := c.base.DeleteTask(ctx, id)
	c.evictTask(ctx, id)
	return err
}

func (c *Cache) load(ctx context.Context, key string) ([]model.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// ошибки redis не должны ломать чтение, идем в основное хранилище
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, true
}

// generation is the pair of eviction counters a read started under: the
// board's own and the one bumped when every board is dropped at once.
type generation struct {
	board, all string
	ok         bool
}

func (c *Cache) readGeneration(ctx context.Context, boardID string) generation {
	if c.redis == nil {
		return generation{}
	}
	vals, err := c.redis.MGet(ctx, genKey(boardID), allGenKey).Result()
	if err != nil {
		c.logger.Warn("cache generation read failed", zap.String("board_id", boardID), zap.Error(err))
		return generation{}
	}
	return generation{board: str(vals[0]), all: str(vals[1]), ok: true}
}

func (c *Cache) store(ctx context.Context, key, boardID string, gen generation, tasks []model.Task) {
	if c.redis == nil || c.ttl == 0 || !gen.ok {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}

	keys := []string{genKey(boardID), allGenKey}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		if str(vals[0]) != gen.board || str(vals[1]) != gen.all {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, keys...)
	switch {
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("board evicted during read, skipping cache fill", zap.String("key", key))
		return
	case err != nil:
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.index(ctx, boardID, tasks)
}

// index remembers which board each task belongs to, so that a write that
// only names a task id can still find the board entries to drop.
func (c *Cache) index(ctx context.Context, boardID string, tasks []model.Task) {
	if c.redis == nil || c.ttl == 0 || len(tasks) == 0 {
		return
	}
	_, err := c.redis.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, t := range tasks {
			p.Set(ctx, taskBoardKey(t.ID), boardID, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("cache index failed", zap.String("board_id", boardID), zap.Error(err))
	}
}

func (c *Cache) evictTask(ctx context.Context, taskID string) {
	if c.redis == nil {
		return
	}
	boardID, err := c.redis.Get(ctx, taskBoardKey(taskID)).Result()
	if err == nil && boardID != "" {
		c.evictBoard(ctx, boardID)
		return
	}
	// без индекса неизвестно, какой доске принадлежит задача
	c.evictAll(ctx)
}

func (c *Cache) evictBoard(ctx context.Context, boardID string) {
	if c.redis == nil {
		return
	}
	keys := []string{boardKey(boardID)}
	for _, s := range model.Statuses() {
		keys = append(keys, columnKey(boardID, s))
	}
	_, err := c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(boardID))
		p.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.logger.Warn("cache evict failed", zap.String("board_id", boardID), zap.Error(err))
	}
}

func (c *Cache) evictAll(ctx context.Context) {
	if err := c.redis.Incr(ctx, allGenKey).Err(); err != nil {
		c.logger.Warn("cache evict failed", zap.Error(err))
	}
	iter := c.redis.Scan(ctx, 0, "tasks:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", zap.Error(err))
	}
	if len(keys) > 0 {
		_ = c.redis.Del(ctx, keys...).Err()
	}
}

func boardKey(boardID string) string {
	return "tasks:" + boardID
}

func columnKey(boardID string, status model.Status) string {
	return "tasks:" + boardID + ":" + string(status)
}

func taskBoardKey(taskID string) string {
	return "taskboard:" + taskID
}

// Generation keys stay outside tasks:* so that evictAll never deletes them.
const allGenKey = "taskgen"

func genKey(boardID string) string {
	return "taskgen:" + boardID
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

var _ repo.TaskStore = (*Cache)(nil)
