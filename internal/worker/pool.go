package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/board"
)

// Board is the part of a board.Synchronizer the refresher drives.
type Board interface {
	BoardID() string
	State() board.State
	Load(ctx context.Context) error
}

// Refresher periodically reloads registered boards on a small pool of
// workers. A board with a mutation or a load in flight is skipped for that
// tick.
type Refresher struct {
	logger   *zap.Logger
	interval time.Duration
	count    int

	mu     sync.Mutex
	boards []Board
	onLoad func(boardID string, err error)

	jobs     chan Board
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRefresher(logger *zap.Logger, interval time.Duration, count int) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if count < 1 {
		count = 1
	}
	return &Refresher{
		logger:   logger,
		interval: interval,
		count:    count,
		jobs:     make(chan Board),
		stop:     make(chan struct{}),
	}
}

func (p *Refresher) Add(b Board) {
	p.mu.Lock()
	p.boards = append(p.boards, b)
	p.mu.Unlock()
}

// OnLoad registers a callback run after every background load.
func (p *Refresher) OnLoad(fn func(boardID string, err error)) {
	p.mu.Lock()
	p.onLoad = fn
	p.mu.Unlock()
}

func (p *Refresher) Start(ctx context.Context) {
	p.logger.Info("Starting board refresher",
		zap.Int("workers", p.count),
		zap.Duration("interval", p.interval),
	)

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.wg.Add(1)
	go p.schedule(ctx)
}

func (p *Refresher) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping board refresher...")
		close(p.stop)
	})
	p.wg.Wait()
	p.logger.Info("Board refresher stopped")
}

func (p *Refresher) schedule(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.dispatch(ctx) {
				return
			}
		}
	}
}

// dispatch hands every idle board to the workers. It returns false once the
// refresher is shutting down.
func (p *Refresher) dispatch(ctx context.Context) bool {
	p.mu.Lock()
	boards := append([]Board(nil), p.boards...)
	p.mu.Unlock()

	for _, b := range boards {
		switch b.State() {
		case board.StateMutating, board.StateLoading:
			p.logger.Debug("board busy, skipping refresh", zap.String("board_id", b.BoardID()))
			continue
		}

		select {
		case p.jobs <- b:
		case <-p.stop:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (p *Refresher) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case b := <-p.jobs:
			p.refresh(ctx, id, b)
		}
	}
}

func (p *Refresher) refresh(ctx context.Context, workerID int, b Board) {
	start := time.Now()
	err := b.Load(ctx)
	if err != nil {
		p.logger.Warn("background refresh failed",
			zap.Int("worker", workerID),
			zap.String("board_id", b.BoardID()),
			zap.Error(err),
		)
	} else {
		p.logger.Debug("board refreshed",
			zap.Int("worker", workerID),
			zap.String("board_id", b.BoardID()),
			zap.Duration("took", time.Since(start)),
		)
	}

	p.mu.Lock()
	fn := p.onLoad
	p.mu.Unlock()
	if fn != nil {
		fn(b.BoardID(), err)
	}
}
