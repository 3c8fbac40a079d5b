// Package cli is the kanban command line: a terminal front-end that drives a
// board.Synchronizer against the task API.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/auth"
	"github.com/BuzzLyutic/kanban-board/internal/board"
	"github.com/BuzzLyutic/kanban-board/internal/config"
	"github.com/BuzzLyutic/kanban-board/internal/logging"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
	"github.com/BuzzLyutic/kanban-board/internal/repo/cache"
	"github.com/BuzzLyutic/kanban-board/internal/repo/httpstore"
)

// StoreFactory opens the Task Store the commands talk to. The returned func
// releases it.
type StoreFactory func(cfg config.Config, logger *zap.Logger) (repo.TaskStore, func(), error)

type app struct {
	openStore StoreFactory

	cfgPath string
	format  string
	verbose bool
	boardID string

	cfg    config.Config
	logger *zap.Logger
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(OpenStore).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd(openStore StoreFactory) *cobra.Command {
	a := &app{openStore: openStore}

	cmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Kanban board in the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "TOML config file (default $KANBAN_CONFIG)")
	cmd.PersistentFlags().StringVar(&a.format, "format", FormatText, "Output format: text|json|yaml")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging to stderr")

	cmd.AddCommand(a.boardCmd(), a.taskCmd())
	return cmd
}

func (a *app) init() error {
	path := a.cfgPath
	if path == "" {
		path = os.Getenv("KANBAN_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.LogLevel, a.verbose)
	return err
}

// synchronizer opens the store and loads the board named by --board.
func (a *app) synchronizer(ctx context.Context) (*board.Synchronizer, func(), error) {
	store, release, err := a.openStore(a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	s := board.New(store, a.boardID, a.logger)
	if err := s.Load(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("load board %s: %s", a.boardID, repo.Reason(err))
	}
	return s, release, nil
}

// OpenStore talks to BACKEND_URL with the configured access token, behind a
// Redis cache when REDIS_URL is set.
func OpenStore(cfg config.Config, logger *zap.Logger) (repo.TaskStore, func(), error) {
	hc := httpstore.DefaultConfig()
	hc.Timeout = cfg.RequestTimeout

	session := auth.NewSession(cfg.AccessToken, &auth.HTTPRefresher{
		BaseURL: cfg.BackendURL,
		Client:  httpstore.NewHTTPClient(hc),
	}, logger)

	var store repo.TaskStore = httpstore.New(cfg.BackendURL,
		httpstore.WithHTTPClient(httpstore.NewHTTPClient(hc)),
		httpstore.WithSession(session),
		httpstore.WithLogger(logger),
	)

	if cfg.RedisURL == "" {
		return store, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return cache.New(store, rdb, cfg.CacheTTL, logger), func() { _ = rdb.Close() }, nil
}
