package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/worker"
)

func (a *app) boardCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "board",
		Short: "Show a board",
	}

	c.PersistentFlags().StringVarP(&a.boardID, "board", "b", "", "Board id (required)")
	_ = c.MarkPersistentFlagRequired("board")

	c.AddCommand(a.boardShowCmd(), a.boardWatchCmd())
	return c
}

func (a *app) boardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board grouped into columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, release, err := a.synchronizer(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return RenderBoard(cmd.OutOrStdout(), a.boardID, s.View(), a.format)
		},
	}
}

func (a *app) boardWatchCmd() *cobra.Command {
	var interval time.Duration

	c := &cobra.Command{
		Use:   "watch",
		Short: "Print the board and reprint it on every background refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, release, err := a.synchronizer(ctx)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			if err := RenderBoard(out, a.boardID, s.View(), a.format); err != nil {
				return err
			}

			if interval <= 0 {
				interval = a.cfg.RefreshInterval
			}
			refresher := worker.NewRefresher(a.logger, interval, 1)
			refresher.Add(s)
			refresher.OnLoad(func(boardID string, err error) {
				if err != nil {
					fmt.Fprintf(out, "\nrefresh failed: %s\n", err)
					return
				}
				fmt.Fprintf(out, "\n--- %s\n", time.Now().Format(time.TimeOnly))
				if err := RenderBoard(out, boardID, s.View(), a.format); err != nil {
					a.logger.Error("render failed", zap.Error(err))
				}
			})
			refresher.Start(ctx)

			<-ctx.Done()
			refresher.Stop()
			return nil
		},
	}

	c.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default refresh_interval from config)")
	return c
}
