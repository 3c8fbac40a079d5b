package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/kanban-board/internal/board"
	"github.com/BuzzLyutic/kanban-board/internal/model"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
)

func (a *app) taskCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "task",
		Short: "Add, move, remove and count tasks",
	}

	c.PersistentFlags().StringVarP(&a.boardID, "board", "b", "", "Board id (required)")
	_ = c.MarkPersistentFlagRequired("board")

	c.AddCommand(a.taskAddCmd(), a.taskMoveCmd(), a.taskRemoveCmd(), a.taskCountCmd())
	return c
}

func (a *app) taskAddCmd() *cobra.Command {
	var status string

	c := &cobra.Command{
		Use:   "add TITLE",
		Short: "Append a new task to a column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := model.ParseStatus(status)
			if err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title is required")
			}

			s, release, err := a.synchronizer(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			created, err := s.CreateTask(cmd.Context(), title, st)
			if err != nil {
				return fmt.Errorf("add task: %s", repo.Reason(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.Message)
			return nil
		},
	}

	c.Flags().StringVarP(&status, "status", "s", string(model.StatusTodo), "Column: Todo|Doing|Done")
	return c
}

func (a *app) taskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move TASK_ID STATUS",
		Short: "Move a task to the end of another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			to, err := model.ParseStatus(args[1])
			if err != nil {
				return err
			}

			s, release, err := a.synchronizer(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			from, ok := columnOf(s.View(), taskID)
			if !ok {
				return fmt.Errorf("task %s is not on board %s", taskID, a.boardID)
			}
			if from == to {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is already in %s\n", taskID, to)
				return nil
			}

			if err := s.MoveTask(cmd.Context(), taskID, from, to); err != nil {
				return fmt.Errorf("move task: %s", repo.Reason(err))
			}

			pos := -1
			if dest, ok := findTask(s.View()[to], taskID); ok {
				pos = dest.Position
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %s to %s at position %d\n", taskID, from, to, pos)
			return nil
		},
	}
}

func (a *app) taskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm TASK_ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := a.synchronizer(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := s.DeleteTask(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete task: %s", repo.Reason(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) taskCountCmd() *cobra.Command {
	var status string

	c := &cobra.Command{
		Use:   "count",
		Short: "Count the tasks of one column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := model.ParseStatus(status)
			if err != nil {
				return err
			}

			store, release, err := a.openStore(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer release()

			n, err := board.New(store, a.boardID, a.logger).ColumnCount(cmd.Context(), st)
			if err != nil {
				return fmt.Errorf("count tasks: %s", repo.Reason(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	c.Flags().StringVarP(&status, "status", "s", "", "Column: Todo|Doing|Done (required)")
	_ = c.MarkFlagRequired("status")
	return c
}

func columnOf(view map[model.Status]model.Column, taskID string) (model.Status, bool) {
	for status, col := range view {
		if _, ok := findTask(col, taskID); ok {
			return status, true
		}
	}
	return "", false
}

func findTask(col model.Column, taskID string) (model.Task, bool) {
	for _, t := range col {
		if t.ID == taskID {
			return t, true
		}
	}
	return model.Task{}, false
}
