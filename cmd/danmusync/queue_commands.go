package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"danmusync/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage search tasks",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueMarkCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List search tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg.QueueDBPath())
			if err != nil {
				return fmt.Errorf("open queue: %w", err)
			}
			defer store.Close()

			tasks, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}

			if filter := strings.TrimSpace(statusFilter); filter != "" {
				wanted := queue.Status(filter)
				filtered := tasks[:0:0]
				for _, task := range tasks {
					if task.Status == wanted {
						filtered = append(filtered, task)
					}
				}
				tasks = filtered
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No search tasks queued.")
				return nil
			}

			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				rows = append(rows, []string{
					task.ID,
					task.Title,
					formatLocation(task.Season, task.Episode),
					task.MediaType,
					task.IDs.Summary(),
					string(task.Status),
					task.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			headers := []string{"ID", "Title", "Location", "Type", "Identifiers", "Status", "Created"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Fprintf(out, "%d task(s)\n", len(tasks))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show tasks with this status")
	return cmd
}

func newQueueMarkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <task-id> <status>",
		Short: "Set the status of a search task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := queue.Status(strings.TrimSpace(args[1]))
			switch status {
			case queue.StatusPending, queue.StatusDispatched, queue.StatusCompleted, queue.StatusFailed:
			default:
				return fmt.Errorf("unknown status %q", args[1])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg.QueueDBPath())
			if err != nil {
				return fmt.Errorf("open queue: %w", err)
			}
			defer store.Close()

			if err := store.UpdateStatus(cmd.Context(), args[0], status); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s marked %s\n", args[0], status)
			return nil
		},
	}
}

func formatLocation(season, episode int) string {
	if season < 0 {
		return "E" + strconv.Itoa(episode)
	}
	return fmt.Sprintf("S%02dE%02d", season, episode)
}
