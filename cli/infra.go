package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/notify"
	"github.com/Shrikantlala24/flow-habit-alchemy/storage"
)

var errNoStorageConnection = errors.New("storage_connection_string is not configured")

func newInitStorageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-storage",
		Short: "Create the habits table and notification queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.initStorage(cmd.Context())
		},
	}
}

func (a *app) initStorage(ctx context.Context) error {
	cfg := a.cfg
	if cfg.StorageConnectionString == "" {
		return errNoStorageConnection
	}
	a.logger.Info("storage init starting")

	table, err := storage.NewTableHabits(cfg.StorageConnectionString, cfg.HabitsTable)
	if err != nil {
		return fmt.Errorf("habits table: %w", err)
	}
	if err := table.EnsureTable(ctx); err != nil {
		return fmt.Errorf("create table %s: %w", cfg.HabitsTable, err)
	}
	a.logger.WithField("table", cfg.HabitsTable).Info("table ready")

	if cfg.NotifyQueue != "" {
		_, q, err := notify.NewQueueSink(cfg.StorageConnectionString, cfg.NotifyQueue)
		if err != nil {
			return fmt.Errorf("notification queue: %w", err)
		}
		if err := notify.EnsureQueue(ctx, q); err != nil {
			return fmt.Errorf("create queue %s: %w", cfg.NotifyQueue, err)
		}
		a.logger.WithField("queue", cfg.NotifyQueue).Info("queue ready")
	}
	a.logger.Info("storage init complete")
	return nil
}

func newNotificationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Print achievement notifications from the notification queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cfg.StorageConnectionString == "" {
				return errNoStorageConnection
			}
			if cfg.NotifyQueue == "" {
				return errors.New("notify_queue is not configured")
			}
			_, q, err := notify.NewQueueSink(cfg.StorageConnectionString, cfg.NotifyQueue)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			consumer := notify.NewConsumer(notify.NewAzureQueue(q), a.logger)
			err = consumer.Run(ctx, func(_ context.Context, n notify.Notification) error {
				fmt.Fprintf(w, "%s %s %s %s\n", n.Icon, goodStyle.Render("Achievement unlocked:"), n.Title,
					mutedStyle.Render(n.UnlockedAt.Local().Format("2006-01-02 15:04")))
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// logLevelFor keeps long-running commands chatty and one-shot commands quiet.
func logLevelFor(name string, debug bool) log.Level {
	switch {
	case debug:
		return log.DebugLevel
	case name == "serve" || name == "init-storage" || name == "notifications":
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}
