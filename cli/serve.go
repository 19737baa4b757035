package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/api"
	"github.com/Shrikantlala24/flow-habit-alchemy/notify"
	"github.com/Shrikantlala24/flow-habit-alchemy/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the achievement watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	p, err := a.openProfile(ctx)
	if err != nil {
		return err
	}
	defer p.close()

	rc := p.redis
	if rc == nil && cfg.RedisConnectionString != "" {
		if rc, err = storage.NewRedisClient(cfg.RedisConnectionString); err != nil {
			return err
		}
		defer rc.Close()
	}

	opts := api.Options{
		StreamInterval: cfg.AchievementPollInterval,
		RecentWindow:   cfg.AchievementWindow,
	}
	if rc != nil {
		opts.Deduper = api.NewRedisDeduper(rc, cfg.DeduperTTL)
	}
	if habits := a.habitStore(ctx, rc); habits != nil {
		opts.Habits = habits
	}

	watcher := notify.NewWatcher(p.svc, notify.Config{
		Interval: cfg.AchievementPollInterval,
		Window:   cfg.AchievementWindow,
	}, logger, a.notifySinks(ctx, rc)...)
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("achievement watcher stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "Idempotency-Key"},
	}))
	api.Register(e, p.svc, opts, logger)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			logger.WithError(err).Warn("server shutdown")
		}
	}()

	logger.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// habitStore returns nil when no table is configured or it cannot be reached;
// the habit routes then answer 503.
func (a *app) habitStore(ctx context.Context, rc *redis.Client) api.HabitStore {
	cfg, logger := a.cfg, a.logger
	if cfg.StorageConnectionString == "" {
		return nil
	}
	table, err := storage.NewTableHabits(cfg.StorageConnectionString, cfg.HabitsTable)
	if err == nil {
		err = table.EnsureTable(ctx)
	}
	if err != nil {
		logger.WithError(err).WithField("table", cfg.HabitsTable).Warn("habit store unavailable")
		return nil
	}
	if rc != nil && cfg.HabitsCacheTTL > 0 {
		return storage.NewHabitCache(table, rc, cfg.HabitsCacheTTL)
	}
	return table
}

func (a *app) notifySinks(ctx context.Context, rc *redis.Client) []notify.Sink {
	cfg, logger := a.cfg, a.logger
	sinks := []notify.Sink{notify.LogSink{Logger: logger}}
	if rc != nil && cfg.NotifyChannel != "" {
		sinks = append(sinks, notify.NewRedisSink(rc, cfg.NotifyChannel))
	}
	if cfg.StorageConnectionString != "" && cfg.NotifyQueue != "" {
		sink, q, err := notify.NewQueueSink(cfg.StorageConnectionString, cfg.NotifyQueue)
		if err == nil {
			err = notify.EnsureQueue(ctx, q)
		}
		if err != nil {
			logger.WithError(err).WithField("queue", cfg.NotifyQueue).Warn("notification queue unavailable")
		} else {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
