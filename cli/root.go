// Package cli is the flowhabit command line: the HTTP server plus local
// task, stats, focus and preference commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/config"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
	"github.com/Shrikantlala24/flow-habit-alchemy/storage"
)

const Version = "0.1.0"

type app struct {
	cfgFile string
	cfg     config.Config
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "flowhabit",
		Short:         "Flow Habit: tasks, streaks, levels and a focus timer",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ~/.config/flowhabit/config.json)")

	root.AddCommand(
		newServeCmd(a),
		newTaskCmd(a),
		newStatsCmd(a),
		newFocusCmd(a),
		newPrefsCmd(a),
		newInitStorageCmd(a),
		newNotificationsCmd(a),
	)
	return root
}

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, badStyle.Render(iconError+" "+err.Error()))
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = log.New()
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.logger.SetLevel(logLevelFor(cmd.Name(), cfg.Debug))
	return nil
}

// profile is an opened blob backend with the service on top of it.
type profile struct {
	svc   *progression.Service
	redis *redis.Client
	close func()
}

func (a *app) openProfile(ctx context.Context) (*profile, error) {
	p := &profile{close: func() {}}
	var blobs storage.Blobs

	switch a.cfg.StoreBackend {
	case config.BackendRedis:
		rc, err := storage.NewRedisClient(a.cfg.RedisConnectionString)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		p.redis = rc
		p.close = func() { _ = rc.Close() }
		blobs = storage.NewRedisBlobs(rc)
	case config.BackendSQLite:
		path := a.cfg.SQLitePath
		if path == "" {
			var err error
			if path, err = storage.DefaultSQLitePath(); err != nil {
				return nil, err
			}
		}
		db, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		p.close = func() { _ = db.Close() }
		blobs = db
	default:
		return nil, errors.New("unknown store backend " + a.cfg.StoreBackend)
	}

	st := storage.NewStore(blobs, a.cfg.KeyPrefix, a.logger)
	p.svc = progression.NewService(st,
		progression.WithLocation(a.cfg.Location),
		progression.WithLogger(a.logger),
	)
	return p, nil
}

// withService opens the profile for the duration of fn.
func (a *app) withService(ctx context.Context, fn func(*progression.Service) error) error {
	p, err := a.openProfile(ctx)
	if err != nil {
		return err
	}
	defer p.close()
	return fn(p.svc)
}
