package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

// ErrBlobNotFound is returned by a Blobs backend when a key has never been set.
var ErrBlobNotFound = errors.New("storage: blob not found")

const (
	DefaultKeyPrefix = "flowHabit_"

	tasksKey       = "tasks"
	statsKey       = "userStats"
	preferencesKey = "userPreferences"
)

// Blobs is a key-value backend holding whole serialized documents.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store persists the task list, the stats snapshot and the preferences of one
// profile as three independent blobs. Absent or unparsable blobs load as
// defaults; backend errors are returned.
type Store struct {
	blobs  Blobs
	prefix string
	log    *log.Logger
}

func NewStore(blobs Blobs, prefix string, logger *log.Logger) *Store {
	if blobs == nil {
		panic("storage.NewStore: blobs is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{blobs: blobs, prefix: prefix, log: logger}
}

func (s *Store) key(name string) string { return s.prefix + name }

// load decodes the blob at name into v. It reports false when the blob is
// missing or corrupt so the caller substitutes its default.
func (s *Store) load(ctx context.Context, name string, v any) (bool, error) {
	data, err := s.blobs.Get(ctx, s.key(name))
	if errors.Is(err, ErrBlobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", s.key(name), err)
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		s.log.WithError(err).WithField("key", s.key(name)).Warn("discarding unparsable blob")
		return false, nil
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key(name), err)
	}
	if err := s.blobs.Set(ctx, s.key(name), data); err != nil {
		return fmt.Errorf("set %s: %w", s.key(name), err)
	}
	return nil
}

func (s *Store) LoadTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	ok, err := s.load(ctx, tasksKey, &tasks)
	if err != nil {
		return nil, err
	}
	if !ok || tasks == nil {
		return []domain.Task{}, nil
	}
	for i := range tasks {
		if tasks[i].Subtasks == nil {
			tasks[i].Subtasks = []domain.Subtask{}
		}
	}
	return tasks, nil
}

func (s *Store) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return s.save(ctx, tasksKey, tasks)
}

func (s *Store) LoadStats(ctx context.Context) (domain.UserStats, error) {
	var stats domain.UserStats
	ok, err := s.load(ctx, statsKey, &stats)
	if err != nil {
		return domain.UserStats{}, err
	}
	if !ok {
		return domain.DefaultStats(), nil
	}
	stats.Normalize()
	return stats, nil
}

func (s *Store) SaveStats(ctx context.Context, stats domain.UserStats) error {
	return s.save(ctx, statsKey, stats)
}

func (s *Store) LoadPreferences(ctx context.Context) (domain.UserPreferences, error) {
	prefs := domain.DefaultPreferences()
	ok, err := s.load(ctx, preferencesKey, &prefs)
	if err != nil {
		return domain.UserPreferences{}, err
	}
	if !ok || prefs.Validate() != nil {
		return domain.DefaultPreferences(), nil
	}
	return prefs, nil
}

func (s *Store) SavePreferences(ctx context.Context, prefs domain.UserPreferences) error {
	return s.save(ctx, preferencesKey, prefs)
}
