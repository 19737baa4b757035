package api

import (
	"context"
	"time"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
)

// Engine is the progression surface served by the task, stats, focus and
// preferences routes.
type Engine interface {
	Tasks(ctx context.Context) ([]domain.Task, error)
	SaveTask(ctx context.Context, task domain.Task) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	CompleteTask(ctx context.Context, id string) (progression.CompleteResult, error)
	UncompleteTask(ctx context.Context, id string) (bool, error)
	ToggleSubtask(ctx context.Context, taskID, subtaskID string, completed bool) (bool, error)
	AddFocusTime(ctx context.Context, minutes int) (progression.FocusResult, error)
	Stats(ctx context.Context) (domain.UserStats, error)
	Preferences(ctx context.Context) (domain.UserPreferences, error)
	SavePreferences(ctx context.Context, prefs domain.UserPreferences) error
	RecentUnlocks(ctx context.Context, since time.Time) ([]domain.Achievement, error)
	Now() time.Time
}

// HabitStore abstracts persistence for the habit routes.
type HabitStore interface {
	ListHabits(ctx context.Context) ([]domain.Habit, error)
	CreateHabit(ctx context.Context, h domain.Habit) error
	DeleteHabit(ctx context.Context, id string) error
}

// Deduper prevents processing of duplicate requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, scope, key string) (bool, error)
	// Remove deletes a previously added key, used when processing fails.
	Remove(ctx context.Context, scope, key string) error
}

// Options configures the optional collaborators of the API.
type Options struct {
	// Habits is nil when the habit store could not be reached at startup.
	Habits  HabitStore
	Deduper Deduper
	// StreamInterval is the poll period of the achievement stream.
	StreamInterval time.Duration
	// RecentWindow is how far back the recent-achievement routes look.
	RecentWindow time.Duration
}

const (
	defaultStreamInterval = 5 * time.Second
	defaultRecentWindow   = 10 * time.Second
	maxBodySize           = 64 * 1024 // 64 KiB
)

type messageResponse struct {
	Message string `json:"message"`
}

type subtaskRequest struct {
	Completed bool `json:"completed"`
}

type focusRequest struct {
	Minutes        *int `json:"minutes,omitempty"`
	ElapsedSeconds *int `json:"elapsedSeconds,omitempty"`
}
