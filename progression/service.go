package progression

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

var ErrNegativeMinutes = errors.New("progression: focus minutes must not be negative")

// Store loads and saves the three blobs of a profile. Load methods return
// defaults for absent or unreadable blobs.
type Store interface {
	LoadTasks(ctx context.Context) ([]domain.Task, error)
	SaveTasks(ctx context.Context, tasks []domain.Task) error
	LoadStats(ctx context.Context) (domain.UserStats, error)
	SaveStats(ctx context.Context, stats domain.UserStats) error
	LoadPreferences(ctx context.Context) (domain.UserPreferences, error)
	SavePreferences(ctx context.Context, prefs domain.UserPreferences) error
}

// Service coordinates every mutating event of a profile: load a snapshot, run
// the engines, save the snapshot. Events are serialized within the process.
type Service struct {
	st  Store
	log *log.Logger
	loc *time.Location
	now func() time.Time
	mu  sync.Mutex
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the location calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(st Store, opts ...Option) *Service {
	s := &Service{st: st, log: log.StandardLogger(), loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompleteResult describes the outcome of a task completion.
type CompleteResult struct {
	TaskID           string                 `json:"taskId"`
	Found            bool                   `json:"found"`
	AlreadyCompleted bool                   `json:"alreadyCompleted,omitempty"`
	XPAwarded        int                    `json:"xpAwarded"`
	LevelBefore      int                    `json:"levelBefore"`
	LevelAfter       int                    `json:"levelAfter"`
	LevelUp          bool                   `json:"levelUp"`
	Unlocked         []domain.AchievementID `json:"unlocked"`
	Stats            domain.UserStats       `json:"stats"`
}

// FocusResult describes the outcome of crediting focus minutes.
type FocusResult struct {
	Minutes  int                    `json:"minutes"`
	Unlocked []domain.AchievementID `json:"unlocked"`
	Stats    domain.UserStats       `json:"stats"`
}

func (s *Service) Tasks(ctx context.Context) ([]domain.Task, error) {
	return s.st.LoadTasks(ctx)
}

func (s *Service) Stats(ctx context.Context) (domain.UserStats, error) {
	return s.st.LoadStats(ctx)
}

func (s *Service) Preferences(ctx context.Context) (domain.UserPreferences, error) {
	return s.st.LoadPreferences(ctx)
}

func (s *Service) SavePreferences(ctx context.Context, prefs domain.UserPreferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SavePreferences(ctx, prefs)
}

// SaveTask creates or replaces a task by id. Completion state is owned by
// CompleteTask and UncompleteTask, so it is carried over from the stored task
// (or cleared for new tasks) rather than taken from the input.
func (s *Service) SaveTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(task.ID) == "" {
		task.ID = uuid.NewString()
	}
	if task.Subtasks == nil {
		task.Subtasks = []domain.Subtask{}
	}
	for i := range task.Subtasks {
		if strings.TrimSpace(task.Subtasks[i].ID) == "" {
			task.Subtasks[i].ID = uuid.NewString()
		}
	}
	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}

	tasks, err := s.st.LoadTasks(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("load tasks: %w", err)
	}
	idx := indexOf(tasks, task.ID)
	if idx >= 0 {
		prev := tasks[idx]
		task.Completed = prev.Completed
		task.CompletedAt = prev.CompletedAt
		if task.CreatedAt.IsZero() {
			task.CreatedAt = prev.CreatedAt
		}
		tasks[idx] = task
	} else {
		task.Completed = false
		task.CompletedAt = nil
		if task.CreatedAt.IsZero() {
			task.CreatedAt = s.now()
		}
		tasks = append(tasks, task)
	}
	if err := s.st.SaveTasks(ctx, tasks); err != nil {
		return domain.Task{}, fmt.Errorf("save tasks: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task. Stats are not affected.
func (s *Service) DeleteTask(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.st.LoadTasks(ctx)
	if err != nil {
		return false, fmt.Errorf("load tasks: %w", err)
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		return false, nil
	}
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	if err := s.st.SaveTasks(ctx, tasks); err != nil {
		return false, fmt.Errorf("save tasks: %w", err)
	}
	return true, nil
}

// CompleteTask marks a task completed and runs the progression engines:
// task counter, experience, streak, one level-up check, then achievements.
func (s *Service) CompleteTask(ctx context.Context, id string) (CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := CompleteResult{TaskID: id}
	tasks, err := s.st.LoadTasks(ctx)
	if err != nil {
		return res, fmt.Errorf("load tasks: %w", err)
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		s.log.WithField("task", id).Debug("complete for unknown task ignored")
		return res, nil
	}
	res.Found = true
	if tasks[idx].Completed {
		res.AlreadyCompleted = true
		res.Stats, err = s.st.LoadStats(ctx)
		if err != nil {
			return res, fmt.Errorf("load stats: %w", err)
		}
		res.LevelBefore, res.LevelAfter = res.Stats.Level, res.Stats.Level
		return res, nil
	}

	now := s.now()
	tasks[idx].Completed = true
	tasks[idx].CompletedAt = &now
	if err := s.st.SaveTasks(ctx, tasks); err != nil {
		return res, fmt.Errorf("save tasks: %w", err)
	}

	stats, err := s.st.LoadStats(ctx)
	if err != nil {
		return res, fmt.Errorf("load stats: %w", err)
	}
	res.LevelBefore = stats.Level

	stats.TasksCompleted++
	UpdateStreak(&stats, now, s.loc)
	res.LevelUp = ApplyTaskExperience(&stats)
	res.Unlocked = UpdateAchievements(&stats, tasks, now)

	if err := s.st.SaveStats(ctx, stats); err != nil {
		return res, fmt.Errorf("save stats: %w", err)
	}
	res.LevelAfter = stats.Level
	res.XPAwarded = TaskExperience + AchievementExperience*len(res.Unlocked)
	res.Stats = stats

	entry := s.log.WithFields(log.Fields{
		"task":   id,
		"level":  stats.Level,
		"xp":     stats.Experience,
		"streak": stats.Streak.Current,
	})
	entry.Info("task completed")
	if res.LevelUp {
		entry.Info("level up")
	}
	for _, a := range res.Unlocked {
		s.log.WithField("achievement", a).Info("achievement unlocked")
	}
	return res, nil
}

// UncompleteTask reopens a task. Progression already earned is kept.
func (s *Service) UncompleteTask(ctx context.Context, id string) (bool, error) {
	return s.mutateTask(ctx, id, func(t *domain.Task) bool {
		t.Completed = false
		t.CompletedAt = nil
		return true
	})
}

// ToggleSubtask sets the completed flag of one subtask. Only the task list is
// saved; subtask completion does not feed any achievement.
func (s *Service) ToggleSubtask(ctx context.Context, taskID, subtaskID string, completed bool) (bool, error) {
	return s.mutateTask(ctx, taskID, func(t *domain.Task) bool {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Completed = completed
				return true
			}
		}
		return false
	})
}

func (s *Service) mutateTask(ctx context.Context, id string, fn func(*domain.Task) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.st.LoadTasks(ctx)
	if err != nil {
		return false, fmt.Errorf("load tasks: %w", err)
	}
	idx := indexOf(tasks, id)
	if idx < 0 || !fn(&tasks[idx]) {
		return false, nil
	}
	if err := s.st.SaveTasks(ctx, tasks); err != nil {
		return false, fmt.Errorf("save tasks: %w", err)
	}
	return true, nil
}

// AddFocusTime credits finished focus minutes and updates focus_master only.
func (s *Service) AddFocusTime(ctx context.Context, minutes int) (FocusResult, error) {
	res := FocusResult{Minutes: minutes}
	if minutes < 0 {
		return res, ErrNegativeMinutes
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.st.LoadStats(ctx)
	if err != nil {
		return res, fmt.Errorf("load stats: %w", err)
	}
	stats.FocusTime += minutes
	if UpdateAchievementProgress(&stats, domain.AchievementFocusMaster, stats.FocusTime, s.now()) {
		res.Unlocked = append(res.Unlocked, domain.AchievementFocusMaster)
		s.log.WithField("achievement", domain.AchievementFocusMaster).Info("achievement unlocked")
	}
	if err := s.st.SaveStats(ctx, stats); err != nil {
		return res, fmt.Errorf("save stats: %w", err)
	}
	res.Stats = stats
	s.log.WithFields(log.Fields{"minutes": minutes, "focusTime": stats.FocusTime}).Info("focus time added")
	return res, nil
}

// RecentUnlocks returns achievements unlocked strictly after since.
func (s *Service) RecentUnlocks(ctx context.Context, since time.Time) ([]domain.Achievement, error) {
	stats, err := s.st.LoadStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	var out []domain.Achievement
	for _, a := range stats.Achievements {
		if a.UnlockedAt != nil && a.UnlockedAt.After(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Now exposes the service clock to callers computing polling windows.
func (s *Service) Now() time.Time { return s.now() }

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
