package progression

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

type memStore struct {
	tasks     []domain.Task
	stats     *domain.UserStats
	prefs     *domain.UserPreferences
	statSaves int
	failStats error
}

func (m *memStore) LoadTasks(ctx context.Context) ([]domain.Task, error) {
	out := make([]domain.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *memStore) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	m.tasks = append([]domain.Task(nil), tasks...)
	return nil
}

func (m *memStore) LoadStats(ctx context.Context) (domain.UserStats, error) {
	if m.stats == nil {
		return domain.DefaultStats(), nil
	}
	s := *m.stats
	s.Achievements = append([]domain.Achievement(nil), m.stats.Achievements...)
	return s, nil
}

func (m *memStore) SaveStats(ctx context.Context, stats domain.UserStats) error {
	if m.failStats != nil {
		return m.failStats
	}
	m.statSaves++
	m.stats = &stats
	return nil
}

func (m *memStore) LoadPreferences(ctx context.Context) (domain.UserPreferences, error) {
	if m.prefs == nil {
		return domain.DefaultPreferences(), nil
	}
	return *m.prefs, nil
}

func (m *memStore) SavePreferences(ctx context.Context, prefs domain.UserPreferences) error {
	m.prefs = &prefs
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(st Store, clock *fakeClock) *Service {
	logger, _ := test.NewNullLogger()
	return NewService(st, WithClock(clock.Now), WithLocation(time.UTC), WithLogger(logger))
}

func addTasks(t *testing.T, svc *Service, n int, cat domain.Category) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		task, err := svc.SaveTask(context.Background(), domain.Task{
			Title:     fmt.Sprintf("task %d", i),
			Category:  cat,
			Priority:  domain.PriorityMedium,
			Frequency: domain.FrequencyDaily,
		})
		if err != nil {
			t.Fatalf("save task: %v", err)
		}
		ids = append(ids, task.ID)
	}
	return ids
}

func TestElevenCompletionsSameDay(t *testing.T) {
	st := &memStore{}
	clock := &fakeClock{t: at(1, 9)}
	svc := newTestService(st, clock)
	ids := addTasks(t, svc, 11, domain.CategoryWork)

	var levelUps int
	for _, id := range ids {
		res, err := svc.CompleteTask(context.Background(), id)
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if res.LevelUp {
			levelUps++
		}
		clock.t = clock.t.Add(time.Minute)
	}

	s := *st.stats
	if s.TasksCompleted != 11 || s.Level != 2 || s.Experience != 35 || s.ExperienceToNextLevel != 150 {
		t.Fatalf("unexpected stats: tasks=%d level=%d xp=%d next=%d", s.TasksCompleted, s.Level, s.Experience, s.ExperienceToNextLevel)
	}
	if levelUps != 1 {
		t.Fatalf("expected 1 level up, got %d", levelUps)
	}
	if s.Streak.Current != 1 || s.Streak.Longest != 1 {
		t.Fatalf("expected streak 1/1, got %+v", s.Streak)
	}
	if !s.Achievement(domain.AchievementTasks10).Unlocked() {
		t.Fatalf("expected tasks_10 unlocked")
	}
	if !s.Streak.LastCompleted.Equal(at(1, 9)) {
		t.Fatalf("same-day completions must not move lastCompleted, got %v", s.Streak.LastCompleted)
	}
}

func TestThreeConsecutiveDaysUnlockStreak3(t *testing.T) {
	st := &memStore{}
	clock := &fakeClock{t: at(1, 9)}
	svc := newTestService(st, clock)
	ids := addTasks(t, svc, 3, domain.CategoryHealth)

	var unlocked []domain.AchievementID
	for i, id := range ids {
		clock.t = at(1+i, 18)
		res, err := svc.CompleteTask(context.Background(), id)
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		unlocked = append(unlocked, res.Unlocked...)
	}

	s := *st.stats
	if s.Streak.Current != 3 || s.Streak.Longest != 3 {
		t.Fatalf("expected streak 3, got %+v", s.Streak)
	}
	if len(unlocked) != 1 || unlocked[0] != domain.AchievementStreak3 {
		t.Fatalf("expected streak_3 unlocked once, got %v", unlocked)
	}
	if s.Experience != 3*TaskExperience+AchievementExperience {
		t.Fatalf("expected 55 xp, got %d", s.Experience)
	}
}

func TestSkippedDayResetsStreak(t *testing.T) {
	st := &memStore{}
	clock := &fakeClock{}
	svc := newTestService(st, clock)
	ids := addTasks(t, svc, 3, domain.CategoryOther)

	for i, day := range []int{1, 2, 4} {
		clock.t = at(day, 10)
		if _, err := svc.CompleteTask(context.Background(), ids[i]); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	if st.stats.Streak.Current != 1 || st.stats.Streak.Longest != 2 {
		t.Fatalf("expected current=1 longest=2, got %+v", st.stats.Streak)
	}
}

func TestAddFocusTimeUnlocksFocusMaster(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakeClock{t: at(1, 9)})

	res, err := svc.AddFocusTime(context.Background(), 300)
	if err != nil {
		t.Fatalf("add focus: %v", err)
	}
	a := res.Stats.Achievement(domain.AchievementFocusMaster)
	if a.Progress != 300 || !a.Unlocked() {
		t.Fatalf("expected focus_master unlocked, got %+v", a)
	}
	if res.Stats.FocusTime != 300 || res.Stats.Experience != AchievementExperience {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
	if len(res.Unlocked) != 1 {
		t.Fatalf("expected one unlock, got %v", res.Unlocked)
	}

	if _, err := svc.AddFocusTime(context.Background(), -1); !errors.Is(err, ErrNegativeMinutes) {
		t.Fatalf("expected ErrNegativeMinutes, got %v", err)
	}
}

func TestAddFocusTimeAccumulates(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakeClock{t: at(1, 9)})
	for _, m := range []int{25, 25, 0} {
		if _, err := svc.AddFocusTime(context.Background(), m); err != nil {
			t.Fatalf("add focus: %v", err)
		}
	}
	if st.stats.FocusTime != 50 || st.stats.Achievement(domain.AchievementFocusMaster).Progress != 50 {
		t.Fatalf("expected 50 focus minutes, got %+v", st.stats)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakeClock{t: at(1, 9)})
	ids := addTasks(t, svc, 1, domain.CategoryWork)

	res, err := svc.CompleteTask(context.Background(), "missing")
	if err != nil || res.Found {
		t.Fatalf("expected silent no-op, got %+v %v", res, err)
	}
	if st.statSaves != 0 {
		t.Fatalf("stats must not be saved for unknown task")
	}
	if ok, err := svc.ToggleSubtask(context.Background(), ids[0], "nope", true); ok || err != nil {
		t.Fatalf("expected no-op for unknown subtask, got %v %v", ok, err)
	}
	if ok, err := svc.UncompleteTask(context.Background(), "missing"); ok || err != nil {
		t.Fatalf("expected no-op for unknown task, got %v %v", ok, err)
	}
	if ok, err := svc.DeleteTask(context.Background(), "missing"); ok || err != nil {
		t.Fatalf("expected no-op delete, got %v %v", ok, err)
	}
}

func TestUncompleteKeepsStatsAndAllowsRecompletion(t *testing.T) {
	st := &memStore{}
	clock := &fakeClock{t: at(1, 9)}
	svc := newTestService(st, clock)
	id := addTasks(t, svc, 1, domain.CategoryWork)[0]

	if _, err := svc.CompleteTask(context.Background(), id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	again, err := svc.CompleteTask(context.Background(), id)
	if err != nil || !again.AlreadyCompleted || st.stats.TasksCompleted != 1 {
		t.Fatalf("expected completed task to be left alone, got %+v %v", again, err)
	}

	if ok, err := svc.UncompleteTask(context.Background(), id); !ok || err != nil {
		t.Fatalf("uncomplete: %v %v", ok, err)
	}
	if st.tasks[0].Completed || st.tasks[0].CompletedAt != nil {
		t.Fatalf("expected task reopened, got %+v", st.tasks[0])
	}
	if st.stats.TasksCompleted != 1 || st.stats.Experience != 10 {
		t.Fatalf("uncomplete must not change stats, got %+v", st.stats)
	}

	if _, err := svc.CompleteTask(context.Background(), id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if st.stats.TasksCompleted != 2 || st.stats.Experience != 20 {
		t.Fatalf("expected second credit, got %+v", st.stats)
	}
}

func TestToggleSubtaskDoesNotTouchStats(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakeClock{t: at(1, 9)})
	task, err := svc.SaveTask(context.Background(), domain.Task{
		Title: "write", Category: domain.CategoryEducation, Priority: domain.PriorityLow, Frequency: domain.FrequencyOnce,
		Subtasks: []domain.Subtask{{Title: "outline"}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if task.Subtasks[0].ID == "" {
		t.Fatalf("expected subtask id to be assigned")
	}
	ok, err := svc.ToggleSubtask(context.Background(), task.ID, task.Subtasks[0].ID, true)
	if !ok || err != nil {
		t.Fatalf("toggle: %v %v", ok, err)
	}
	if !st.tasks[0].Subtasks[0].Completed {
		t.Fatalf("expected subtask completed")
	}
	if st.statSaves != 0 {
		t.Fatalf("subtask toggle must not save stats")
	}
}

func TestAllCategoriesUnlock(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakeClock{t: at(1, 9)})
	var ids []string
	for _, c := range domain.Categories {
		ids = append(ids, addTasks(t, svc, 1, c)...)
	}
	var last CompleteResult
	for _, id := range ids {
		var err error
		last, err = svc.CompleteTask(context.Background(), id)
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	if len(last.Unlocked) != 1 || last.Unlocked[0] != domain.AchievementAllCategory {
		t.Fatalf("expected all_category on the sixth category, got %v", last.Unlocked)
	}
}

func TestSaveTaskKeepsCompletionState(t *testing.T) {
	st := &memStore{}
	clock := &fakeClock{t: at(1, 9)}
	svc := newTestService(st, clock)
	id := addTasks(t, svc, 1, domain.CategoryWork)[0]
	if _, err := svc.CompleteTask(context.Background(), id); err != nil {
		t.Fatalf("complete: %v", err)
	}

	edited, err := svc.SaveTask(context.Background(), domain.Task{
		ID: id, Title: "renamed", Category: domain.CategoryWork, Priority: domain.PriorityHigh, Frequency: domain.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !edited.Completed || edited.CompletedAt == nil || !edited.CreatedAt.Equal(at(1, 9)) {
		t.Fatalf("expected completion state and createdAt preserved, got %+v", edited)
	}

	if _, err := svc.SaveTask(context.Background(), domain.Task{Title: "x", Category: "misc"}); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestSaveStatsFailureIsReturned(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, &fakeClock{t: at(1, 9)})
	id := addTasks(t, svc, 1, domain.CategoryWork)[0]
	st.failStats = errors.New("disk full")
	if _, err := svc.CompleteTask(context.Background(), id); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecentUnlocks(t *testing.T) {
	st := &memStore{}
	clock := &fakeClock{t: at(1, 9)}
	svc := newTestService(st, clock)
	if _, err := svc.AddFocusTime(context.Background(), 300); err != nil {
		t.Fatalf("add focus: %v", err)
	}

	recent, err := svc.RecentUnlocks(context.Background(), at(1, 9).Add(-10*time.Second))
	if err != nil || len(recent) != 1 || recent[0].ID != domain.AchievementFocusMaster {
		t.Fatalf("expected focus_master, got %v %v", recent, err)
	}
	recent, _ = svc.RecentUnlocks(context.Background(), at(1, 9))
	if len(recent) != 0 {
		t.Fatalf("expected nothing after unlock time, got %v", recent)
	}
}

func TestCompletionLogsUnlock(t *testing.T) {
	logger, hook := test.NewNullLogger()
	st := &memStore{}
	svc := NewService(st, WithClock((&fakeClock{t: at(1, 9)}).Now), WithLogger(logger))
	if _, err := svc.AddFocusTime(context.Background(), 300); err != nil {
		t.Fatalf("add focus: %v", err)
	}
	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "achievement unlocked" && e.Level == log.InfoLevel {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unlock log entry")
	}
}
