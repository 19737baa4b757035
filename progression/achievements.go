package progression

import (
	"time"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

// Signals carries the derived values achievement progress is read from.
type Signals struct {
	Streak            int
	TasksCompleted    int
	Categories        int
	FocusMinutes      int
	CompletedSubtasks int
}

func (s Signals) value(src domain.ProgressSource) int {
	switch src {
	case domain.SourceStreak:
		return s.Streak
	case domain.SourceTasksCompleted:
		return s.TasksCompleted
	case domain.SourceCategories:
		return s.Categories
	case domain.SourceFocusMinutes:
		return s.FocusMinutes
	case domain.SourceCompletedSubtasks:
		return s.CompletedSubtasks
	default:
		return 0
	}
}

// completionSources are the sources recomputed after a task completion.
// Focus minutes and completed subtasks have their own paths.
var completionSources = map[domain.ProgressSource]bool{
	domain.SourceStreak:         true,
	domain.SourceTasksCompleted: true,
	domain.SourceCategories:     true,
}

// DistinctCategories counts the categories present among completed tasks.
func DistinctCategories(tasks []domain.Task) int {
	seen := make(map[domain.Category]struct{}, len(domain.Categories))
	for _, t := range tasks {
		if t.Completed {
			seen[t.Category] = struct{}{}
		}
	}
	return len(seen)
}

// UpdateAchievements recomputes the streak, task-count and category
// achievements after a completion and returns the ids unlocked by this call.
func UpdateAchievements(stats *domain.UserStats, tasks []domain.Task, now time.Time) []domain.AchievementID {
	sig := Signals{
		Streak:         stats.Streak.Current,
		TasksCompleted: stats.TasksCompleted,
		Categories:     DistinctCategories(tasks),
	}
	var unlocked []domain.AchievementID
	for _, def := range domain.AchievementDefs {
		if !completionSources[def.Source] {
			continue
		}
		if UpdateAchievementProgress(stats, def.ID, sig.value(def.Source), now) {
			unlocked = append(unlocked, def.ID)
		}
	}
	return unlocked
}

// UpdateAchievementProgress raises the progress of one locked achievement to
// value. Crossing the target freezes progress at the target, stamps unlockedAt
// and awards bonus experience without a level-up check. Unlocked achievements
// are never modified. It reports whether this call unlocked the achievement.
func UpdateAchievementProgress(stats *domain.UserStats, id domain.AchievementID, value int, now time.Time) bool {
	a := stats.Achievement(id)
	if a == nil || a.Unlocked() {
		return false
	}
	if value > a.Progress {
		a.Progress = value
	}
	if a.Progress < a.Target {
		return false
	}
	a.Progress = a.Target
	ts := now
	a.UnlockedAt = &ts
	stats.Experience += AchievementExperience
	return true
}
