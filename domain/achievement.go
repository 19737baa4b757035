package domain

import "time"

// AchievementID is the closed set of achievements a profile can unlock.
type AchievementID string

const (
	AchievementStreak3     AchievementID = "streak_3"
	AchievementStreak7     AchievementID = "streak_7"
	AchievementStreak30    AchievementID = "streak_30"
	AchievementTasks10     AchievementID = "tasks_10"
	AchievementTasks50     AchievementID = "tasks_50"
	AchievementTasks100    AchievementID = "tasks_100"
	AchievementAllCategory AchievementID = "all_category"
	AchievementFocusMaster AchievementID = "focus_master"
	AchievementSubtaskKing AchievementID = "subtask_king"
)

// ProgressSource names the signal an achievement's progress is read from.
type ProgressSource int

const (
	SourceStreak ProgressSource = iota
	SourceTasksCompleted
	SourceCategories
	SourceFocusMinutes
	SourceCompletedSubtasks
)

// AchievementDef is the static definition of an achievement.
type AchievementDef struct {
	ID          AchievementID
	Title       string
	Description string
	Icon        string
	Target      int
	Source      ProgressSource
}

// AchievementDefs is ordered the way achievements are stored and displayed.
var AchievementDefs = [...]AchievementDef{
	{AchievementStreak3, "3 Day Streak", "Complete tasks for 3 days in a row", "🔥", 3, SourceStreak},
	{AchievementStreak7, "Weekly Warrior", "Complete tasks for 7 days in a row", "🏆", 7, SourceStreak},
	{AchievementStreak30, "Monthly Master", "Complete tasks for 30 days in a row", "👑", 30, SourceStreak},
	{AchievementTasks10, "Getting Started", "Complete 10 tasks", "🚀", 10, SourceTasksCompleted},
	{AchievementTasks50, "Half Century", "Complete 50 tasks", "💯", 50, SourceTasksCompleted},
	{AchievementTasks100, "Century Club", "Complete 100 tasks", "🎯", 100, SourceTasksCompleted},
	{AchievementAllCategory, "Well Rounded", "Complete tasks in all categories", "🌈", len(Categories), SourceCategories},
	{AchievementFocusMaster, "Focus Master", "Use the focus timer for 5 hours total", "⏱️", 300, SourceFocusMinutes},
	{AchievementSubtaskKing, "Subtask King", "Complete 20 subtasks", "📋", 20, SourceCompletedSubtasks},
}

// LookupAchievement returns the definition for id.
func LookupAchievement(id AchievementID) (AchievementDef, bool) {
	for _, def := range AchievementDefs {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDef{}, false
}

func (id AchievementID) IsValid() bool {
	_, ok := LookupAchievement(id)
	return ok
}

// Achievement is the stored progress of one achievement.
type Achievement struct {
	ID          AchievementID `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	UnlockedAt  *time.Time    `json:"unlockedAt,omitempty"`
	Progress    int           `json:"progress"`
	Target      int           `json:"target"`
}

func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

// DefaultAchievements returns the nine achievements with zero progress.
func DefaultAchievements() []Achievement {
	out := make([]Achievement, 0, len(AchievementDefs))
	for _, def := range AchievementDefs {
		out = append(out, def.Achievement())
	}
	return out
}

// Achievement builds an unstarted achievement from the definition.
func (d AchievementDef) Achievement() Achievement {
	return Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.Icon,
		Progress:    0,
		Target:      d.Target,
	}
}
