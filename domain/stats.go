package domain

import "time"

const (
	InitialLevel               = 1
	InitialExperienceThreshold = 100
)

// Streak counts consecutive calendar days with at least one completion.
type Streak struct {
	Current       int        `json:"current"`
	Longest       int        `json:"longest"`
	LastCompleted *time.Time `json:"lastCompleted,omitempty"`
}

// UserStats is the progression snapshot, loaded and saved as one blob per event.
type UserStats struct {
	Level                 int           `json:"level"`
	Experience            int           `json:"experience"`
	ExperienceToNextLevel int           `json:"experienceToNextLevel"`
	TasksCompleted        int           `json:"tasksCompleted"`
	Streak                Streak        `json:"streak"`
	Achievements          []Achievement `json:"achievements"`
	FocusTime             int           `json:"focusTime"`
}

// DefaultStats is the state of a profile that has never completed anything.
func DefaultStats() UserStats {
	return UserStats{
		Level:                 InitialLevel,
		Experience:            0,
		ExperienceToNextLevel: InitialExperienceThreshold,
		Achievements:          DefaultAchievements(),
	}
}

// Achievement returns a pointer into s.Achievements for id, or nil.
func (s *UserStats) Achievement(id AchievementID) *Achievement {
	for i := range s.Achievements {
		if s.Achievements[i].ID == id {
			return &s.Achievements[i]
		}
	}
	return nil
}

// Normalize repairs a decoded blob: the achievement list is rebuilt in definition
// order from the static table, carrying over stored progress and unlock times, and
// zero-valued level fields fall back to their initial values.
func (s *UserStats) Normalize() {
	if s.Level < InitialLevel {
		s.Level = InitialLevel
	}
	if s.ExperienceToNextLevel <= 0 {
		s.ExperienceToNextLevel = InitialExperienceThreshold
	}
	if s.Experience < 0 {
		s.Experience = 0
	}
	if s.Streak.Longest < s.Streak.Current {
		s.Streak.Longest = s.Streak.Current
	}

	stored := make(map[AchievementID]Achievement, len(s.Achievements))
	for _, a := range s.Achievements {
		stored[a.ID] = a
	}
	out := make([]Achievement, 0, len(AchievementDefs))
	for _, def := range AchievementDefs {
		a := def.Achievement()
		if prev, ok := stored[def.ID]; ok {
			a.Progress = prev.Progress
			a.UnlockedAt = prev.UnlockedAt
		}
		if a.Progress < 0 {
			a.Progress = 0
		}
		if a.UnlockedAt != nil || a.Progress > a.Target {
			a.Progress = a.Target
		}
		out = append(out, a)
	}
	s.Achievements = out
}
