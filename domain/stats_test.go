package domain

import (
	"testing"
	"time"
)

func TestDefaultStats(t *testing.T) {
	s := DefaultStats()
	if s.Level != 1 || s.Experience != 0 || s.ExperienceToNextLevel != 100 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if len(s.Achievements) != 9 {
		t.Fatalf("expected 9 achievements, got %d", len(s.Achievements))
	}
	if a := s.Achievement(AchievementAllCategory); a == nil || a.Target != 6 {
		t.Fatalf("expected all_category target 6, got %+v", a)
	}
	if a := s.Achievement(AchievementFocusMaster); a == nil || a.Target != 300 {
		t.Fatalf("expected focus_master target 300, got %+v", a)
	}
}

func TestNormalizeRebuildsAchievements(t *testing.T) {
	unlocked := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := UserStats{
		Streak: Streak{Current: 4, Longest: 2},
		Achievements: []Achievement{
			{ID: "bogus", Progress: 3},
			{ID: AchievementTasks10, Progress: 7},
			{ID: AchievementStreak3, Progress: 1, UnlockedAt: &unlocked},
			{ID: AchievementTasks50, Progress: 99},
		},
	}
	s.Normalize()

	if s.Level != 1 || s.ExperienceToNextLevel != 100 {
		t.Fatalf("expected level defaults, got %+v", s)
	}
	if s.Streak.Longest != 4 {
		t.Fatalf("expected longest raised to current, got %d", s.Streak.Longest)
	}
	if len(s.Achievements) != len(AchievementDefs) {
		t.Fatalf("expected %d achievements, got %d", len(AchievementDefs), len(s.Achievements))
	}
	for i, def := range AchievementDefs {
		if s.Achievements[i].ID != def.ID {
			t.Fatalf("achievement %d: expected %s, got %s", i, def.ID, s.Achievements[i].ID)
		}
	}
	if got := s.Achievement(AchievementTasks10).Progress; got != 7 {
		t.Fatalf("expected tasks_10 progress 7, got %d", got)
	}
	if got := s.Achievement(AchievementStreak3).Progress; got != 3 {
		t.Fatalf("expected unlocked streak_3 frozen at target, got %d", got)
	}
	if got := s.Achievement(AchievementTasks50).Progress; got != 50 {
		t.Fatalf("expected tasks_50 capped at target, got %d", got)
	}
}

func TestPreferencesValidate(t *testing.T) {
	if err := DefaultPreferences().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	p := DefaultPreferences()
	p.Theme = "neon"
	if err := p.Validate(); err == nil {
		t.Fatalf("expected theme error")
	}
	p = DefaultPreferences()
	p.FocusDuration = 0
	if err := p.Validate(); err == nil {
		t.Fatalf("expected focus duration error")
	}
}
