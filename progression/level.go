package progression

import (
	"math"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

const (
	TaskExperience        = 10
	AchievementExperience = 25
	levelGrowth           = 1.5
)

// ApplyTaskExperience credits one completed task and performs at most one
// level-up, even when the experience would cover several thresholds.
// It reports whether the level changed.
func ApplyTaskExperience(stats *domain.UserStats) bool {
	stats.Experience += TaskExperience
	return levelUp(stats)
}

func levelUp(stats *domain.UserStats) bool {
	if stats.Experience < stats.ExperienceToNextLevel {
		return false
	}
	stats.Level++
	stats.Experience -= stats.ExperienceToNextLevel
	stats.ExperienceToNextLevel = NextThreshold(stats.ExperienceToNextLevel)
	return true
}

// NextThreshold is floor(threshold * 1.5).
func NextThreshold(threshold int) int {
	return int(math.Floor(float64(threshold) * levelGrowth))
}
