package progression

import (
	"time"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

const dayLayout = "2006-01-02"

func dayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayLayout)
}

// UpdateStreak advances the streak for a completion at now. Completions on the
// same calendar day as lastCompleted leave the streak untouched, lastCompleted
// included.
func UpdateStreak(stats *domain.UserStats, now time.Time, loc *time.Location) {
	s := &stats.Streak
	if s.LastCompleted == nil {
		s.Current = 1
		s.Longest = max(s.Longest, 1)
		s.LastCompleted = &now
		return
	}

	today := dayKey(now, loc)
	last := dayKey(*s.LastCompleted, loc)
	if last == today {
		return
	}

	if loc == nil {
		loc = time.Local
	}
	yesterday := now.In(loc).AddDate(0, 0, -1).Format(dayLayout)
	if last == yesterday {
		s.Current++
		s.Longest = max(s.Longest, s.Current)
	} else {
		s.Current = 1
	}
	s.LastCompleted = &now
}
