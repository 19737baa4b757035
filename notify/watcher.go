// Package notify polls the stats snapshot for newly unlocked achievements and
// forwards each one, once, to a set of sinks.
package notify

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

// Notification is the payload delivered for one unlocked achievement.
type Notification struct {
	ID          domain.AchievementID `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Icon        string               `json:"icon"`
	UnlockedAt  time.Time            `json:"unlockedAt"`
}

func fromAchievement(a domain.Achievement) Notification {
	n := Notification{ID: a.ID, Title: a.Title, Description: a.Description, Icon: a.Icon}
	if a.UnlockedAt != nil {
		n.UnlockedAt = *a.UnlockedAt
	}
	return n
}

// Sink delivers a notification somewhere.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Source exposes the unlock history of a profile.
type Source interface {
	RecentUnlocks(ctx context.Context, since time.Time) ([]domain.Achievement, error)
	Now() time.Time
}

type Config struct {
	Interval     time.Duration
	Window       time.Duration
	MaxAttempts  int
	RetryInitial time.Duration
	RetryMax     time.Duration
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Window <= 0 {
		c.Window = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = 200 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 5 * time.Second
	}
}

// Watcher looks back Window on every Interval. An achievement is delivered at
// most once per Watcher even though consecutive windows overlap.
type Watcher struct {
	src   Source
	sinks []Sink
	cfg   Config
	log   *log.Logger

	mu   sync.Mutex
	seen map[domain.AchievementID]struct{}
}

func NewWatcher(src Source, cfg Config, logger *log.Logger, sinks ...Sink) *Watcher {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Watcher{src: src, sinks: sinks, cfg: cfg, log: logger, seen: map[domain.AchievementID]struct{}{}}
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	w.log.WithFields(log.Fields{"interval": w.cfg.Interval, "window": w.cfg.Window}).Info("achievement watcher started")
	for {
		if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.log.WithError(err).Warn("achievement poll failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs one pass and returns the notifications delivered by it.
func (w *Watcher) Poll(ctx context.Context) ([]Notification, error) {
	unlocked, err := w.src.RecentUnlocks(ctx, w.src.Now().Add(-w.cfg.Window))
	if err != nil {
		return nil, err
	}
	var out []Notification
	for _, a := range unlocked {
		if !w.markSeen(a.ID) {
			continue
		}
		n := fromAchievement(a)
		for _, s := range w.sinks {
			w.deliver(ctx, s, n)
		}
		out = append(out, n)
	}
	return out, nil
}

func (w *Watcher) markSeen(id domain.AchievementID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; ok {
		return false
	}
	w.seen[id] = struct{}{}
	return true
}

func (w *Watcher) deliver(ctx context.Context, s Sink, n Notification) {
	for attempt := 1; ; attempt++ {
		err := s.Notify(ctx, n)
		if err == nil {
			return
		}
		entry := w.log.WithError(err).WithFields(log.Fields{"achievement": n.ID, "attempt": attempt})
		if attempt >= w.cfg.MaxAttempts {
			entry.Error("notification dropped")
			return
		}
		entry.Warn("notification failed, retrying")
		timer := time.NewTimer(backoff(attempt, w.cfg.RetryInitial, w.cfg.RetryMax))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func backoff(attempt int, initial, max time.Duration) time.Duration {
	d := float64(initial) * math.Pow(2, float64(attempt-1))
	if d > float64(max) {
		d = float64(max)
	}
	jitter := 0.2 * d
	return time.Duration(d + (rand.Float64()-0.5)*2*jitter)
}
