package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

const habitsCacheKey = "habits:list"

// HabitCache wraps a HabitStore with a Redis-backed cache of the habit list.
// Writes go to the base store and evict the cached list.
type HabitCache struct {
	base  HabitStore
	redis *redis.Client
	ttl   time.Duration
}

// NewHabitCache creates a caching HabitStore using the provided Redis client and TTL.
func NewHabitCache(base HabitStore, client *redis.Client, ttl time.Duration) *HabitCache {
	if base == nil {
		panic("storage.NewHabitCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &HabitCache{base: base, redis: client, ttl: ttl}
}

func (c *HabitCache) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	if habits, ok := c.loadFromCache(ctx); ok {
		return habits, nil
	}

	habits, err := c.base.ListHabits(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, habits)
	return habits, nil
}

func (c *HabitCache) CreateHabit(ctx context.Context, h domain.Habit) error {
	if err := c.base.CreateHabit(ctx, h); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *HabitCache) DeleteHabit(ctx context.Context, id string) error {
	if err := c.base.DeleteHabit(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *HabitCache) loadFromCache(ctx context.Context) ([]domain.Habit, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, habitsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, habitsCacheKey).Err()
		}
		return nil, false
	}
	var habits []domain.Habit
	if err := sonic.Unmarshal(data, &habits); err != nil {
		_ = c.redis.Del(ctx, habitsCacheKey).Err()
		return nil, false
	}
	return habits, true
}

func (c *HabitCache) store(ctx context.Context, habits []domain.Habit) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(habits)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, habitsCacheKey, data, c.ttl).Err()
}

func (c *HabitCache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, habitsCacheKey).Err()
}
