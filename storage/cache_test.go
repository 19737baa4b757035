package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

type stubHabits struct {
	listFn   func(ctx context.Context) ([]domain.Habit, error)
	createFn func(ctx context.Context, h domain.Habit) error
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubHabits) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected ListHabits call")
	}
	return s.listFn(ctx)
}

func (s *stubHabits) CreateHabit(ctx context.Context, h domain.Habit) error {
	if s.createFn == nil {
		return errors.New("unexpected CreateHabit call")
	}
	return s.createFn(ctx, h)
}

func (s *stubHabits) DeleteHabit(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return errors.New("unexpected DeleteHabit call")
	}
	return s.deleteFn(ctx, id)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestHabitCacheMissThenHit(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expected := []domain.Habit{{ID: "h1", Name: "Read", CreatedAt: created}}

	var calls int
	cache := NewHabitCache(&stubHabits{
		listFn: func(context.Context) ([]domain.Habit, error) {
			calls++
			return expected, nil
		},
	}, client, time.Minute)

	habits, err := cache.ListHabits(ctx)
	if err != nil {
		t.Fatalf("list habits: %v", err)
	}
	if !reflect.DeepEqual(habits, expected) {
		t.Fatalf("unexpected habits: %#v", habits)
	}
	if ttl := mr.TTL(habitsCacheKey); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	cached, err := cache.ListHabits(ctx)
	if err != nil {
		t.Fatalf("list cached habits: %v", err)
	}
	if len(cached) != 1 || cached[0].ID != "h1" || !cached[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected cached habits: %#v", cached)
	}
	if calls != 1 {
		t.Fatalf("expected cached list to avoid backend, calls=%d", calls)
	}
}

func TestHabitCacheEvictsOnWrites(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()

	cache := NewHabitCache(&stubHabits{
		listFn:   func(context.Context) ([]domain.Habit, error) { return []domain.Habit{{ID: "h1"}}, nil },
		createFn: func(context.Context, domain.Habit) error { return nil },
		deleteFn: func(context.Context, string) error { return nil },
	}, client, time.Minute)

	if _, err := cache.ListHabits(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !mr.Exists(habitsCacheKey) {
		t.Fatalf("expected list to be cached")
	}
	if err := cache.CreateHabit(ctx, domain.Habit{ID: "h2"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(habitsCacheKey) {
		t.Fatalf("cache key should be evicted after create")
	}

	if _, err := cache.ListHabits(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := cache.DeleteHabit(ctx, "h1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(habitsCacheKey) {
		t.Fatalf("cache key should be evicted after delete")
	}
}

func TestHabitCacheKeepsEntryWhenWriteFails(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	boom := errors.New("boom")

	cache := NewHabitCache(&stubHabits{
		listFn:   func(context.Context) ([]domain.Habit, error) { return []domain.Habit{}, nil },
		createFn: func(context.Context, domain.Habit) error { return boom },
	}, client, time.Minute)

	if _, err := cache.ListHabits(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := cache.CreateHabit(ctx, domain.Habit{ID: "h"}); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !mr.Exists(habitsCacheKey) {
		t.Fatalf("failed write must not evict")
	}
}

func TestHabitCacheDropsCorruptEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	if err := mr.Set(habitsCacheKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var calls int
	cache := NewHabitCache(&stubHabits{
		listFn: func(context.Context) ([]domain.Habit, error) {
			calls++
			return []domain.Habit{}, nil
		},
	}, client, time.Minute)

	if _, err := cache.ListHabits(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected fallback to backend, calls=%d", calls)
	}
}

func TestHabitCacheWithoutRedis(t *testing.T) {
	var calls int
	cache := NewHabitCache(&stubHabits{
		listFn: func(context.Context) ([]domain.Habit, error) {
			calls++
			return nil, nil
		},
	}, nil, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cache.ListHabits(context.Background()); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected every call to reach backend, calls=%d", calls)
	}
}
