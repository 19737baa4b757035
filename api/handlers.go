package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
)

const idempotencyHeader = "Idempotency-Key"

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, engine Engine, opts Options, logger *log.Logger) {
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = defaultStreamInterval
	}
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = defaultRecentWindow
	}
	e.JSONSerializer = SonicSerializer{}

	g := e.Group("", RequestMetrics(logger))

	g.GET("/api/habits", listHabits(opts.Habits))
	g.POST("/api/habits", createHabit(opts.Habits, engine.Now))
	g.DELETE("/api/habits/:id", deleteHabit(opts.Habits))

	g.GET("/api/tasks", listTasks(engine))
	g.POST("/api/tasks", createTask(engine))
	g.PUT("/api/tasks/:id", updateTask(engine))
	g.DELETE("/api/tasks/:id", deleteTask(engine))
	g.POST("/api/tasks/:id/complete", completeTask(engine, opts.Deduper, logger))
	g.POST("/api/tasks/:id/uncomplete", uncompleteTask(engine))
	g.PUT("/api/tasks/:id/subtasks/:subtaskId", toggleSubtask(engine))

	g.GET("/api/stats", getStats(engine))
	g.POST("/api/focus", postFocus(engine, opts.Deduper, logger))
	g.GET("/api/preferences", getPreferences(engine))
	g.PUT("/api/preferences", putPreferences(engine))

	g.GET("/api/achievements/recent", recentAchievements(engine, opts.RecentWindow))
	e.GET("/api/achievements/stream", streamAchievements(engine, opts.StreamInterval, opts.RecentWindow, logger))

	e.GET("/healthz", healthz(engine))
}

func healthz(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := engine.Stats(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}

func habitsUnavailable(c echo.Context) error {
	metricsFrom(c).SetErrorStage("habit_store_unavailable")
	return c.String(http.StatusServiceUnavailable, "habit store unavailable")
}

func listHabits(store HabitStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store == nil {
			return habitsUnavailable(c)
		}
		m := metricsFrom(c)
		start := time.Now()
		habits, err := store.ListHabits(c.Request().Context())
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		m.Set("habits_returned", len(habits))
		return c.JSON(http.StatusOK, habits)
	}
}

func createHabit(store HabitStore, now func() time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store == nil {
			return habitsUnavailable(c)
		}
		m := metricsFrom(c)
		var body domain.NewHabit
		if err := decodeBody(c, &body); err != nil {
			m.SetErrorStage("invalid_body")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		name := strings.TrimSpace(body.Name)
		if name == "" {
			m.SetErrorStage("validation")
			return c.String(http.StatusBadRequest, "name is required")
		}
		h := domain.Habit{
			ID:          uuid.NewString(),
			Name:        name,
			Description: body.Description,
			Completed:   false,
			CreatedAt:   now().UTC(),
		}
		start := time.Now()
		err := store.CreateHabit(c.Request().Context(), h)
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, h)
	}
}

func deleteHabit(store HabitStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store == nil {
			return habitsUnavailable(c)
		}
		m := metricsFrom(c)
		start := time.Now()
		err := store.DeleteHabit(c.Request().Context(), c.Param("id"))
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Habit deleted"})
	}
}

func listTasks(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		start := time.Now()
		tasks, err := engine.Tasks(c.Request().Context())
		m.ObserveStore(time.Since(start))
		if err != nil {
			return storageError(c, err)
		}
		m.Set("tasks_returned", len(tasks))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		m.ObserveEncode(time.Since(encodeStart))
		return err
	}
}

func createTask(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		var task domain.Task
		if err := decodeBody(c, &task); err != nil {
			metricsFrom(c).SetErrorStage("invalid_body")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task.ID = ""
		return saveTask(c, engine, task, http.StatusCreated)
	}
}

func updateTask(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		var task domain.Task
		if err := decodeBody(c, &task); err != nil {
			metricsFrom(c).SetErrorStage("invalid_body")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		tasks, err := engine.Tasks(ctx)
		if err != nil {
			return storageError(c, err)
		}
		if !containsTask(tasks, id) {
			return taskNotFound(c)
		}
		task.ID = id
		return saveTask(c, engine, task, http.StatusOK)
	}
}

func saveTask(c echo.Context, engine Engine, task domain.Task, status int) error {
	m := metricsFrom(c)
	start := time.Now()
	saved, err := engine.SaveTask(c.Request().Context(), task)
	m.ObserveStore(time.Since(start))
	if err != nil {
		if domain.IsValidationError(err) {
			m.SetErrorStage("validation")
			return c.String(http.StatusBadRequest, err.Error())
		}
		return storageError(c, err)
	}
	return c.JSON(status, saved)
}

func deleteTask(engine Engine) echo.HandlerFunc {
	return boolTaskOp(func(ctx context.Context, c echo.Context) (bool, error) {
		return engine.DeleteTask(ctx, c.Param("id"))
	})
}

func uncompleteTask(engine Engine) echo.HandlerFunc {
	return boolTaskOp(func(ctx context.Context, c echo.Context) (bool, error) {
		return engine.UncompleteTask(ctx, c.Param("id"))
	})
}

func toggleSubtask(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body subtaskRequest
		if err := decodeBody(c, &body); err != nil {
			metricsFrom(c).SetErrorStage("invalid_body")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		return boolTaskOp(func(ctx context.Context, c echo.Context) (bool, error) {
			return engine.ToggleSubtask(ctx, c.Param("id"), c.Param("subtaskId"), body.Completed)
		})(c)
	}
}

// boolTaskOp adapts an engine call reporting found/not-found into a handler
// answering 204 or 404.
func boolTaskOp(op func(context.Context, echo.Context) (bool, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		start := time.Now()
		found, err := op(c.Request().Context(), c)
		m.ObserveStore(time.Since(start))
		if err != nil {
			return storageError(c, err)
		}
		if !found {
			return taskNotFound(c)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func completeTask(engine Engine, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		m := metricsFrom(c)
		id := c.Param("id")

		release, dup, err := claimIdempotencyKey(c, deduper, "complete:"+id)
		if err != nil {
			logger.WithError(err).Warn("idempotency check failed")
			m.SetErrorStage("deduper")
			return c.String(http.StatusServiceUnavailable, "idempotency check failed")
		}
		if dup {
			m.SetErrorStage("duplicate")
			return c.String(http.StatusConflict, "duplicate request")
		}

		start := time.Now()
		res, err := engine.CompleteTask(ctx, id)
		m.ObserveStore(time.Since(start))
		if err != nil {
			release()
			return storageError(c, err)
		}
		if !res.Found {
			release()
			return taskNotFound(c)
		}
		m.Set("xp_awarded", res.XPAwarded)
		m.Set("level_up", res.LevelUp)
		m.Set("achievements_unlocked", len(res.Unlocked))
		return c.JSON(http.StatusOK, res)
	}
}

func postFocus(engine Engine, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		var body focusRequest
		if err := decodeBody(c, &body); err != nil {
			m.SetErrorStage("invalid_body")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		var minutes int
		switch {
		case body.Minutes != nil:
			minutes = *body.Minutes
		case body.ElapsedSeconds != nil:
			minutes = *body.ElapsedSeconds / 60
			if *body.ElapsedSeconds < 0 {
				minutes = -1
			}
		default:
			m.SetErrorStage("validation")
			return c.String(http.StatusBadRequest, "minutes or elapsedSeconds is required")
		}
		if minutes < 0 {
			m.SetErrorStage("validation")
			return c.String(http.StatusBadRequest, progression.ErrNegativeMinutes.Error())
		}

		release, dup, err := claimIdempotencyKey(c, deduper, "focus")
		if err != nil {
			logger.WithError(err).Warn("idempotency check failed")
			m.SetErrorStage("deduper")
			return c.String(http.StatusServiceUnavailable, "idempotency check failed")
		}
		if dup {
			m.SetErrorStage("duplicate")
			return c.String(http.StatusConflict, "duplicate request")
		}

		start := time.Now()
		res, err := engine.AddFocusTime(c.Request().Context(), minutes)
		m.ObserveStore(time.Since(start))
		if err != nil {
			release()
			return storageError(c, err)
		}
		m.Set("focus_minutes", minutes)
		return c.JSON(http.StatusOK, res)
	}
}

// claimIdempotencyKey records the request's Idempotency-Key under scope. The
// returned release func forgets the key so a failed request can be retried.
func claimIdempotencyKey(c echo.Context, deduper Deduper, scope string) (release func(), duplicate bool, err error) {
	release = func() {}
	key := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
	if deduper == nil || key == "" {
		return release, false, nil
	}
	added, err := deduper.Add(c.Request().Context(), scope, key)
	if err != nil {
		return release, false, err
	}
	if !added {
		return release, true, nil
	}
	release = func() {
		if rerr := deduper.Remove(context.WithoutCancel(c.Request().Context()), scope, key); rerr != nil {
			c.Logger().Errorf("release idempotency key: %v", rerr)
		}
	}
	return release, false, nil
}

func getStats(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		start := time.Now()
		stats, err := engine.Stats(c.Request().Context())
		m.ObserveStore(time.Since(start))
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func getPreferences(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		prefs, err := engine.Preferences(c.Request().Context())
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, prefs)
	}
}

func putPreferences(engine Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		var prefs domain.UserPreferences
		if err := decodeBody(c, &prefs); err != nil {
			m.SetErrorStage("invalid_body")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := engine.SavePreferences(c.Request().Context(), prefs); err != nil {
			if errors.Is(err, domain.ErrInvalidPreferences) {
				m.SetErrorStage("validation")
				return c.String(http.StatusBadRequest, err.Error())
			}
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, prefs)
	}
}

func recentAchievements(engine Engine, defaultWindow time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		window := defaultWindow
		if v := strings.TrimSpace(c.QueryParam("window")); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				metricsFrom(c).SetErrorStage("invalid_window")
				return c.String(http.StatusBadRequest, "invalid window")
			}
			window = d
		}
		unlocked, err := engine.RecentUnlocks(c.Request().Context(), engine.Now().Add(-window))
		if err != nil {
			return storageError(c, err)
		}
		if unlocked == nil {
			unlocked = []domain.Achievement{}
		}
		return c.JSON(http.StatusOK, unlocked)
	}
}

func storageError(c echo.Context, err error) error {
	metricsFrom(c).SetErrorStage("storage")
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}

func taskNotFound(c echo.Context) error {
	metricsFrom(c).SetErrorStage("not_found")
	return c.String(http.StatusNotFound, "task not found")
}

func containsTask(tasks []domain.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
