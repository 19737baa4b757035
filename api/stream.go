package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
)

// streamAchievements pushes newly unlocked achievements as server-sent events,
// re-reading the stats snapshot every interval.
func streamAchievements(engine Engine, interval, window time.Duration, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		c.Response().WriteHeader(http.StatusOK)
		flusher.Flush()

		ctx := c.Request().Context()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		since := engine.Now().Add(-window)
		seen := map[domain.AchievementID]struct{}{}
		for {
			unlocked, err := engine.RecentUnlocks(ctx, since)
			if err != nil {
				logger.WithError(err).Warn("achievement stream read failed")
			}
			for _, a := range unlocked {
				if _, dup := seen[a.ID]; dup {
					continue
				}
				seen[a.ID] = struct{}{}
				if err := writeEvent(c, "achievement", a); err != nil {
					return nil
				}
			}
			flusher.Flush()
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				continue
			}
		}
	}
}

func writeEvent(c echo.Context, event string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	w := c.Response()
	if _, err := w.Write([]byte("event: " + event + "\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
