package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStreamAchievementsWritesUnlockedEvents(t *testing.T) {
	e, _ := newTestServer(t, Options{})
	if rec := do(e, http.MethodPost, "/api/focus", `{"minutes":300}`); rec.Code != http.StatusOK {
		t.Fatalf("focus: %d", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/achievements/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: achievement\n") || !strings.Contains(body, `"id":"focus_master"`) {
		t.Fatalf("expected focus_master event, got %q", body)
	}
	if strings.Count(body, "event: achievement") != 1 {
		t.Fatalf("expected exactly one event, got %q", body)
	}
}
