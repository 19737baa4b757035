package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears FLOWHABIT_* variables and points HOME at an empty dir so a
// developer's own config cannot leak into the tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	for _, name := range []string{"FUNCTIONS_CUSTOMHANDLER_PORT", "DEBUG"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.StoreBackend != BackendSQLite || cfg.KeyPrefix != "flowHabit_" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.AchievementPollInterval != 5*time.Second || cfg.AchievementWindow != 10*time.Second || cfg.DeduperTTL != 24*time.Hour || cfg.HabitsCacheTTL != time.Minute {
		t.Fatalf("unexpected default durations %+v", cfg)
	}
	if cfg.Location != time.Local || cfg.Debug {
		t.Fatalf("unexpected location/debug %+v", cfg)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FLOWHABIT_STORE_BACKEND", "redis")
	t.Setenv("FLOWHABIT_REDIS_CONNECTION_STRING", "localhost:6379")
	t.Setenv("FLOWHABIT_ACHIEVEMENT_WINDOW", "30s")
	t.Setenv("FLOWHABIT_TIMEZONE", "UTC")
	t.Setenv("FUNCTIONS_CUSTOMHANDLER_PORT", "7071")
	t.Setenv("DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != BackendRedis || cfg.RedisConnectionString != "localhost:6379" {
		t.Fatalf("unexpected backend %+v", cfg)
	}
	if cfg.AchievementWindow != 30*time.Second || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.ListenAddr != ":7071" || !cfg.Debug {
		t.Fatalf("expected port and debug overrides, got %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "flowhabit.json")
	data := `{"listen_addr":":9090","habits_table":"myhabits","notify_channel":"achievements"}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FLOWHABIT_HABITS_TABLE", "fromenv")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.NotifyChannel != "achievements" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.HabitsTable != "fromenv" {
		t.Fatalf("expected env to win over file, got %q", cfg.HabitsTable)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"FLOWHABIT_ACHIEVEMENT_POLL_INTERVAL": "soon",
		"FLOWHABIT_DEDUPER_TTL":               "0s",
		"FLOWHABIT_HABITS_CACHE_TTL":          "-1m",
		"FLOWHABIT_TIMEZONE":                  "Mars/Olympus",
		"FLOWHABIT_STORE_BACKEND":             "mongo",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, val)
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}

	isolate(t)
	t.Setenv("FLOWHABIT_STORE_BACKEND", "redis")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for redis without connection string")
	}
}
