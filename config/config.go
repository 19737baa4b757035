// Package config loads runtime settings from defaults, an optional JSON/YAML
// config file and FLOWHABIT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FLOWHABIT"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	ListenAddr              string
	Debug                   bool
	StoreBackend            string
	SQLitePath              string
	RedisConnectionString   string
	KeyPrefix               string
	StorageConnectionString string
	HabitsTable             string
	HabitsCacheTTL          time.Duration
	NotifyQueue             string
	NotifyChannel           string
	AchievementPollInterval time.Duration
	AchievementWindow       time.Duration
	DeduperTTL              time.Duration
	Timezone                string
	Location                *time.Location
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("store_backend", BackendSQLite)
	v.SetDefault("sqlite_path", "")
	v.SetDefault("redis_connection_string", "")
	v.SetDefault("key_prefix", "flowHabit_")
	v.SetDefault("storage_connection_string", "")
	v.SetDefault("habits_table", "habits")
	v.SetDefault("habits_cache_ttl", "1m")
	v.SetDefault("notify_queue", "")
	v.SetDefault("notify_channel", "")
	v.SetDefault("achievement_poll_interval", "5s")
	v.SetDefault("achievement_window", "10s")
	v.SetDefault("deduper_ttl", "24h")
	v.SetDefault("timezone", "local")
}

// Load reads configuration. An empty configFile looks for
// ~/.config/flowhabit/config.json and tolerates its absence; an explicit path
// must exist.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv("debug", EnvPrefix+"_DEBUG", "DEBUG"); err != nil {
		return Config{}, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "flowhabit"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		ListenAddr:              v.GetString("listen_addr"),
		Debug:                   v.GetBool("debug"),
		StoreBackend:            strings.ToLower(strings.TrimSpace(v.GetString("store_backend"))),
		SQLitePath:              v.GetString("sqlite_path"),
		RedisConnectionString:   v.GetString("redis_connection_string"),
		KeyPrefix:               v.GetString("key_prefix"),
		StorageConnectionString: v.GetString("storage_connection_string"),
		HabitsTable:             v.GetString("habits_table"),
		NotifyQueue:             v.GetString("notify_queue"),
		NotifyChannel:           v.GetString("notify_channel"),
		Timezone:                v.GetString("timezone"),
	}
	if port, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok && port != "" {
		cfg.ListenAddr = ":" + port
	}

	var err error
	durations := []struct {
		key       string
		dst       *time.Duration
		allowZero bool
	}{
		{"habits_cache_ttl", &cfg.HabitsCacheTTL, true},
		{"achievement_poll_interval", &cfg.AchievementPollInterval, false},
		{"achievement_window", &cfg.AchievementWindow, false},
		{"deduper_ttl", &cfg.DeduperTTL, false},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(v.GetString(d.key), d.allowZero); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	switch cfg.StoreBackend {
	case BackendSQLite:
	case BackendRedis:
		if cfg.RedisConnectionString == "" {
			return Config{}, errors.New("store_backend redis requires redis_connection_string")
		}
	default:
		return Config{}, fmt.Errorf("invalid store_backend %q", cfg.StoreBackend)
	}

	if cfg.Location, err = loadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid timezone: %w", err)
	}
	return cfg, nil
}

func parseDuration(s string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "local":
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
