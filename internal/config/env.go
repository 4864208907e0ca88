package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv applies TASKMESH_* overrides on top of base.
func FromEnv(base Config) Config {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("TASKMESH_LOG_PATH")); v != "" {
		cfg.LogPath = v
	}
	if v, ok := getEnvBool("TASKMESH_DEBUG"); ok {
		cfg.Debug = v
	}
	if v, ok := getEnvInt("TASKMESH_TICK_MS"); ok && v > 0 {
		cfg.TickMillis = v
	}
	if v, ok := getEnvInt("TASKMESH_ACTION_QUEUE_SIZE"); ok && v > 0 {
		cfg.ActionQueueSize = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
