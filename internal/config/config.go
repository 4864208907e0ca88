package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "taskmesh.toml"
	DefaultLogPath        = "/tmp/taskmesh.log"
	DefaultTickInterval   = 20 * time.Millisecond
	DefaultActionQueue    = 100
	DefaultShutdownGrace  = 2 * time.Second
)

var ErrDuplicateProfile = errors.New("config: duplicate profile id")

// Profile is one named connection to an isolated task collection.
type Profile struct {
	Name string `toml:"name,omitempty"`
	ID   string `toml:"id"`
	Root string `toml:"root,omitempty"`
}

// Label is the display name, falling back to the connection identity.
func (p Profile) Label() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.ID
}

type Config struct {
	LogPath         string    `toml:"log_path"`
	Debug           bool      `toml:"debug"`
	TickMillis      int       `toml:"tick_ms"`
	ActionQueueSize int       `toml:"action_queue_size"`
	Keys            Keymap    `toml:"keys"`
	Profiles        []Profile `toml:"profiles"`
}

func (c Config) TickInterval() time.Duration {
	if c.TickMillis <= 0 {
		return DefaultTickInterval
	}
	return time.Duration(c.TickMillis) * time.Millisecond
}

func Default() Config {
	return Config{
		LogPath:         DefaultLogPath,
		TickMillis:      int(DefaultTickInterval / time.Millisecond),
		ActionQueueSize: DefaultActionQueue,
		Keys:            DefaultKeymap(),
		Profiles: []Profile{
			{Name: "Local", ID: "local"},
		},
	}
}

// LoadOrCreate reads path, writing the defaults there first when it does not
// exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.Profiles = nil
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogPath
	}
	if cfg.ActionQueueSize <= 0 {
		cfg.ActionQueueSize = DefaultActionQueue
	}
	cfg.Keys = cfg.Keys.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Profiles))
	for i, p := range c.Profiles {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("config: profile %d has no id", i)
		}
		if seen[id] {
			return fmt.Errorf("%w: %q", ErrDuplicateProfile, id)
		}
		seen[id] = true
	}
	return c.Keys.Validate()
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
