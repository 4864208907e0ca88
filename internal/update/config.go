package update

import (
	"time"

	"github.com/sandeepkv93/taskmesh/internal/config"
)

type RuntimeConfig struct {
	TickInterval    time.Duration
	ActionQueueSize int
	StatusTimeout   time.Duration
	MutationTimeout time.Duration
	// MaxRestarts bounds how often the driver restarts a failed input loop.
	// Zero means no limit.
	MaxRestarts int
	Keys        config.Keymap
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		TickInterval:    config.DefaultTickInterval,
		ActionQueueSize: config.DefaultActionQueue,
		StatusTimeout:   3 * time.Second,
		MutationTimeout: 5 * time.Second,
		Keys:            config.DefaultKeymap(),
	}
}

func RuntimeConfigFrom(cfg config.Config) RuntimeConfig {
	out := DefaultRuntimeConfig()
	out.TickInterval = cfg.TickInterval()
	if cfg.ActionQueueSize > 0 {
		out.ActionQueueSize = cfg.ActionQueueSize
	}
	out.Keys = cfg.Keys.WithDefaults()
	return out
}

func (c RuntimeConfig) withDefaults() RuntimeConfig {
	def := DefaultRuntimeConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.ActionQueueSize <= 0 {
		c.ActionQueueSize = def.ActionQueueSize
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = def.StatusTimeout
	}
	if c.MutationTimeout <= 0 {
		c.MutationTimeout = def.MutationTimeout
	}
	c.Keys = c.Keys.WithDefaults()
	return c
}
