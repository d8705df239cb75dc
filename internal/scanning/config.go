package scanning

import "time"

const (
	DefaultMaxHosts       = 512
	DefaultMaxWorkers     = 64
	DefaultPortTimeout    = 200 * time.Millisecond
	DefaultMinPortTimeout = 50 * time.Millisecond
	DefaultMaxPortTimeout = 2 * time.Second
)

// Config bounds the work a single run may do.
type Config struct {
	MaxHosts       int
	MaxWorkers     int
	PortTimeout    time.Duration
	MinPortTimeout time.Duration
	MaxPortTimeout time.Duration
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() Config {
	return Config{
		MaxHosts:       DefaultMaxHosts,
		MaxWorkers:     DefaultMaxWorkers,
		PortTimeout:    DefaultPortTimeout,
		MinPortTimeout: DefaultMinPortTimeout,
		MaxPortTimeout: DefaultMaxPortTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxHosts <= 0 {
		c.MaxHosts = d.MaxHosts
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.MinPortTimeout <= 0 {
		c.MinPortTimeout = d.MinPortTimeout
	}
	if c.MaxPortTimeout <= 0 {
		c.MaxPortTimeout = d.MaxPortTimeout
	}
	if c.MaxPortTimeout < c.MinPortTimeout {
		c.MaxPortTimeout = c.MinPortTimeout
	}
	if c.PortTimeout <= 0 {
		c.PortTimeout = d.PortTimeout
	}
	c.PortTimeout = c.clampPortTimeout(c.PortTimeout)
	return c
}

// clampPortTimeout bounds a caller-supplied connect timeout.
func (c Config) clampPortTimeout(d time.Duration) time.Duration {
	if d < c.MinPortTimeout {
		return c.MinPortTimeout
	}
	if d > c.MaxPortTimeout {
		return c.MaxPortTimeout
	}
	return d
}
