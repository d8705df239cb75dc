// Package config loads the reconkit configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anstrom/reconkit/internal/capture"
	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/platform"
	"github.com/anstrom/reconkit/internal/scanning"
)

// Config represents the complete reconkit configuration
type Config struct {
	// Scan engine limits and probe timings
	Scanning ScanningConfig `yaml:"scanning" json:"scanning"`

	// Capture handle settings
	Capture capture.Config `yaml:"capture" json:"capture"`

	// API configuration
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	Logging logging.Config `yaml:"logging" json:"logging"`
}

// ScanningConfig holds scanning-related settings
type ScanningConfig struct {
	// Largest subnet (in addresses) a host scan will sweep
	MaxHosts int `yaml:"max_hosts" json:"max_hosts"`

	// Number of concurrent probe workers
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// ICMP echo timeout per host
	PingTimeout time.Duration `yaml:"ping_timeout" json:"ping_timeout"`

	// TCP liveness dial timeout in deep mode
	LivenessTimeout time.Duration `yaml:"liveness_timeout" json:"liveness_timeout"`

	// Ports dialed by the liveness heuristic
	LivenessPorts []uint16 `yaml:"liveness_ports" json:"liveness_ports"`

	// Connect timeout used when a port scan request names none
	PortTimeoutDefault time.Duration `yaml:"port_timeout_default" json:"port_timeout_default"`

	// Bounds applied to requested connect timeouts
	PortTimeoutMin time.Duration `yaml:"port_timeout_min" json:"port_timeout_min"`
	PortTimeoutMax time.Duration `yaml:"port_timeout_max" json:"port_timeout_max"`

	// Reverse name lookup timeout
	HostnameTimeout time.Duration `yaml:"hostname_timeout" json:"hostname_timeout"`

	// Nameservers for PTR lookups ("host:port"); empty reads resolv.conf
	Nameservers []string `yaml:"nameservers,omitempty" json:"nameservers,omitempty"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Listen address
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// Listen port
	Port int `yaml:"port" json:"port"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// Request timeout
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Maximum request size
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size"`

	// Time allowed for runs to stop and connections to drain
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Progress and packet events a stream subscriber may have queued before
	// further ones are skipped. Results and terminal events are never skipped.
	EventBuffer int `yaml:"event_buffer" json:"event_buffer"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	// Enable CORS
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Allowed origins
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	probe := platform.DefaultOptions()
	return &Config{
		Scanning: ScanningConfig{
			MaxHosts:           scanning.DefaultMaxHosts,
			MaxWorkers:         scanning.DefaultMaxWorkers,
			PingTimeout:        probe.PingTimeout,
			LivenessTimeout:    probe.LivenessTimeout,
			LivenessPorts:      probe.LivenessPorts,
			PortTimeoutDefault: scanning.DefaultPortTimeout,
			PortTimeoutMin:     scanning.DefaultMinPortTimeout,
			PortTimeoutMax:     scanning.DefaultMaxPortTimeout,
			HostnameTimeout:    probe.HostnameTimeout,
		},
		Capture: capture.DefaultConfig(),
		API: APIConfig{
			ListenAddr: "127.0.0.1",
			Port:       8080,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
			},
			RequestTimeout:  30 * time.Second,
			MaxRequestSize:  64 * 1024,
			ShutdownTimeout: 10 * time.Second,
			EventBuffer:     256,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file "+path, err)
	}

	// JSON is a subset of YAML, so one decoder serves .yaml, .yml, .json and
	// anything else.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse %s config %s", configFormat(path), path), err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func configFormat(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "JSON"
	case ".yaml", ".yml":
		return "YAML"
	}
	return "YAML (assumed)"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	s := c.Scanning
	switch {
	case s.MaxHosts <= 0:
		return errors.ErrConfigInvalid("scanning.max_hosts", s.MaxHosts)
	case s.MaxWorkers <= 0:
		return errors.ErrConfigInvalid("scanning.max_workers", s.MaxWorkers)
	case s.PingTimeout <= 0:
		return errors.ErrConfigInvalid("scanning.ping_timeout", s.PingTimeout)
	case s.LivenessTimeout <= 0:
		return errors.ErrConfigInvalid("scanning.liveness_timeout", s.LivenessTimeout)
	case s.PortTimeoutMin <= 0:
		return errors.ErrConfigInvalid("scanning.port_timeout_min", s.PortTimeoutMin)
	case s.PortTimeoutMax < s.PortTimeoutMin:
		return errors.ErrConfigInvalid("scanning.port_timeout_max", s.PortTimeoutMax)
	case s.PortTimeoutDefault < s.PortTimeoutMin || s.PortTimeoutDefault > s.PortTimeoutMax:
		return errors.ErrConfigInvalid("scanning.port_timeout_default", s.PortTimeoutDefault)
	}
	for _, p := range s.LivenessPorts {
		if p == 0 {
			return errors.ErrConfigInvalid("scanning.liveness_ports", p)
		}
	}

	if c.Capture.Snaplen <= 0 || c.Capture.Snaplen > 262144 {
		return errors.ErrConfigInvalid("capture.snaplen", c.Capture.Snaplen)
	}
	if c.Capture.PollTimeout <= 0 {
		return errors.ErrConfigInvalid("capture.poll_timeout", c.Capture.PollTimeout)
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return errors.ErrConfigInvalid("api.port", c.API.Port)
	}
	if c.API.ListenAddr == "" {
		return errors.ErrConfigInvalid("api.listen_addr", c.API.ListenAddr)
	}

	validLogLevels := map[logging.LogLevel]bool{
		logging.LevelDebug: true,
		logging.LevelInfo:  true,
		logging.LevelWarn:  true,
		logging.LevelError: true,
	}
	if !validLogLevels[c.Logging.Level] {
		return errors.ErrConfigInvalid("logging.level", c.Logging.Level)
	}

	validLogFormats := map[logging.LogFormat]bool{
		logging.FormatText: true,
		logging.FormatJSON: true,
	}
	if !validLogFormats[c.Logging.Format] {
		return errors.ErrConfigInvalid("logging.format", c.Logging.Format)
	}

	return nil
}

// GetAPIAddress returns the full API address
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddr, c.API.Port)
}

// ScanLimits returns the engine limits derived from the scanning section.
func (c *Config) ScanLimits() scanning.Config {
	return scanning.Config{
		MaxHosts:       c.Scanning.MaxHosts,
		MaxWorkers:     c.Scanning.MaxWorkers,
		PortTimeout:    c.Scanning.PortTimeoutDefault,
		MinPortTimeout: c.Scanning.PortTimeoutMin,
		MaxPortTimeout: c.Scanning.PortTimeoutMax,
	}
}

// ProbeOptions returns the host probe settings derived from the scanning section.
func (c *Config) ProbeOptions() platform.Options {
	opts := platform.DefaultOptions()
	opts.PingTimeout = c.Scanning.PingTimeout
	opts.LivenessTimeout = c.Scanning.LivenessTimeout
	if len(c.Scanning.LivenessPorts) > 0 {
		opts.LivenessPorts = c.Scanning.LivenessPorts
	}
	opts.HostnameTimeout = c.Scanning.HostnameTimeout
	opts.Nameservers = c.Scanning.Nameservers
	return opts
}
