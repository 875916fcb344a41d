package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration.
const DefaultPath = "splatter.yml"

const (
	defaultNetwork      = "local"
	defaultRedisURL     = "redis://localhost:6379/0"
	defaultHealthAddr   = ":8080"
	defaultLiveViewAddr = ":8090"
	defaultPanelSide    = 64
)

var networkPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// SplatterConfig represents the top-level splatter.yml configuration
type SplatterConfig struct {
	Version      string        `yaml:"version"`
	Network      string        `yaml:"network,omitempty"`       // Ledger namespace (default: local)
	RedisURL     string        `yaml:"redis_url,omitempty"`     // Ledger Redis server
	CanvasID     uint64        `yaml:"canvas_id,omitempty"`     // 0 = newest canvas
	LockDuration time.Duration `yaml:"lock_duration,omitempty"` // Open time before a canvas can be locked
	Account      string        `yaml:"account,omitempty"`       // Sender for commit/lock/new
	Matrix       *MatrixConfig `yaml:"matrix,omitempty"`
	HealthAddr   string        `yaml:"health_addr,omitempty"`
	LiveViewAddr string        `yaml:"liveview_addr,omitempty"`
}

// MatrixConfig describes the LED panel driven by splatter-led
type MatrixConfig struct {
	Rows       int    `yaml:"rows,omitempty"`
	Cols       int    `yaml:"cols,omitempty"`
	Brightness int    `yaml:"brightness,omitempty"` // Percent, 1..100
	Output     string `yaml:"output,omitempty"`     // "terminal" or "framebuffer"
	FramePath  string `yaml:"frame_path,omitempty"` // PNG written on every sync (framebuffer only)
}

// Default returns a configuration with every default applied.
func Default() *SplatterConfig {
	c := &SplatterConfig{Version: "1.0"}
	// Defaults always validate.
	_ = c.Validate()
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted fields.
func (c *SplatterConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Network == "" {
		c.Network = defaultNetwork
	}
	if !networkPattern.MatchString(c.Network) {
		return fmt.Errorf("invalid network name '%s': use lowercase letters, digits, '-' or '_'", c.Network)
	}

	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}
	if _, err := redis.ParseURL(c.RedisURL); err != nil {
		return fmt.Errorf("invalid redis_url: %w", err)
	}

	if c.LockDuration == 0 {
		c.LockDuration = canvas.DefaultLockDuration
	}
	if c.LockDuration < 0 {
		return fmt.Errorf("lock_duration must be positive, got %s", c.LockDuration)
	}

	if c.Account != "" && !chain.IsValidAddress(c.Account) {
		return fmt.Errorf("invalid account '%s': expected 0x followed by 40 hex digits", c.Account)
	}

	if c.Matrix == nil {
		c.Matrix = &MatrixConfig{}
	}
	if err := c.Matrix.Validate(); err != nil {
		return fmt.Errorf("matrix: %w", err)
	}

	if c.HealthAddr == "" {
		c.HealthAddr = defaultHealthAddr
	}
	if c.LiveViewAddr == "" {
		c.LiveViewAddr = defaultLiveViewAddr
	}

	return nil
}

// Validate checks the panel geometry and output and applies defaults.
func (m *MatrixConfig) Validate() error {
	if m.Rows == 0 {
		m.Rows = defaultPanelSide
	}
	if m.Cols == 0 {
		m.Cols = defaultPanelSide
	}
	if m.Rows != m.Cols {
		return fmt.Errorf("panel must be square, got %dx%d", m.Cols, m.Rows)
	}
	if m.Cols < canvas.Width || m.Cols%canvas.Width != 0 {
		return fmt.Errorf("panel side %d is not a multiple of the canvas side %d", m.Cols, canvas.Width)
	}

	if m.Brightness == 0 {
		m.Brightness = 100
	}
	if m.Brightness < 1 || m.Brightness > 100 {
		return fmt.Errorf("brightness must be in [1, 100], got %d", m.Brightness)
	}

	if m.Output == "" {
		m.Output = "terminal"
	}
	if m.Output != "terminal" && m.Output != "framebuffer" {
		return fmt.Errorf("invalid output: %s (must be 'terminal' or 'framebuffer')", m.Output)
	}
	if m.FramePath != "" && m.Output != "framebuffer" {
		return fmt.Errorf("frame_path requires output 'framebuffer'")
	}

	return nil
}

// RequireAccount returns an error unless a sender account is configured.
func (c *SplatterConfig) RequireAccount() error {
	if c.Account == "" {
		return fmt.Errorf("no account configured: set 'account' in %s or SPLATTER_ACCOUNT", DefaultPath)
	}
	return nil
}

// RedisOptions parses RedisURL.
func (c *SplatterConfig) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis_url: %w", err)
	}
	return opts, nil
}

// ApplyEnv overrides file values with environment variables:
// REDIS_URL, SPLATTER_NETWORK, SPLATTER_ACCOUNT and SPLATTER_CANVAS_ID.
// The result is validated again.
func (c *SplatterConfig) ApplyEnv(getenv func(string) string) error {
	if v := getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := getenv("SPLATTER_NETWORK"); v != "" {
		c.Network = v
	}
	if v := getenv("SPLATTER_ACCOUNT"); v != "" {
		c.Account = v
	}
	if v := getenv("SPLATTER_CANVAS_ID"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SPLATTER_CANVAS_ID: %w", err)
		}
		c.CanvasID = id
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads and validates splatter.yml from the specified path
func Load(path string) (*SplatterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SplatterConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*SplatterConfig, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
