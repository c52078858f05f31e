// Package config handles loading and saving livetree configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/livetree/config.yaml
//
// Command-line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDebounce     = 200 * time.Millisecond
	DefaultMinDebounce  = 50 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
	DefaultMaxEntries   = 10000
	DefaultHighlight    = 3 * time.Second
	MaxHighlight        = time.Hour
	DefaultJoinTimeout  = 2 * time.Second
)

// ErrInvalidPolicy is returned for an unknown on_root_deleted value.
var ErrInvalidPolicy = errors.New("on_root_deleted must be \"exit\" or \"wait\"")

// RootDeletedPolicy decides what happens when the watched root disappears.
type RootDeletedPolicy string

const (
	// PolicyExit ends the program.
	PolicyExit RootDeletedPolicy = "exit"
	// PolicyWait keeps running and resumes once the root reappears.
	PolicyWait RootDeletedPolicy = "wait"
)

// ParsePolicy accepts "exit" or "wait", case-insensitively.
func ParsePolicy(s string) (RootDeletedPolicy, error) {
	switch p := RootDeletedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyExit, PolicyWait:
		return p, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidPolicy)
}

// Duration is a time.Duration written as "200ms" or "2s" in YAML.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML accepts duration strings and plain integers (milliseconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var ms int64
	if err := value.Decode(&ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// WatchConfig controls the filesystem watcher.
type WatchConfig struct {
	Debounce     Duration `yaml:"debounce,omitempty"`
	MinDebounce  Duration `yaml:"min_debounce,omitempty"`
	ForcePoll    bool     `yaml:"force_poll,omitempty"`    // scan instead of fsnotify (network mounts)
	PollInterval Duration `yaml:"poll_interval,omitempty"` // scan interval when polling
}

// TreeConfig controls what the tree shows.
type TreeConfig struct {
	MaxDepth         int      `yaml:"max_depth,omitempty"` // 0 = unbounded
	ShowHidden       bool     `yaml:"show_hidden,omitempty"`
	DirsOnly         bool     `yaml:"dirs_only,omitempty"`
	FollowSymlinks   bool     `yaml:"follow_symlinks,omitempty"`
	Ignore           []string `yaml:"ignore,omitempty"`
	NoDefaultIgnores bool     `yaml:"no_default_ignores,omitempty"`
	MaxEntries       int      `yaml:"max_entries,omitempty"` // negative = unbounded
}

// DisplayConfig holds presentation preferences.
type DisplayConfig struct {
	NoColor   bool     `yaml:"no_color,omitempty"`
	NoTitle   bool     `yaml:"no_title,omitempty"`
	Highlight Duration `yaml:"highlight,omitempty"`
}

// Config is the top-level configuration for livetree.
type Config struct {
	Watch         WatchConfig       `yaml:"watch,omitempty"`
	Tree          TreeConfig        `yaml:"tree,omitempty"`
	Display       DisplayConfig     `yaml:"display,omitempty"`
	OnRootDeleted RootDeletedPolicy `yaml:"on_root_deleted,omitempty"`
	JoinTimeout   Duration          `yaml:"join_timeout,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Watch: WatchConfig{
			Debounce:     Duration(DefaultDebounce),
			MinDebounce:  Duration(DefaultMinDebounce),
			PollInterval: Duration(DefaultPollInterval),
		},
		Tree: TreeConfig{
			MaxEntries: DefaultMaxEntries,
		},
		Display: DisplayConfig{
			Highlight: Duration(DefaultHighlight),
		},
		OnRootDeleted: PolicyExit,
		JoinTimeout:   Duration(DefaultJoinTimeout),
	}
}

// ConfigDir returns the XDG config directory for livetree.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "livetree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "livetree")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate fixes out-of-range values in place and returns a note for each
// adjustment. Only an unknown root-deleted policy is an error.
func (c *Config) Validate() ([]string, error) {
	var notes []string

	if c.OnRootDeleted == "" {
		c.OnRootDeleted = PolicyExit
	}
	p, err := ParsePolicy(string(c.OnRootDeleted))
	if err != nil {
		return notes, err
	}
	c.OnRootDeleted = p

	if c.Watch.MinDebounce <= 0 {
		c.Watch.MinDebounce = Duration(DefaultMinDebounce)
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = Duration(DefaultDebounce)
	}
	if c.Watch.Debounce < c.Watch.MinDebounce {
		notes = append(notes, fmt.Sprintf("debounce %v raised to the %v minimum",
			c.Watch.Debounce.D(), c.Watch.MinDebounce.D()))
		c.Watch.Debounce = c.Watch.MinDebounce
	}
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = Duration(DefaultPollInterval)
	}

	if c.Tree.MaxDepth < 0 {
		notes = append(notes, fmt.Sprintf("max depth %d treated as unbounded", c.Tree.MaxDepth))
		c.Tree.MaxDepth = 0
	}
	if c.Tree.MaxEntries == 0 {
		c.Tree.MaxEntries = DefaultMaxEntries
	}

	if c.Display.Highlight < 0 {
		c.Display.Highlight = 0
	}
	if c.Display.Highlight > Duration(MaxHighlight) {
		notes = append(notes, fmt.Sprintf("highlight %v capped at %v", c.Display.Highlight.D(), MaxHighlight))
		c.Display.Highlight = Duration(MaxHighlight)
	}

	if c.JoinTimeout <= 0 {
		c.JoinTimeout = Duration(DefaultJoinTimeout)
	}
	return notes, nil
}

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
