package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/vanderheijden86/livetree/pkg/config"
)

// cliFlags holds the parsed command line. Values only override the config
// file when the flag was given explicitly.
type cliFlags struct {
	fs *pflag.FlagSet

	configPath string
	initConfig bool
	version    bool
	quiet      bool
	verbose    bool

	level            int
	ignore           []string
	all              bool
	dirsOnly         bool
	follow           bool
	noDefaultIgnores bool
	maxEntries       int

	debounceMs    int
	minDebounceMs int
	poll          bool

	noColor       bool
	noTitle       bool
	highlight     time.Duration
	onRootDeleted string
}

const usageHeader = `livetree - real-time directory tree watcher

Usage:
  livetree [flags] [directory]

Examples:
  livetree                      watch the current directory
  livetree -L 2 ~/src           two levels deep
  livetree -I 'target/**' -a .  include dotfiles, skip build output
  livetree --on-root-deleted wait /mnt/share

Flags:
`

func newFlags(stderr io.Writer) *cliFlags {
	c := &cliFlags{fs: pflag.NewFlagSet("livetree", pflag.ContinueOnError)}
	fs := c.fs
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.IntVarP(&c.level, "level", "L", 0, "Max display depth (0 = unlimited)")
	fs.StringArrayVarP(&c.ignore, "ignore", "I", nil, "Gitignore-style pattern to exclude (repeatable)")
	fs.BoolVarP(&c.all, "all", "a", false, "Show hidden files")
	fs.BoolVarP(&c.dirsOnly, "dirs-only", "D", false, "Only show directories")
	fs.BoolVarP(&c.follow, "follow-symlinks", "f", false, "Follow symbolic links to directories")
	fs.BoolVar(&c.noDefaultIgnores, "no-default-ignores", false, "Do not skip .git, node_modules and friends")
	fs.IntVar(&c.maxEntries, "max-entries", config.DefaultMaxEntries, "Stop listing after this many entries (-1 = unlimited)")
	fs.IntVar(&c.debounceMs, "debounce", int(config.DefaultDebounce/time.Millisecond), "Debounce interval in milliseconds")
	fs.IntVar(&c.minDebounceMs, "min-debounce", int(config.DefaultMinDebounce/time.Millisecond), "Lowest accepted debounce in milliseconds")
	fs.BoolVar(&c.poll, "poll", false, "Scan periodically instead of using filesystem notifications")
	fs.BoolVar(&c.noColor, "no-color", false, "Disable colored output (also NO_COLOR)")
	fs.BoolVar(&c.noTitle, "no-title", false, "Do not set the terminal window title")
	fs.DurationVar(&c.highlight, "highlight", config.DefaultHighlight, "How long changed entries stay highlighted (0 disables)")
	fs.StringVar(&c.onRootDeleted, "on-root-deleted", string(config.PolicyExit), "What to do when the directory is deleted: exit or wait")
	fs.StringVar(&c.configPath, "config", "", "Config file (default "+config.ConfigPath()+")")
	fs.BoolVar(&c.initConfig, "init-config", false, "Write the effective configuration to the config file and exit")
	fs.BoolVarP(&c.quiet, "quiet", "q", false, "Keep watcher errors off the status bar")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "Print startup details to stderr")
	fs.BoolVar(&c.version, "version", false, "Show version")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}
	return c
}

// parse parses args and returns the directory argument.
func (c *cliFlags) parse(args []string) (string, error) {
	if err := c.fs.Parse(args); err != nil {
		return "", err
	}
	switch rest := c.fs.Args(); len(rest) {
	case 0:
		return ".", nil
	case 1:
		return rest[0], nil
	default:
		return "", fmt.Errorf("expected at most one directory, got %d", len(rest))
	}
}

// apply overrides cfg with every flag set on the command line.
func (c *cliFlags) apply(cfg *config.Config) error {
	changed := c.fs.Changed

	if changed("level") {
		cfg.Tree.MaxDepth = c.level
	}
	if changed("ignore") {
		cfg.Tree.Ignore = append(cfg.Tree.Ignore, c.ignore...)
	}
	if changed("all") {
		cfg.Tree.ShowHidden = c.all
	}
	if changed("dirs-only") {
		cfg.Tree.DirsOnly = c.dirsOnly
	}
	if changed("follow-symlinks") {
		cfg.Tree.FollowSymlinks = c.follow
	}
	if changed("no-default-ignores") {
		cfg.Tree.NoDefaultIgnores = c.noDefaultIgnores
	}
	if changed("max-entries") {
		cfg.Tree.MaxEntries = c.maxEntries
	}
	if changed("debounce") {
		cfg.Watch.Debounce = config.Duration(time.Duration(c.debounceMs) * time.Millisecond)
	}
	if changed("min-debounce") {
		cfg.Watch.MinDebounce = config.Duration(time.Duration(c.minDebounceMs) * time.Millisecond)
	}
	if changed("poll") {
		cfg.Watch.ForcePoll = c.poll
	}
	if changed("no-color") {
		cfg.Display.NoColor = c.noColor
	}
	if changed("no-title") {
		cfg.Display.NoTitle = c.noTitle
	}
	if changed("highlight") {
		cfg.Display.Highlight = config.Duration(c.highlight)
	}
	if changed("on-root-deleted") {
		p, err := config.ParsePolicy(c.onRootDeleted)
		if err != nil {
			return err
		}
		cfg.OnRootDeleted = p
	}
	return nil
}
