// Command livetree shows a directory tree that redraws itself whenever
// something under the directory changes.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/pflag"

	"github.com/vanderheijden86/livetree/pkg/app"
	"github.com/vanderheijden86/livetree/pkg/config"
	"github.com/vanderheijden86/livetree/pkg/ignore"
	"github.com/vanderheijden86/livetree/pkg/render"
	"github.com/vanderheijden86/livetree/pkg/terminal"
	"github.com/vanderheijden86/livetree/pkg/tree"
	"github.com/vanderheijden86/livetree/pkg/version"
	"github.com/vanderheijden86/livetree/pkg/watcher"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	defer terminal.RestoreOnPanic()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// settings is everything resolved before the terminal is touched.
type settings struct {
	root    string
	cfg     config.Config
	tree    tree.Config
	color   bool
	quiet   bool
	verbose bool
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := newFlags(stderr)
	dir, err := flags.parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "livetree: %v\n", err)
		return exitUsage
	}
	if flags.version {
		fmt.Fprintf(stdout, "livetree %s\n", version.Version)
		return exitOK
	}

	s, err := resolve(flags, dir, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "livetree: %v\n", err)
		if errors.Is(err, config.ErrInvalidPolicy) {
			return exitUsage
		}
		return exitError
	}

	if flags.initConfig {
		path := flags.configPath
		if path == "" {
			path = config.ConfigPath()
		}
		if err := config.SaveTo(s.cfg, config.ExpandHome(path)); err != nil {
			fmt.Fprintf(stderr, "livetree: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
		return exitOK
	}

	return watch(s, stderr)
}

// resolve merges the config file and flags and checks the directory.
func resolve(flags *cliFlags, dir string, stderr io.Writer) (settings, error) {
	var (
		cfg config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFrom(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return settings{}, err
	}
	if err := flags.apply(&cfg); err != nil {
		return settings{}, err
	}
	notes, err := cfg.Validate()
	if err != nil {
		return settings{}, err
	}
	for _, n := range notes {
		fmt.Fprintf(stderr, "livetree: %s\n", n)
	}

	root, err := checkRoot(dir)
	if err != nil {
		return settings{}, err
	}

	matcher, invalid := ignore.New(cfg.Tree.Ignore, !cfg.Tree.NoDefaultIgnores)
	for _, p := range invalid {
		fmt.Fprintf(stderr, "livetree: ignoring invalid pattern %q\n", p)
	}

	return settings{
		root: root,
		cfg:  cfg,
		tree: tree.Config{
			MaxDepth:       cfg.Tree.MaxDepth,
			ShowHidden:     cfg.Tree.ShowHidden,
			DirsOnly:       cfg.Tree.DirsOnly,
			FollowSymlinks: cfg.Tree.FollowSymlinks,
			Ignore:         matcher,
			MaxEntries:     cfg.Tree.MaxEntries,
		},
		color:   useColor(cfg.Display.NoColor, os.Stdout, os.Environ()),
		quiet:   flags.quiet,
		verbose: flags.verbose,
	}, nil
}

// checkRoot resolves dir and requires it to be an existing directory.
func checkRoot(dir string) (string, error) {
	abs, err := filepath.Abs(config.ExpandHome(dir))
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return "", fmt.Errorf("%w %s: %w", app.ErrRootUnusable, abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w %s: not a directory", app.ErrRootUnusable, abs)
	}
	return abs, nil
}

// useColor honors NO_COLOR, --no-color and the detected terminal profile.
func useColor(noColor bool, out io.Writer, env []string) bool {
	if noColor {
		return false
	}
	for _, kv := range env {
		if strings.HasPrefix(kv, "NO_COLOR=") && kv != "NO_COLOR=" {
			return false
		}
	}
	return colorprofile.Detect(out, env) >= colorprofile.ANSI
}

// watch owns the terminal for the lifetime of the event loop.
func watch(s settings, stderr io.Writer) int {
	if s.verbose {
		fmt.Fprintf(stderr, "livetree: watching %s (debounce=%v, color=%v, policy=%s)\n",
			s.root, s.cfg.Watch.Debounce.D(), s.color, s.cfg.OnRootDeleted)
	}

	width, height := terminal.Size(os.Stdout)
	opts := terminal.Options{AltScreen: true}
	if !s.cfg.Display.NoTitle {
		opts.Title = render.Title(filepath.Base(s.root))
	}
	guard, err := terminal.Acquire(os.Stdin, os.Stdout, opts)
	if err != nil {
		fmt.Fprintf(stderr, "livetree: %v\n", err)
		return exitError
	}

	signals := make(chan os.Signal, 1)
	hook := terminal.InstallHook(signals, terminal.DefaultGrace)

	home, _ := os.UserHomeDir()
	out := bufio.NewWriterSize(os.Stdout, 64*1024)
	a, err := app.New(app.Options{
		Root:    s.root,
		Tree:    s.tree,
		Render:  render.Config{UseColor: s.color, Width: width},
		Height:  height,
		Builder: tree.FS,
		NewWatcher: func() (watcher.Watcher, error) {
			return watcher.New(s.root,
				watcher.WithDebounceDuration(s.cfg.Watch.Debounce.D()),
				watcher.WithMinDebounce(s.cfg.Watch.MinDebounce.D()),
				watcher.WithIgnore(s.tree.Ignore),
				watcher.WithHideHidden(!s.tree.ShowHidden),
				watcher.WithForcePoll(s.cfg.Watch.ForcePoll),
				watcher.WithPollInterval(s.cfg.Watch.PollInterval.D()),
			)
		},
		Input:       terminal.NewReader(os.Stdin, os.Stdout),
		Painter:     terminal.NewFrameWriter(out),
		Signals:     signals,
		Policy:      s.cfg.OnRootDeleted,
		Highlight:   s.cfg.Display.Highlight.D(),
		JoinTimeout: s.cfg.JoinTimeout.D(),
		Quiet:       s.quiet,
		Home:        home,
	})
	if err == nil {
		err = a.Run(context.Background())
	}

	hook.Stop()
	if rerr := guard.Release(); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "livetree: %v\n", err)
		return exitError
	}
	if sig := a.Signal(); sig != nil {
		return terminal.ExitCode(sig)
	}
	return exitOK
}
