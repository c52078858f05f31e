package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/livetree/pkg/config"
	"github.com/vanderheijden86/livetree/pkg/testutil"
	"github.com/vanderheijden86/livetree/pkg/version"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionFlag(t *testing.T) {
	isolateConfig(t)
	code, out, _ := runCLI(t, "--version")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out, "livetree "+version.Version) {
		t.Errorf("stdout = %q", out)
	}
}

func TestHelpFlag(t *testing.T) {
	isolateConfig(t)
	code, _, errOut := runCLI(t, "--help")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	for _, want := range []string{"real-time directory tree watcher", "--level", "--ignore", "--all", "--dirs-only", "--debounce", "--quiet", "--verbose", "Examples:"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	isolateConfig(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"two directories", []string{"a", "b"}},
		{"bad policy", []string{"--on-root-deleted", "explode", "."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, tt.args...); code != exitUsage {
				t.Errorf("exit = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestUnusableRoot(t *testing.T) {
	isolateConfig(t)
	root := testutil.TempTree(t, "afile.txt")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(root, "does-not-exist"), "no such file or directory"},
		{filepath.Join(root, "afile.txt"), "not a directory"},
	}
	for _, tt := range tests {
		code, _, errOut := runCLI(t, tt.path)
		if code != exitError {
			t.Errorf("%s: exit = %d, want %d", tt.path, code, exitError)
		}
		if !strings.Contains(errOut, tt.want) || !strings.Contains(errOut, tt.path) {
			t.Errorf("%s: stderr = %q, want path and %q", tt.path, errOut, tt.want)
		}
	}
}

func TestInitConfigWritesEffectiveConfig(t *testing.T) {
	isolateConfig(t)
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "livetree.yaml")

	code, out, errOut := runCLI(t, "--config", path, "--init-config", "--debounce", "500", "-L", "3", "--on-root-deleted", "wait", root)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %q", code, errOut)
	}
	if !strings.Contains(out, path) {
		t.Errorf("stdout = %q", out)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Watch.Debounce.D() != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Watch.Debounce.D())
	}
	if cfg.Tree.MaxDepth != 3 || cfg.OnRootDeleted != config.PolicyWait {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "watch:\n  debounce: 300ms\ntree:\n  max_depth: 4\n  show_hidden: true\n  ignore: [\"*.log\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	flags := newFlags(&bytes.Buffer{})
	if _, err := flags.parse([]string{"--config", path, "-L", "1", "-I", "dist"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if err := flags.apply(&cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if cfg.Tree.MaxDepth != 1 {
		t.Errorf("max depth = %d, want the flag value 1", cfg.Tree.MaxDepth)
	}
	if !cfg.Tree.ShowHidden {
		t.Error("show_hidden from the file was lost")
	}
	if cfg.Watch.Debounce.D() != 300*time.Millisecond {
		t.Errorf("debounce = %v, want the file value", cfg.Watch.Debounce.D())
	}
	if got := strings.Join(cfg.Tree.Ignore, ","); got != "*.log,dist" {
		t.Errorf("ignore = %q", got)
	}
}

func TestDebounceFloorNote(t *testing.T) {
	isolateConfig(t)
	flags := newFlags(&bytes.Buffer{})
	dir, err := flags.parse([]string{"--debounce", "10", t.TempDir()})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var stderr bytes.Buffer
	s, err := resolve(flags, dir, &stderr)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.cfg.Watch.Debounce.D() != config.DefaultMinDebounce {
		t.Errorf("debounce = %v, want the floor", s.cfg.Watch.Debounce.D())
	}
	if !strings.Contains(stderr.String(), "raised to") {
		t.Errorf("stderr = %q, want a note about the floor", stderr.String())
	}
}

func TestUseColor(t *testing.T) {
	var notTTY bytes.Buffer
	tests := []struct {
		name    string
		noColor bool
		env     []string
	}{
		{"flag", true, []string{"TERM=xterm-256color"}},
		{"env", false, []string{"TERM=xterm-256color", "NO_COLOR=1"}},
		{"not a terminal", false, []string{"TERM=xterm-256color"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if useColor(tt.noColor, &notTTY, tt.env) {
				t.Error("expected color to be off")
			}
		})
	}
}
