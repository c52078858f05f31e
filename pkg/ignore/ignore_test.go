package ignore

import (
	"reflect"
	"testing"
)

func TestDefaultPatterns(t *testing.T) {
	m := Default()

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{".git", true, true},
		{"node_modules", true, true},
		{"web/node_modules", true, true},
		{"pkg/__pycache__", true, true},
		{".DS_Store", false, true},
		{"src", true, false},
		{"src/main.go", false, false},
		{"gitignore.txt", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.rel, tt.isDir); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.rel, tt.isDir, got, tt.want)
		}
	}
}

func TestMultiSegmentPatterns(t *testing.T) {
	m, invalid := New([]string{"target/**", "docs/*.md", "*.o"}, false)
	if len(invalid) != 0 {
		t.Fatalf("unexpected invalid patterns: %v", invalid)
	}

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"target/debug", true, true},
		{"target/debug/app", false, true},
		{"docs/readme.md", false, true},
		{"docs/guide/readme.md", false, false},
		{"readme.md", false, false},
		{"lib/x.o", false, true},
		{"lib/x.go", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.rel, tt.isDir); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.rel, tt.isDir, got, tt.want)
		}
	}
}

func TestDirectoryOnlyPattern(t *testing.T) {
	m, _ := New([]string{"build/"}, false)

	if !m.Match("build", true) {
		t.Error("expected directory build to match build/")
	}
	if m.Match("build", false) {
		t.Error("a regular file named build should not match build/")
	}
}

func TestInvalidPatternsReported(t *testing.T) {
	m, invalid := New([]string{"[abc", "ok.txt", "  ", "# comment"}, false)

	if !reflect.DeepEqual(invalid, []string{"[abc"}) {
		t.Errorf("invalid = %v, want [[abc]", invalid)
	}
	if !m.Match("ok.txt", false) {
		t.Error("valid pattern should still be compiled")
	}
}

func TestNoDefaults(t *testing.T) {
	m, _ := New(nil, false)
	if m.Match(".git", true) {
		t.Error("defaults should not apply when withDefaults is false")
	}
	if len(m.Patterns()) != 0 {
		t.Errorf("expected no patterns, got %v", m.Patterns())
	}
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	if m.Match("anything", false) {
		t.Error("nil matcher must match nothing")
	}
}

func TestBackslashSeparators(t *testing.T) {
	m, _ := New([]string{"docs/*.md"}, false)
	if !m.Match(`docs\readme.md`, false) {
		t.Error("expected backslash-separated path to be normalized")
	}
}
