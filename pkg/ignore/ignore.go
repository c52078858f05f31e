// Package ignore compiles exclusion patterns into a path predicate.
//
// Patterns use gitignore syntax and are matched against the slash-separated
// path relative to the watched root, so multi-segment patterns such as
// "target/**" or "docs/*.md" behave the way they do in a .gitignore file.
// A pattern without a slash matches the entry name at any depth.
package ignore

import (
	"path"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultPatterns are excluded unless the caller opts out.
var DefaultPatterns = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"__pycache__",
	".DS_Store",
}

// Matcher reports whether a root-relative path is excluded.
// A nil *Matcher matches nothing.
type Matcher struct {
	patterns []string
	parser   gitignore.IgnoreParser
}

// New compiles patterns (plus DefaultPatterns when withDefaults is set).
// Malformed patterns are skipped and returned so the caller can report them.
func New(patterns []string, withDefaults bool) (*Matcher, []string) {
	var lines, invalid []string
	if withDefaults {
		lines = append(lines, DefaultPatterns...)
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if !valid(p) {
			invalid = append(invalid, p)
			continue
		}
		lines = append(lines, p)
	}

	m := &Matcher{patterns: lines}
	if len(lines) > 0 {
		m.parser = gitignore.CompileIgnoreLines(lines...)
	}
	return m, invalid
}

// Default returns a matcher holding only DefaultPatterns.
func Default() *Matcher {
	m, _ := New(nil, true)
	return m
}

// Patterns returns the compiled pattern list.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// Match reports whether rel (relative to the root, either separator style)
// is excluded. Directory-only patterns ("build/") need isDir set.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil || m.parser == nil {
		return false
	}
	rel = strings.TrimPrefix(toSlash(rel), "./")
	rel = strings.Trim(rel, "/")
	if rel == "" || rel == "." {
		return false
	}
	if m.parser.MatchesPath(rel) {
		return true
	}
	return isDir && m.parser.MatchesPath(rel+"/")
}

// valid rejects patterns with unbalanced character classes or a dangling
// escape. path.Match performs the same syntax check gitignore globs rely on.
func valid(p string) bool {
	body := strings.TrimPrefix(p, "!")
	body = strings.TrimSuffix(body, "/")
	_, err := path.Match(body, "")
	return err == nil
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
