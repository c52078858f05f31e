package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/livetree/pkg/tree"
)

// AssertEntryCount verifies the expected number of entries.
func AssertEntryCount(t *testing.T, entries []tree.Entry, expected int) {
	t.Helper()
	if len(entries) != expected {
		t.Errorf("expected %d entries, got %d: %v", expected, len(entries), Names(entries))
	}
}

// AssertNames verifies the display names in order.
func AssertNames(t *testing.T, entries []tree.Entry, expected ...string) {
	t.Helper()
	got := Names(entries)
	if strings.Join(got, "|") != strings.Join(expected, "|") {
		t.Errorf("names mismatch:\nexpected: %v\nactual:   %v", expected, got)
	}
}

// AssertSiblingInvariant verifies that every sibling group has exactly one
// IsLast entry and that it is the group's final member.
func AssertSiblingInvariant(t *testing.T, entries []tree.Entry) {
	t.Helper()
	for _, group := range SiblingGroups(entries) {
		lastCount := 0
		for _, idx := range group {
			if entries[idx].IsLast {
				lastCount++
			}
		}
		final := group[len(group)-1]
		if lastCount != 1 {
			t.Errorf("sibling group starting at %q has %d IsLast entries, want 1",
				entries[group[0]].Name, lastCount)
			continue
		}
		if !entries[final].IsLast {
			t.Errorf("IsLast should be on %q, the final member of its group", entries[final].Name)
		}
	}
}

// AssertNoEntry verifies no entry carries the given name.
func AssertNoEntry(t *testing.T, entries []tree.Entry, name string) {
	t.Helper()
	if e := FindEntry(entries, name); e != nil {
		t.Errorf("expected %q to be absent, found at depth %d", name, e.Depth)
	}
}

// MustFind returns the entry with the given name or fails the test.
func MustFind(t *testing.T, entries []tree.Entry, name string) tree.Entry {
	t.Helper()
	e := FindEntry(entries, name)
	if e == nil {
		t.Fatalf("entry %q not found in %v", name, Names(entries))
	}
	return *e
}

// GoldenFile helps with golden file testing.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %q\nactual:   %q", i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// Names returns the entry names in order.
func Names(entries []tree.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// FindEntry returns the first entry with the given name, or nil.
func FindEntry(entries []tree.Entry, name string) *tree.Entry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

// SiblingGroups returns entry indexes grouped by parent, in display order.
// Parents are identified by filepath.Dir of the entry path.
func SiblingGroups(entries []tree.Entry) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i, e := range entries {
		key := filepath.Dir(e.Path)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	out := make([][]int, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}
