package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MakeTree creates the given slash-separated paths under root. A trailing
// slash creates a directory; anything else creates an empty file, creating
// parent directories as needed.
func MakeTree(t testing.TB, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(p, "/")))
		if strings.HasSuffix(p, "/") {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", full, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}

// TempTree creates a temporary root populated with paths.
func TempTree(t testing.TB, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	MakeTree(t, root, paths...)
	return root
}

// Symlink creates link -> target (both relative to root unless target is
// absolute).
func Symlink(t testing.TB, root, target, link string) {
	t.Helper()
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, filepath.FromSlash(target))
	}
	linkPath := filepath.Join(root, filepath.FromSlash(link))
	if err := os.Symlink(target, linkPath); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

// Chmod changes permissions and restores 0o755 when the test ends so
// t.TempDir cleanup can remove the directory.
func Chmod(t testing.TB, path string, mode os.FileMode) {
	t.Helper()
	if err := os.Chmod(path, mode); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(path, 0o755)
	})
}

// SkipIfRoot skips permission tests, which root bypasses.
func SkipIfRoot(t testing.TB) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
}
