package watcher

import (
	"io/fs"
	"path/filepath"
)

// stamp is what polling compares between scans.
type stamp struct {
	mod  int64 // UnixNano
	size int64
	mode fs.FileMode
}

// scan records every non-ignored path under the root. Unreadable
// directories are skipped; only a failure on the root is returned.
func (w *FSWatcher) scan() (map[string]stamp, error) {
	out := make(map[string]stamp)
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return err
			}
			return fs.SkipDir
		}
		if path != w.root && w.ignored(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out[path] = stamp{mod: info.ModTime().UnixNano(), size: info.Size(), mode: info.Mode()}
		return nil
	})
	return out, err
}

// diff adds every created, removed or modified path to pending and reports
// whether there was any.
func diff(prev, next map[string]stamp, pending map[string]struct{}) bool {
	changed := false
	for p, s := range next {
		if old, ok := prev[p]; !ok || old != s {
			pending[p] = struct{}{}
			changed = true
		}
	}
	for p := range prev {
		if _, ok := next[p]; !ok {
			pending[p] = struct{}{}
			changed = true
		}
	}
	return changed
}
