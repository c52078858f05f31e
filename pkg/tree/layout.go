package tree

import "strings"

// Connector glyphs.
const (
	GlyphBranch  = "├── "
	GlyphLast    = "└── "
	GlyphPipe    = "│   "
	GlyphBlank   = "    "
	glyphColumns = 4
)

// Prefix returns the connector string for an entry whose ancestors (outermost
// first, excluding the root) had the given was-last flags.
func Prefix(ancestorsLast []bool, isLast bool) string {
	var b strings.Builder
	b.Grow((len(ancestorsLast) + 1) * glyphColumns * 3)
	for _, last := range ancestorsLast {
		if last {
			b.WriteString(GlyphBlank)
		} else {
			b.WriteString(GlyphPipe)
		}
	}
	if isLast {
		b.WriteString(GlyphLast)
	} else {
		b.WriteString(GlyphBranch)
	}
	return b.String()
}

// Layout assigns IsLast and Prefix to entries that are already in display
// order. It only looks at Depth, so it is also correct for a sequence that was
// cut short by the entry cap.
func Layout(entries []Entry) {
	markLast(entries)

	stack := make([]bool, 0, 16)
	for i := range entries {
		d := entries[i].Depth
		if d < 1 {
			entries[i].Prefix = ""
			stack = stack[:0]
			continue
		}
		if len(stack) > d-1 {
			stack = stack[:d-1]
		}
		for len(stack) < d-1 {
			// Only reachable with a malformed depth jump; treat the missing
			// ancestor as having more siblings.
			stack = append(stack, false)
		}
		entries[i].Prefix = Prefix(stack, entries[i].IsLast)
		stack = append(stack, entries[i].IsLast)
	}
}

// markLast walks backwards. seen[d] records whether a later sibling at depth d
// exists in the current parent scope; reaching a shallower entry closes every
// deeper scope.
func markLast(entries []Entry) {
	var seen []bool
	for i := len(entries) - 1; i >= 0; i-- {
		d := entries[i].Depth
		if d < 0 {
			d = 0
		}
		for len(seen) <= d {
			seen = append(seen, false)
		}
		entries[i].IsLast = !seen[d]
		seen[d] = true
		for k := d + 1; k < len(seen); k++ {
			seen[k] = false
		}
	}
}
