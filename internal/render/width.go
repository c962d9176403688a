// Package render implements the progressive TTY table: escape-aware
// width accounting, in-place row redraws, and the status-glyph style
// table.
package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/clipperhouse/displaywidth"
)

// Reset is appended after any truncation that might have opened an SGR
// sequence, preventing style bleed into the rest of the line.
const Reset = "\x1b[0m"

const ellipsis = "…"

// VisibleWidth measures the unicode-aware, escape-stripped width of s:
// ANSI SGR codes and OSC 8 hyperlinks contribute zero width.
func VisibleWidth(s string) int {
	return displaywidth.String(ansi.Strip(s))
}

// TruncateVisible truncates s to at most width visible columns,
// preserving escape sequences (including OSC 8 hyperlinks) and
// appending an ellipsis plus Reset when truncation occurred. Idempotent:
// truncating an already-truncated string to the same width is a no-op.
func TruncateVisible(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if VisibleWidth(s) <= width {
		return s
	}

	budget := width - VisibleWidth(ellipsis)
	if budget < 0 {
		budget = 0
	}

	truncated := ansi.Truncate(s, budget, "")
	var out strings.Builder
	out.WriteString(truncated)
	out.WriteString(ellipsis)
	out.WriteString(Reset)
	return out.String()
}
