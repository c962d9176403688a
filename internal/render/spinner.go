package render

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner cycles through a predefined bubbles/spinner frame set without
// running a bubbletea.Program loop: the progressive table drives its own
// redraw cadence (one frame per footer update), so only the frame data
// is reused here, not the Elm-architecture runtime around it.
type Spinner struct {
	frames []string
	pos    int
}

// NewSpinner builds a Spinner over spinner.Dot's frames, matching the
// glyph the rest of this ecosystem's CLIs use for an in-progress footer.
func NewSpinner() *Spinner {
	return &Spinner{frames: spinner.Dot.Frames}
}

// Next returns the current frame and advances to the next one.
func (s *Spinner) Next() string {
	if len(s.frames) == 0 {
		return ""
	}
	f := s.frames[s.pos%len(s.frames)]
	s.pos++
	return f
}

// Footer formats a loading footer line: spinner glyph, a task count, and
// an optional note (e.g. the slowest still-running task kind).
func Footer(spin string, done, total int, note string) string {
	if note == "" {
		return fmt.Sprintf("%s %d/%d", spin, done, total)
	}
	return fmt.Sprintf("%s %d/%d %s", spin, done, total, note)
}
