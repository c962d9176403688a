package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// Raw cursor-control escapes. Windows consoles accept the same
// sequences through virtual terminal processing, so no platform branch
// is needed here.
const (
	escMoveToCol0  = "\r"
	escClearLine   = "\x1b[2K"
	escCursorUpFmt = "\x1b[%dA"
)

// defaultMaxWidth is used when the terminal width cannot be determined
// (e.g. output redirected to a file with no controlling tty).
const defaultMaxWidth = 80

// Table is the progressive, in-place-redrawing status table: header row,
// one row per item, a blank spacer, and a footer line. Every write goes
// to stderr so stdout stays free for piping the final machine-readable
// output: the status table lives on stderr.
type Table struct {
	mu       sync.Mutex
	out      io.Writer
	lines    []string
	maxWidth int
	rowCount int
	isTTY    bool
}

// TerminalWidth reports the terminal width: the COLUMNS environment
// variable if set, else the stderr size ioctl, else defaultMaxWidth.
func TerminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n
		}
	}
	w, _, err := term.GetSize(os.Stderr.Fd())
	if err != nil || w <= 0 {
		return defaultMaxWidth
	}
	return w
}

// NewTable builds a table from a header, one skeleton line per item, and
// an initial footer, drawing to out (os.Stderr in normal operation so
// stdout stays pipeable). If out is not a tty — or progressive rendering
// was turned off — nothing is printed until FinalizeNonTTY is called:
// non-progressive output suppresses the skeleton/spinner and prints the
// final table once.
func NewTable(out io.Writer, header string, rows []string, footer string, maxWidth int, progressive bool) *Table {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = isatty.IsTerminal(f.Fd())
	}
	// The colorprofile writer downsamples or strips SGR sequences per
	// the standard color policy (NO_COLOR, CLICOLOR_FORCE, TERM) while
	// passing cursor-control sequences through untouched.
	t := &Table{
		out:      colorprofile.NewWriter(out, os.Environ()),
		maxWidth: maxWidth,
		rowCount: len(rows),
		isTTY:    progressive && isTTY,
	}

	t.lines = make([]string, 0, len(rows)+3)
	t.lines = append(t.lines, TruncateVisible(header, maxWidth))
	for _, r := range rows {
		t.lines = append(t.lines, TruncateVisible(r, maxWidth))
	}
	t.lines = append(t.lines, "") // spacer
	t.lines = append(t.lines, TruncateVisible(footer, maxWidth))

	if t.isTTY {
		t.printAll()
	}
	return t
}

func (t *Table) printAll() {
	var b strings.Builder
	for _, line := range t.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprint(t.out, b.String())
}

// IsTTY reports whether this table is drawing to a terminal.
func (t *Table) IsTTY() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isTTY
}

// UpdateRow replaces the content of data row rowIdx (0-based, excluding
// the header). Out-of-range indices are ignored. A no-op write (content
// identical to what's already on screen) never touches the terminal.
func (t *Table) UpdateRow(rowIdx int, content string) {
	if rowIdx < 0 || rowIdx >= t.rowCount {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateLineLocked(rowIdx+1, content)
}

// UpdateFooter replaces the footer line in place.
func (t *Table) UpdateFooter(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateLineLocked(len(t.lines)-1, content)
}

func (t *Table) updateLineLocked(lineIdx int, content string) {
	truncated := TruncateVisible(content, t.maxWidth)
	if t.lines[lineIdx] == truncated {
		return
	}
	t.lines[lineIdx] = truncated
	if t.isTTY {
		t.redrawLineLocked(lineIdx)
	}
}

// redrawLineLocked moves the cursor up from its resting place (just past
// the footer) to lineIdx, clears that line, rewrites it, then walks the
// cursor back down so the terminal's idea of "current line" matches
// where printAll left it.
func (t *Table) redrawLineLocked(lineIdx int) {
	linesUp := len(t.lines) - lineIdx
	var b strings.Builder
	if linesUp > 0 {
		fmt.Fprintf(&b, escCursorUpFmt, linesUp)
	}
	b.WriteString(escMoveToCol0)
	b.WriteString(escClearLine)
	b.WriteString(t.lines[lineIdx])
	for i := 0; i < linesUp; i++ {
		b.WriteByte('\n')
	}
	fmt.Fprint(t.out, b.String())
}

// FinalizeTTY leaves the in-place table as-is, replacing the footer with
// a final summary line.
func (t *Table) FinalizeTTY(finalFooter string) {
	t.UpdateFooter(finalFooter)
}

// FinalizeNonTTY prints the complete table exactly once. Called instead
// of FinalizeTTY when IsTTY is false, since nothing was printed during
// the run.
func (t *Table) FinalizeNonTTY(lines []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprint(t.out, b.String())
}
