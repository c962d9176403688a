package render

import (
	"image/color"

	catppuccin "github.com/catppuccin/go"
	"charm.land/lipgloss/v2"
)

// palette is the catppuccin flavour backing every style below.
var palette = catppuccin.Mocha

func hex(c catppuccin.Color) color.Color { return lipgloss.Color(c.Hex) }

// Status-glyph styles, keyed by the symbols classify.DisplaySymbol and
// listmodel.StatusSymbols produce.
var (
	StyleIntegrated  = lipgloss.NewStyle().Foreground(hex(palette.Green()))
	StyleSameCommit  = lipgloss.NewStyle().Foreground(hex(palette.Overlay1()))
	StyleDirty       = lipgloss.NewStyle().Foreground(hex(palette.Yellow()))
	StylePlaceholder = lipgloss.NewStyle().Foreground(hex(palette.Overlay0())).Faint(true)
	StyleCurrent     = lipgloss.NewStyle().Foreground(hex(palette.Mauve())).Bold(true)
	StyleDefault     = lipgloss.NewStyle().Foreground(hex(palette.Blue()))
	StyleMarker      = lipgloss.NewStyle().Foreground(hex(palette.Peach())).Italic(true)
)

// CI-state styles, keyed by repo.CIState.
var (
	StyleCISuccess = lipgloss.NewStyle().Foreground(hex(palette.Green()))
	StyleCIFailure = lipgloss.NewStyle().Foreground(hex(palette.Red()))
	StyleCIPending = lipgloss.NewStyle().Foreground(hex(palette.Yellow()))
	StyleCINone    = StylePlaceholder
)

// DiffSign styles added/deleted line counts.
var (
	StyleAdded   = lipgloss.NewStyle().Foreground(hex(palette.Green()))
	StyleDeleted = lipgloss.NewStyle().Foreground(hex(palette.Red()))
)

// Placeholder is the dim glyph shown for a field whose probe has not
// yet settled (skipped, failed, or still running). Unknown fields
// render as a dim placeholder, never as zeros.
func Placeholder() string {
	return StylePlaceholder.Render("·")
}

// StatusSymbolStyle picks the style for a rendered status-symbol string
// produced by listmodel.StatusSymbols.
func StatusSymbolStyle(symbols string) lipgloss.Style {
	switch symbols {
	case "_":
		return StyleSameCommit
	case "–":
		return StyleDirty
	case "":
		return StylePlaceholder
	default:
		return StyleIntegrated
	}
}

// Gutter renders the leftmost role glyph named in the glossary: `@`
// current, `^` default, `+` linked worktree, space for branch-only.
func Gutter(isCurrent, isDefault, isLinked bool) string {
	switch {
	case isCurrent:
		return StyleCurrent.Render("@")
	case isDefault:
		return StyleDefault.Render("^")
	case isLinked:
		return "+"
	default:
		return " "
	}
}
