package render

import (
	"strings"

	"github.com/worktrunk/wt/internal/listmodel"
)

// BuildColumns runs the column-selection algorithm against
// every item's rendered cells, gated by which task kinds ever completed
// across the whole run.
func BuildColumns(termWidth int, items []listmodel.ItemSnapshot, linked map[string]bool, outcome listmodel.TaskOutcome) []listmodel.ColumnSpec {
	cellsByColumn := make(map[listmodel.ColumnKind][]string, len(listmodel.Registry))
	for _, spec := range listmodel.Registry {
		cells := make([]string, len(items))
		for i, it := range items {
			cells[i] = Cell(spec.Kind, it, linked[it.ID])
		}
		cellsByColumn[spec.Kind] = cells
	}
	return listmodel.Select(termWidth, outcome, VisibleWidthOf, cellsByColumn)
}

// VisibleWidthOf is a listmodel.WidthFunc backed by VisibleWidth.
func VisibleWidthOf(header string, cells []string) int {
	w := VisibleWidth(header)
	for _, c := range cells {
		if cw := VisibleWidth(c); cw > w {
			w = cw
		}
	}
	return w
}

// BuildHeader joins column headers with single-space padding.
func BuildHeader(columns []listmodel.ColumnSpec) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	return strings.Join(headers, " ")
}

// BuildRow joins one item's cells, in column order, with single-space
// padding, matching listmodel.Select's padding accounting.
func BuildRow(columns []listmodel.ColumnSpec, it listmodel.ItemSnapshot, isLinked bool) string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = Cell(c.Kind, it, isLinked)
	}
	return strings.Join(cells, " ")
}
