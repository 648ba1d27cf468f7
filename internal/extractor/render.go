package extractor

import (
	"fmt"
	"sort"
	"strings"
)

const (
	tableStart = "\n[TABELL]\n"
	tableEnd   = "[/TABELL]\n\n"
	cellSep    = "\t"
)

// render flattens a layout into text. Each table is emitted once, before the
// lines of the first page it touches. Tables pointing at a page the layout
// does not contain are appended after the last page.
func render(l *Layout, withTables bool, mode Mode) *ExtractedText {
	tablesByPage := map[int][]Table{}
	var pageOrder []int
	if withTables {
		for _, t := range l.Tables {
			if len(t.BoundingRegions) == 0 {
				continue
			}
			page := t.BoundingRegions[0].PageNumber
			if _, seen := tablesByPage[page]; !seen {
				pageOrder = append(pageOrder, page)
			}
			tablesByPage[page] = append(tablesByPage[page], t)
		}
	}

	var sb strings.Builder
	hasTables := false
	for i, page := range l.Pages {
		if i > 0 {
			fmt.Fprintf(&sb, "\n--- Side %d ---\n", i+1)
		}

		number := page.PageNumber
		if number == 0 {
			number = i + 1
		}
		for _, t := range tablesByPage[number] {
			writeTable(&sb, t)
			hasTables = true
		}
		delete(tablesByPage, number)

		for _, line := range page.Lines {
			sb.WriteString(line.Content)
			sb.WriteString("\n")
		}
	}

	sort.Ints(pageOrder)
	for _, number := range pageOrder {
		for _, t := range tablesByPage[number] {
			writeTable(&sb, t)
			hasTables = true
		}
	}

	return &ExtractedText{
		Text:      sb.String(),
		Pages:     len(l.Pages),
		HasTables: hasTables,
		Mode:      string(mode),
	}
}

func writeTable(sb *strings.Builder, t Table) {
	cells := append([]Cell(nil), t.Cells...)
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].RowIndex != cells[j].RowIndex {
			return cells[i].RowIndex < cells[j].RowIndex
		}
		return cells[i].ColumnIndex < cells[j].ColumnIndex
	})

	sb.WriteString(tableStart)
	for _, c := range cells {
		sb.WriteString(c.Content)
		sb.WriteString(cellSep)
		if c.ColumnIndex == t.ColumnCount-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(tableEnd)
}
