package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ========== Pages ==========

func TestRender_PageMarkers(t *testing.T) {
	l := &Layout{Pages: []Page{
		{PageNumber: 1, Lines: lines("første")},
		{PageNumber: 2, Lines: lines("andre")},
		{PageNumber: 3, Lines: lines("tredje")},
	}}
	out := render(l, false, ModeRead)
	assert.Equal(t, "første\n\n--- Side 2 ---\nandre\n\n--- Side 3 ---\ntredje\n", out.Text)
	assert.Equal(t, 3, out.Pages)
	assert.NotContains(t, out.Text, "Side 1")
}

// ========== Tables ==========

func TestRender_TableGroupedByFirstRegion(t *testing.T) {
	// A table spanning pages 1 and 2 is emitted once, on page 1.
	tbl := Table{
		RowCount: 1, ColumnCount: 2,
		Cells:           []Cell{{ColumnIndex: 0, Content: "A"}, {ColumnIndex: 1, Content: "B"}},
		BoundingRegions: []BoundingRegion{{PageNumber: 1}, {PageNumber: 2}},
	}
	l := &Layout{
		Pages:  []Page{{PageNumber: 1, Lines: lines("p1")}, {PageNumber: 2, Lines: lines("p2")}},
		Tables: []Table{tbl},
	}
	out := render(l, true, ModeLayout)
	assert.Equal(t, 1, strings.Count(out.Text, "[TABELL]"))
	assert.Less(t, strings.Index(out.Text, "[TABELL]"), strings.Index(out.Text, "--- Side 2 ---"))
	assert.True(t, out.HasTables)
}

func TestRender_TablesIgnoredInReadMode(t *testing.T) {
	l := &Layout{
		Pages:  []Page{{PageNumber: 1, Lines: lines("tekst")}},
		Tables: []Table{{ColumnCount: 1, Cells: []Cell{{Content: "x"}}, BoundingRegions: []BoundingRegion{{PageNumber: 1}}}},
	}
	out := render(l, false, ModeRead)
	assert.NotContains(t, out.Text, "[TABELL]")
	assert.False(t, out.HasTables)
}

func TestRender_TableWithoutRegionSkipped(t *testing.T) {
	l := &Layout{
		Pages:  []Page{{PageNumber: 1}},
		Tables: []Table{{ColumnCount: 1, Cells: []Cell{{Content: "x"}}}},
	}
	assert.NotContains(t, render(l, true, ModeLayout).Text, "[TABELL]")
}

func TestRender_TableOnUnknownPageAppended(t *testing.T) {
	orphan := Table{
		ColumnCount:     1,
		Cells:           []Cell{{Content: "Sum"}},
		BoundingRegions: []BoundingRegion{{PageNumber: 9}},
	}
	l := &Layout{
		Pages:  []Page{{PageNumber: 1, Lines: lines("p1")}, {PageNumber: 2, Lines: lines("p2")}},
		Tables: []Table{orphan},
	}
	out := render(l, true, ModeLayout)
	assert.Equal(t, "p1\n\n--- Side 2 ---\np2\n\n[TABELL]\nSum\t\n[/TABELL]\n\n", out.Text)
	assert.True(t, out.HasTables)
}

func TestRender_CellsSortedByRowAndColumn(t *testing.T) {
	tbl := Table{
		ColumnCount: 2,
		Cells: []Cell{
			{RowIndex: 1, ColumnIndex: 1, Content: "d"},
			{RowIndex: 0, ColumnIndex: 1, Content: "b"},
			{RowIndex: 1, ColumnIndex: 0, Content: "c"},
			{RowIndex: 0, ColumnIndex: 0, Content: "a"},
		},
	}
	var sb strings.Builder
	writeTable(&sb, tbl)
	assert.Equal(t, "\n[TABELL]\na\tb\t\nc\td\t\n[/TABELL]\n\n", sb.String())
}

func TestRender_MissingPageNumberUsesIndex(t *testing.T) {
	l := &Layout{
		Pages:  []Page{{Lines: lines("uten nummer")}},
		Tables: []Table{{ColumnCount: 1, Cells: []Cell{{Content: "x"}}, BoundingRegions: []BoundingRegion{{PageNumber: 1}}}},
	}
	assert.Contains(t, render(l, true, ModeLayout).Text, "[TABELL]")
}
