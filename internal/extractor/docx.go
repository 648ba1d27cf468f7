package extractor

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCX files have no physical pages, so paragraphs are grouped into logical
// pages of roughly this many characters.
const charsPerPage = 3000

var (
	paragraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	textRunRe   = regexp.MustCompile(`(?s)<w:t(?: [^>]*)?>(.*?)</w:t>`)
	rowRe       = regexp.MustCompile(`(?s)<w:tr[ >].*?</w:tr>`)
	cellRe      = regexp.MustCompile(`(?s)<w:tc[ >].*?</w:tc>`)
)

// readDOCX extracts paragraphs and, when withTables is set, tables as
// structured cells. Without it, table cells come back as ordinary lines.
func readDOCX(data []byte, withTables bool) (*Layout, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read docx: %w", err)
	}
	defer r.Close()

	layout := parseDOCXContent(r.Editable().GetContent(), withTables)
	if len(layout.Pages) == 0 && len(layout.Tables) == 0 {
		return nil, fmt.Errorf("no text extracted from docx")
	}
	return layout, nil
}

// parseDOCXContent walks document.xml in order, alternating between body text
// and top-level <w:tbl> elements.
func parseDOCXContent(xml string, withTables bool) *Layout {
	b := &pageBuilder{}
	var tables []Table

	rest := xml
	for {
		start := strings.Index(rest, "<w:tbl>")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start:], "</w:tbl>")
		if end < 0 {
			break
		}
		end += start + len("</w:tbl>")

		for _, p := range paragraphTexts(rest[:start]) {
			b.add(p)
		}

		tbl := rest[start:end]
		if withTables {
			if t, ok := parseTable(tbl, b.pageNumber()); ok {
				tables = append(tables, t)
			}
		} else {
			for _, p := range paragraphTexts(tbl) {
				b.add(p)
			}
		}
		rest = rest[end:]
	}
	for _, p := range paragraphTexts(rest) {
		b.add(p)
	}
	b.flush()

	// A table can sit on a page that received no body text.
	for _, t := range tables {
		for len(b.pages) < t.BoundingRegions[0].PageNumber {
			b.pages = append(b.pages, Page{PageNumber: len(b.pages) + 1})
		}
	}
	return &Layout{Pages: b.pages, Tables: tables}
}

func parseTable(xml string, page int) (Table, bool) {
	rows := rowRe.FindAllString(xml, -1)
	if len(rows) == 0 {
		return Table{}, false
	}

	grid := make([][]string, len(rows))
	cols := 0
	for i, row := range rows {
		for _, cell := range cellRe.FindAllString(row, -1) {
			grid[i] = append(grid[i], strings.Join(paragraphTexts(cell), " "))
		}
		if len(grid[i]) > cols {
			cols = len(grid[i])
		}
	}
	if cols == 0 {
		return Table{}, false
	}

	t := Table{
		RowCount:        len(rows),
		ColumnCount:     cols,
		BoundingRegions: []BoundingRegion{{PageNumber: page}},
	}
	for ri, row := range grid {
		// Short rows are padded so every row ends on the last column.
		for ci := 0; ci < cols; ci++ {
			content := ""
			if ci < len(row) {
				content = row[ci]
			}
			t.Cells = append(t.Cells, Cell{RowIndex: ri, ColumnIndex: ci, Content: content})
		}
	}
	return t, true
}

// paragraphTexts returns the non-empty text of every <w:p> in xml.
func paragraphTexts(xml string) []string {
	var out []string
	for _, p := range paragraphRe.FindAllString(xml, -1) {
		var sb strings.Builder
		for _, m := range textRunRe.FindAllStringSubmatch(p, -1) {
			sb.WriteString(m[1])
		}
		if text := strings.TrimSpace(html.UnescapeString(sb.String())); text != "" {
			out = append(out, text)
		}
	}
	return out
}

type pageBuilder struct {
	pages []Page
	cur   []Line
	size  int
}

func (b *pageBuilder) add(text string) {
	if b.size > 0 && b.size+len(text) > charsPerPage {
		b.flush()
	}
	b.cur = append(b.cur, Line{Content: text})
	b.size += len(text)
}

func (b *pageBuilder) flush() {
	if len(b.cur) == 0 {
		return
	}
	b.pages = append(b.pages, Page{PageNumber: len(b.pages) + 1, Lines: b.cur})
	b.cur, b.size = nil, 0
}

// pageNumber is the page the next line will land on.
func (b *pageBuilder) pageNumber() int {
	return len(b.pages) + 1
}
