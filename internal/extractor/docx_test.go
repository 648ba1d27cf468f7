package extractor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(text string) string {
	return `<w:p w:rsidR="00A1"><w:pPr><w:jc w:val="left"/></w:pPr><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func table(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl><w:tblPr/><w:tblGrid/>")
	for _, row := range rows {
		sb.WriteString(`<w:tr><w:trPr/>`)
		for _, cell := range row {
			sb.WriteString(`<w:tc><w:tcPr/>` + para(cell) + `</w:tc>`)
		}
		sb.WriteString(`</w:tr>`)
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

func body(parts ...string) string {
	return `<w:document><w:body>` + strings.Join(parts, "") + `</w:body></w:document>`
}

// ========== Paragraphs ==========

func TestParagraphTexts_RunsAndEntities(t *testing.T) {
	xml := `<w:p><w:r><w:t>Bygg &amp; </w:t></w:r><w:r><w:t xml:space="preserve">Anlegg AS</w:t></w:r></w:p><w:p/>` + para("  ")
	assert.Equal(t, []string{"Bygg & Anlegg AS"}, paragraphTexts(xml))
}

func TestParagraphTexts_IgnoresParagraphProperties(t *testing.T) {
	// <w:pPr> must not be mistaken for a paragraph.
	assert.Equal(t, []string{"Hei"}, paragraphTexts(para("Hei")))
}

// ========== Logical pages ==========

func TestParseDOCXContent_GroupsIntoPages(t *testing.T) {
	var parts []string
	for i := 0; i < 10; i++ {
		parts = append(parts, para(fmt.Sprintf("%04d", i)+strings.Repeat("x", 996)))
	}
	l := parseDOCXContent(body(parts...), false)

	require.Len(t, l.Pages, 4)
	assert.Len(t, l.Pages[0].Lines, 3)
	assert.Equal(t, 1, l.Pages[0].PageNumber)
	assert.Equal(t, 4, l.Pages[3].PageNumber)
}

// ========== Tables ==========

func TestParseDOCXContent_ReadModeFlattensTables(t *testing.T) {
	xml := body(para("Innledning"), table([]string{"Post", "Beløp"}, []string{"Lønn", "12"}), para("Slutt"))
	l := parseDOCXContent(xml, false)

	assert.Empty(t, l.Tables)
	require.Len(t, l.Pages, 1)
	var got []string
	for _, line := range l.Pages[0].Lines {
		got = append(got, line.Content)
	}
	assert.Equal(t, []string{"Innledning", "Post", "Beløp", "Lønn", "12", "Slutt"}, got)
}

func TestParseDOCXContent_LayoutModeDetectsTables(t *testing.T) {
	xml := body(para("Innledning"), table([]string{"Post", "Beløp"}, []string{"Lønn"}), para("Slutt"))
	l := parseDOCXContent(xml, true)

	require.Len(t, l.Tables, 1)
	tbl := l.Tables[0]
	assert.Equal(t, 2, tbl.RowCount)
	assert.Equal(t, 2, tbl.ColumnCount)
	assert.Len(t, tbl.Cells, 4, "short rows are padded")
	assert.Equal(t, 1, tbl.BoundingRegions[0].PageNumber)

	out := render(l, true, ModeLayout)
	assert.Equal(t, "\n[TABELL]\nPost\tBeløp\t\nLønn\t\t\n[/TABELL]\n\nInnledning\nSlutt\n", out.Text)
}

func TestParseDOCXContent_TableOnlyDocument(t *testing.T) {
	l := parseDOCXContent(body(table([]string{"a", "b"})), true)
	require.Len(t, l.Pages, 1)
	assert.Contains(t, render(l, true, ModeLayout).Text, "a\tb\t\n")
}

// ========== Local engine ==========

func TestSniff(t *testing.T) {
	assert.Equal(t, KindPDF, sniff([]byte("%PDF-1.7\n...")))
	assert.Equal(t, KindDOCX, sniff([]byte("PK\x03\x04rest")))
	assert.Equal(t, Kind(""), sniff([]byte{0xD0, 0xCF, 0x11, 0xE0}))
}

func TestLocalEngine_RejectsUnknownFormat(t *testing.T) {
	_, err := NewLocalEngine().AnalyzeDocument(context.Background(), ModeRead, []byte("plain bytes"))
	assert.Error(t, err)
}

func TestLocalEngine_CorruptPDF(t *testing.T) {
	_, err := NewLocalEngine().AnalyzeDocument(context.Background(), ModeRead, []byte("%PDF-1.4 garbage"))
	assert.Error(t, err)
}
