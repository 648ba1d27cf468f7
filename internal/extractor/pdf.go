package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts the text layer of every page. Scanned PDFs without a text
// layer produce an error so the caller can fall back.
func readPDF(data []byte) (layout *Layout, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			layout, err = nil, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	layout = &Layout{}
	numPages := r.NumPage()
	found := false
	for pageIndex := 1; pageIndex <= numPages; pageIndex++ {
		page := Page{PageNumber: pageIndex}
		p := r.Page(pageIndex)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err == nil {
				page.Lines = splitLines(text)
			}
		}
		if len(page.Lines) > 0 {
			found = true
		}
		layout.Pages = append(layout.Pages, page)
	}

	if !found {
		return nil, fmt.Errorf("no text extracted from pdf with %d pages (scanned document?)", numPages)
	}
	return layout, nil
}

func splitLines(text string) []Line {
	var lines []Line
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, Line{Content: l})
		}
	}
	return lines
}
