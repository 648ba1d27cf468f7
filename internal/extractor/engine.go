package extractor

import "context"

// Mode selects the extraction strategy of an Engine.
type Mode string

const (
	// ModeRead extracts plain lines per page.
	ModeRead Mode = "read"
	// ModeLayout also detects tables and the pages they sit on.
	ModeLayout Mode = "layout"
)

// Layout is the result of analyzing a document. Field names follow the
// Azure Document Intelligence analyzeResult so it can be decoded directly.
type Layout struct {
	Pages  []Page  `json:"pages"`
	Tables []Table `json:"tables"`
}

type Page struct {
	PageNumber int    `json:"pageNumber"`
	Lines      []Line `json:"lines"`
}

type Line struct {
	Content string `json:"content"`
}

type Table struct {
	RowCount        int              `json:"rowCount"`
	ColumnCount     int              `json:"columnCount"`
	Cells           []Cell           `json:"cells"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
}

type Cell struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Content     string `json:"content"`
}

type BoundingRegion struct {
	PageNumber int `json:"pageNumber"`
}

// Engine is a document-text-extraction service.
type Engine interface {
	AnalyzeDocument(ctx context.Context, mode Mode, data []byte) (*Layout, error)
}
