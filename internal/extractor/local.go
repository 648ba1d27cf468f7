package extractor

import (
	"bytes"
	"context"
	"fmt"
)

// LocalEngine extracts text in-process. It handles PDFs with a text layer
// and DOCX files; tables are detected for DOCX only.
type LocalEngine struct{}

func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

func (e *LocalEngine) AnalyzeDocument(ctx context.Context, mode Mode, data []byte) (*Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch sniff(data) {
	case KindPDF:
		return readPDF(data)
	case KindDOCX:
		return readDOCX(data, mode == ModeLayout)
	default:
		return nil, fmt.Errorf("local engine: unsupported document format")
	}
}

// sniff identifies the container format from magic bytes.
func sniff(data []byte) Kind {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	switch {
	case bytes.Contains(head, []byte("%PDF-")):
		return KindPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return KindDOCX
	default:
		return ""
	}
}
