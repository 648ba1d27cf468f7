// Package extractor turns uploaded document bytes into one normalized text
// with page markers and inline table blocks.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
)

// Kind is a supported document type, named after its file extension.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindTXT  Kind = "txt"
	KindCSV  Kind = "csv"
	KindDOC  Kind = "doc"
	KindDOCX Kind = "docx"
)

// Kinds lists the accepted kinds in lookup order.
var Kinds = []Kind{KindPDF, KindTXT, KindCSV, KindDOC, KindDOCX}

// KindFromFilename returns the kind for a filename's extension.
func KindFromFilename(name string) (Kind, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, k := range Kinds {
		if string(k) == ext {
			return k, true
		}
	}
	return "", false
}

// IsPlainText reports whether the kind is decoded directly without an engine.
func (k Kind) IsPlainText() bool {
	return k == KindTXT || k == KindCSV
}

// Placeholder is returned as the document text when every strategy failed.
const Placeholder = "Kunne ikke lese dokument. Prøv med PDF eller TXT format."

// ErrExtraction is returned when no strategy produced text and placeholders
// are disabled.
var ErrExtraction = errors.New("text extraction failed")

// ExtractedText is the normalized text of one document.
type ExtractedText struct {
	Text      string
	Pages     int
	HasTables bool
	// Mode is "text", "read", "layout" or "placeholder".
	Mode     string
	Degraded bool
}

// Options tunes the read/layout decision and failure handling.
type Options struct {
	// Lines with fewer non-space characters than ShortLineChars count as short.
	ShortLineChars int
	// Layout mode is used when the short-line fraction exceeds ShortLineRatio.
	ShortLineRatio float64
	// Placeholder returns Placeholder text instead of ErrExtraction.
	Placeholder bool
	// Timeout bounds each engine call. Zero means no extra deadline.
	Timeout time.Duration
}

// DefaultOptions returns a 20-character short line, a 0.3 ratio and placeholders on.
func DefaultOptions() Options {
	return Options{ShortLineChars: 20, ShortLineRatio: 0.3, Placeholder: true}
}

// Extractor turns uploaded bytes into text using an Engine.
type Extractor struct {
	engine Engine
	opts   Options
}

// New creates an extractor. engine may be nil, in which case only plain-text
// kinds can be extracted.
func New(engine Engine, opts Options) *Extractor {
	if opts.ShortLineChars <= 0 {
		opts.ShortLineChars = 20
	}
	return &Extractor{engine: engine, opts: opts}
}

// Extract decodes plain-text kinds directly and runs the engine for the rest.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind Kind) (*ExtractedText, error) {
	if kind.IsPlainText() {
		metrics.Extractions.WithLabelValues(string(kind), "text").Inc()
		return &ExtractedText{Text: decodeText(data), Pages: 1, Mode: "text"}, nil
	}

	out, err := e.extractDocument(ctx, data, kind)
	if err != nil {
		metrics.Extractions.WithLabelValues(string(kind), "failed").Inc()
		return nil, err
	}
	metrics.Extractions.WithLabelValues(string(kind), out.Mode).Inc()
	return out, nil
}

// extractDocument runs the read strategy, decides from its output whether the
// layout strategy is needed, and degrades step by step when engines fail.
func (e *Extractor) extractDocument(ctx context.Context, data []byte, kind Kind) (*ExtractedText, error) {
	log := logger.With(zap.String("phase", "extract"), zap.String("kind", string(kind)))

	read, readErr := e.analyze(ctx, ModeRead, data)
	needLayout := readErr != nil
	if readErr != nil {
		log.Warn("read extraction failed, trying layout", zap.Error(readErr))
	} else {
		frac := shortLineFraction(read, e.opts.ShortLineChars)
		needLayout = frac > e.opts.ShortLineRatio
		log.Debug("read extraction finished", zap.Float64("short_line_fraction", frac), zap.Bool("layout", needLayout))
	}

	if !needLayout {
		return render(read, false, ModeRead), nil
	}

	layout, layoutErr := e.analyze(ctx, ModeLayout, data)
	if layoutErr == nil {
		return render(layout, true, ModeLayout), nil
	}
	log.Warn("layout extraction failed, falling back to read", zap.Error(layoutErr))

	if readErr == nil {
		return render(read, false, ModeRead), nil
	}
	read, readErr = e.analyze(ctx, ModeRead, data)
	if readErr == nil {
		return render(read, false, ModeRead), nil
	}

	log.Error("all extraction strategies failed", zap.Error(readErr))
	if !e.opts.Placeholder {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, errors.Join(layoutErr, readErr))
	}
	return &ExtractedText{Text: Placeholder, Mode: "placeholder", Degraded: true}, nil
}

func (e *Extractor) analyze(ctx context.Context, mode Mode, data []byte) (*Layout, error) {
	if e.engine == nil {
		return nil, errors.New("no extraction engine configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	layout, err := e.engine.AnalyzeDocument(ctx, mode, data)
	if err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, fmt.Errorf("%s extraction returned no result", mode)
	}
	return layout, nil
}

// shortLineFraction is the share of lines with fewer than minChars non-space
// characters. A high value suggests tabular content.
func shortLineFraction(l *Layout, minChars int) float64 {
	total, short := 0, 0
	for _, p := range l.Pages {
		for _, line := range p.Lines {
			total++
			n := 0
			for _, r := range line.Content {
				if !unicode.IsSpace(r) {
					n++
				}
			}
			if n < minChars {
				short++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(short) / float64(total)
}

func decodeText(data []byte) string {
	s := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ToValidUTF8(s, "\uFFFD")
}
