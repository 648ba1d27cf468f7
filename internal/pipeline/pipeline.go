// Package pipeline ties storage, extraction, chunking and analysis together
// for the upload and analyze operations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docanalyzer/internal/analysis"
	"docanalyzer/internal/chunker"
	"docanalyzer/internal/extractor"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
	"docanalyzer/internal/storage"
)

const (
	DefaultContainer        = "documents"
	DefaultMaxUploadBytes   = 50 << 20
	DefaultMaxDocumentChars = 100000
	DefaultPreviewChars     = 1000

	// Confidence is a fixed heuristic reported with every analysis.
	Confidence = 0.85
)

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, kind extractor.Kind) (*extractor.ExtractedText, error)
}

// Analyzer produces a structured analysis from chunks.
type Analyzer interface {
	Analyze(ctx context.Context, docID string, chunks []chunker.Chunk) (*analysis.Outcome, error)
}

// Document is an uploaded file as stored.
type Document struct {
	ID       string
	Filename string
	Kind     extractor.Kind
	Size     int
	Key      string
}

// Result is the response of one analysis.
type Result struct {
	FileID               string                      `json:"file_id,omitempty"`
	Filename             string                      `json:"filename,omitempty"`
	Summary              string                      `json:"summary"`
	KeyPoints            []string                    `json:"key_points"`
	Confidence           float64                     `json:"confidence"`
	FullAnalysis         string                      `json:"full_analysis"`
	StructuredAnalysis   analysis.StructuredAnalysis `json:"structured_analysis"`
	ChunksProcessed      int                         `json:"chunks_processed"`
	ExtractedTextPreview string                      `json:"extracted_text_preview"`
	Pages                int                         `json:"pages"`
	TablesDetected       bool                        `json:"tables_detected"`
	ExtractionMode       string                      `json:"extraction_mode"`
	FailedChunks         []int                       `json:"failed_chunks"`
	Repaired             bool                        `json:"repaired"`
}

type Options struct {
	Container           string
	MaxUploadBytes      int
	MaxDocumentChars    int
	PreviewChars        int
	DeleteAfterAnalysis bool
	Chunking            []chunker.Option
}

type Pipeline struct {
	store     storage.Store
	extractor Extractor
	analyzer  Analyzer
	chunker   *chunker.Chunker
	opts      Options
}

func New(store storage.Store, ex Extractor, an Analyzer, opts Options) *Pipeline {
	if opts.Container == "" {
		opts.Container = DefaultContainer
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.MaxDocumentChars <= 0 {
		opts.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = DefaultPreviewChars
	}
	return &Pipeline{
		store:     store,
		extractor: ex,
		analyzer:  an,
		chunker:   chunker.New(opts.Chunking...),
		opts:      opts,
	}
}

// MaxUploadBytes is the largest accepted document.
func (p *Pipeline) MaxUploadBytes() int {
	return p.opts.MaxUploadBytes
}

// Upload validates and stores a document under a fresh id.
func (p *Pipeline) Upload(ctx context.Context, filename string, data []byte) (*Document, error) {
	doc, err := p.upload(ctx, filename, data)
	switch {
	case err == nil:
		metrics.UploadsTotal.WithLabelValues("success").Inc()
	case errors.As(err, new(*ValidationError)):
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.UploadsTotal.WithLabelValues("error").Inc()
	}
	return doc, err
}

func (p *Pipeline) upload(ctx context.Context, filename string, data []byte) (*Document, error) {
	name := baseName(filename)
	if name == "" {
		return nil, validationf("No file selected")
	}
	kind, ok := extractor.KindFromFilename(name)
	if !ok {
		return nil, validationf("Only PDF, TXT, CSV, DOC, and DOCX files are allowed")
	}
	if len(data) > p.opts.MaxUploadBytes {
		return nil, validationf("File size too large. Maximum allowed size is %dMB", p.opts.MaxUploadBytes>>20)
	}
	if len(data) == 0 {
		return nil, validationf("Empty file not allowed")
	}

	id := uuid.New().String()
	doc := &Document{ID: id, Filename: name, Kind: kind, Size: len(data), Key: id + "/" + name}
	if err := p.store.Put(ctx, p.opts.Container, doc.Key, data); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	logger.Info("Document uploaded",
		zap.String("doc_id", id),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(data)),
	)
	return doc, nil
}

// baseName strips any client-side directory from an uploaded filename.
func baseName(filename string) string {
	name := strings.TrimSpace(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// Analyze loads a stored document by id and analyzes it.
func (p *Pipeline) Analyze(ctx context.Context, fileID string) (*Result, error) {
	start := time.Now()
	res, err := p.analyzeStored(ctx, fileID)
	p.observe(start, res, err)
	return res, err
}

func (p *Pipeline) analyzeStored(ctx context.Context, fileID string) (*Result, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, validationf("Invalid file ID")
	}
	log := logger.With(zap.String("doc_id", fileID))

	doc, err := p.find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	data, err := p.store.Get(ctx, p.opts.Container, doc.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{FileID: fileID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	res, err := p.analyzeBytes(ctx, fileID, doc.Filename, data)
	if err != nil {
		return nil, err
	}

	if p.opts.DeleteAfterAnalysis {
		if err := p.store.Delete(ctx, p.opts.Container, doc.Key); err != nil {
			log.Warn("Failed to delete analyzed document", zap.Error(err))
		} else {
			log.Debug("Analyzed document deleted")
		}
	}
	return res, nil
}

// find returns the first stored object under the id with a supported kind.
func (p *Pipeline) find(ctx context.Context, fileID string) (*Document, error) {
	prefix := fileID + "/"
	objects, err := p.store.List(ctx, p.opts.Container, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, prefix)
		if kind, ok := extractor.KindFromFilename(name); ok {
			return &Document{ID: fileID, Filename: name, Kind: kind, Size: int(obj.Size), Key: obj.Key}, nil
		}
	}
	return nil, &NotFoundError{FileID: fileID}
}

// AnalyzeBytes runs extraction and analysis on a document held in memory.
func (p *Pipeline) AnalyzeBytes(ctx context.Context, docID, filename string, data []byte) (*Result, error) {
	start := time.Now()
	res, err := p.analyzeBytes(ctx, docID, filename, data)
	p.observe(start, res, err)
	return res, err
}

func (p *Pipeline) analyzeBytes(ctx context.Context, docID, filename string, data []byte) (*Result, error) {
	log := logger.With(zap.String("doc_id", docID))

	kind, ok := extractor.KindFromFilename(filename)
	if !ok {
		return nil, validationf("Only PDF, TXT, CSV, DOC, and DOCX files are allowed")
	}

	extracted, err := p.extractor.Extract(ctx, data, kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, validationf("No text could be extracted from the document")
	}

	text := truncateRunes(extracted.Text, p.opts.MaxDocumentChars)
	if len(text) < len(extracted.Text) {
		log.Warn("Document truncated", zap.Int("max_chars", p.opts.MaxDocumentChars))
	}

	chunks := p.chunker.Split(text)
	metrics.ChunksPerDocument.Observe(float64(len(chunks)))
	log.Info("Document chunked",
		zap.String("phase", "chunk"),
		zap.Int("chunks", len(chunks)),
		zap.String("extraction_mode", extracted.Mode),
	)

	outcome, err := p.analyzer.Analyze(ctx, docID, chunks)
	if err != nil {
		return nil, err
	}

	summary, keyPoints := analysis.Present(outcome.Analysis)
	failed := outcome.FailedChunks
	if failed == nil {
		failed = []int{}
	}
	return &Result{
		FileID:               docID,
		Filename:             filename,
		Summary:              summary,
		KeyPoints:            keyPoints,
		Confidence:           Confidence,
		FullAnalysis:         outcome.Raw,
		StructuredAnalysis:   outcome.Analysis,
		ChunksProcessed:      outcome.ChunksProcessed,
		ExtractedTextPreview: preview(text, p.opts.PreviewChars),
		Pages:                extracted.Pages,
		TablesDetected:       extracted.HasTables,
		ExtractionMode:       extracted.Mode,
		FailedChunks:         failed,
		Repaired:             outcome.Parse == analysis.ParsedRepaired,
	}, nil
}

func (p *Pipeline) observe(start time.Time, res *Result, err error) {
	if err != nil {
		var (
			ve *ValidationError
			nf *NotFoundError
			se *analysis.SynthesisError
		)
		status := "error"
		switch {
		case errors.As(err, &ve):
			status = "rejected"
		case errors.As(err, &nf):
			status = "not_found"
		case errors.Is(err, extractor.ErrExtraction):
			status = "extraction_failed"
		case errors.As(err, &se):
			status = "synthesis_failed"
		}
		metrics.AnalysesTotal.WithLabelValues(status).Inc()
		return
	}

	mode := "single"
	if res.ChunksProcessed > 1 {
		mode = "map_reduce"
	}
	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func preview(s string, n int) string {
	t := truncateRunes(s, n)
	if len(t) < len(s) {
		return t + "..."
	}
	return t
}
