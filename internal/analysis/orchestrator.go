// Package analysis turns document chunks into a structured journalistic
// analysis: single-pass for one chunk, map-reduce for several.
package analysis

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docanalyzer/internal/chunker"
	"docanalyzer/internal/llm"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
)

const (
	schemaName = "document_analysis"

	analysisTemperature = 0.3
	singleMaxTokens     = 2000
	mapMaxTokens        = 1500
	reduceMaxTokens     = 2500

	DefaultMapConcurrency = 4
)

// Outcome is the result of analyzing one document.
type Outcome struct {
	Analysis        StructuredAnalysis
	Raw             string
	ChunksProcessed int
	FailedChunks    []int
	Parse           ParseOutcome
}

// Analyzer drives the completion calls for one document at a time. It holds
// no per-document state and is safe for concurrent use.
type Analyzer struct {
	llm         llm.Completer
	parser      *Parser
	schema      *jsonschema.Definition
	concurrency int
}

// NewAnalyzer builds an analyzer. concurrency bounds parallel map-phase
// calls; values below 1 use DefaultMapConcurrency.
func NewAnalyzer(c llm.Completer, concurrency int) (*Analyzer, error) {
	schema, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("generating analysis schema: %w", err)
	}
	if concurrency < 1 {
		concurrency = DefaultMapConcurrency
	}
	return &Analyzer{
		llm:         c,
		parser:      NewParser(c, schema),
		schema:      schema,
		concurrency: concurrency,
	}, nil
}

// Analyze runs single-pass analysis for one chunk and map-reduce for more.
// Only a single-pass or reduce failure is returned, as *SynthesisError.
func (a *Analyzer) Analyze(ctx context.Context, docID string, chunks []chunker.Chunk) (*Outcome, error) {
	if len(chunks) == 0 {
		return nil, &SynthesisError{Phase: PhaseSingle, Err: fmt.Errorf("no text to analyze")}
	}
	log := logger.With(zap.String("doc_id", docID))

	var (
		raw    string
		failed []int
		err    error
	)
	if len(chunks) == 1 {
		raw, err = a.single(ctx, chunks[0])
		if err != nil {
			log.Error("single-pass analysis failed", zap.String("phase", PhaseSingle), zap.Error(err))
			return nil, &SynthesisError{Phase: PhaseSingle, Err: err}
		}
	} else {
		var partials []string
		partials, failed = a.mapChunks(ctx, log, chunks)
		if err := ctx.Err(); err != nil {
			return nil, &SynthesisError{Phase: PhaseMap, Err: err}
		}
		log.Info("map phase finished", zap.Int("chunks", len(chunks)), zap.Int("failed", len(failed)))

		raw, err = a.reduce(ctx, partials)
		if err != nil {
			log.Error("synthesis failed", zap.String("phase", PhaseReduce), zap.Error(err))
			return nil, &SynthesisError{Phase: PhaseReduce, Err: err}
		}
	}

	structured, outcome := a.parser.Parse(ctx, raw)
	return &Outcome{
		Analysis:        structured,
		Raw:             raw,
		ChunksProcessed: len(chunks),
		FailedChunks:    failed,
		Parse:           outcome,
	}, nil
}

func (a *Analyzer) single(ctx context.Context, c chunker.Chunk) (string, error) {
	return a.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: singleSystemPrompt},
			{Role: llm.RoleUser, Content: singleUserPrompt(c.Text)},
		},
		MaxTokens:   singleMaxTokens,
		Temperature: analysisTemperature,
		Schema:      a.schema,
		SchemaName:  schemaName,
	})
}

// mapChunks analyzes every chunk with bounded parallelism. Each goroutine
// writes only its own slot, so results come back in chunk order. A failed
// chunk contributes the empty analysis and its ordinal is reported.
func (a *Analyzer) mapChunks(ctx context.Context, log *zap.Logger, chunks []chunker.Chunk) ([]string, []int) {
	results := make([]string, len(chunks))
	failed := make([]bool, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			out, err := a.llm.Complete(gctx, llm.Request{
				Messages:    []llm.Message{{Role: llm.RoleUser, Content: chunkPrompt(i+1, len(chunks), c.Text)}},
				MaxTokens:   mapMaxTokens,
				Temperature: analysisTemperature,
				Schema:      a.schema,
				SchemaName:  schemaName,
			})
			if err != nil {
				log.Warn("chunk analysis failed, substituting empty analysis",
					zap.String("phase", PhaseMap), zap.Int("chunk", i+1), zap.Int("total", len(chunks)), zap.Error(err))
				metrics.ChunkFailures.Inc()
				results[i] = EmptyJSON()
				failed[i] = true
				return nil
			}
			results[i] = out
			return nil
		})
	}
	// Workers never return errors; failures are recorded per slot.
	_ = g.Wait()

	var failedOrdinals []int
	for i, f := range failed {
		if f {
			failedOrdinals = append(failedOrdinals, i+1)
		}
	}
	return results, failedOrdinals
}

func (a *Analyzer) reduce(ctx context.Context, partials []string) (string, error) {
	return a.llm.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: synthesisPrompt(partials)}},
		MaxTokens:   reduceMaxTokens,
		Temperature: analysisTemperature,
		Schema:      a.schema,
		SchemaName:  schemaName,
	})
}
