package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"docanalyzer/internal/llm"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
)

const (
	repairTemperature = 0.1
	repairMaxTokens   = 2500
)

// ParseOutcome reports how a structured analysis was obtained.
type ParseOutcome string

const (
	ParsedDirect   ParseOutcome = "direct"
	ParsedRepaired ParseOutcome = "repaired"
	ParsedFallback ParseOutcome = "fallback"
)

var errNotObject = errors.New("not a JSON object")

// Parser decodes model output into a StructuredAnalysis, asking the model to
// repair malformed output once before giving up.
type Parser struct {
	llm    llm.Completer
	schema *jsonschema.Definition
}

// NewParser returns a parser whose repair requests go to c. schema may be nil.
func NewParser(c llm.Completer, schema *jsonschema.Definition) *Parser {
	return &Parser{llm: c, schema: schema}
}

// Parse never fails: when neither the raw text nor its repair decodes, the
// canonical empty analysis is returned.
func (p *Parser) Parse(ctx context.Context, raw string) (StructuredAnalysis, ParseOutcome) {
	log := logger.With(zap.String("phase", "parse"))

	a, err := Decode(raw)
	if err == nil {
		metrics.ParseOutcomes.WithLabelValues(string(ParsedDirect)).Inc()
		return a, ParsedDirect
	}
	log.Warn("model output is not valid analysis JSON, requesting repair",
		zap.Error(err), zap.Int("raw_chars", len(raw)))

	repaired, err := p.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: repairSystemPrompt},
			{Role: llm.RoleUser, Content: repairPrompt(raw)},
		},
		MaxTokens:   repairMaxTokens,
		Temperature: repairTemperature,
		Schema:      p.schema,
		SchemaName:  schemaName,
	})
	if err != nil {
		log.Error("repair request failed, using empty analysis", zap.Error(err))
		metrics.ParseOutcomes.WithLabelValues(string(ParsedFallback)).Inc()
		return Empty(), ParsedFallback
	}

	a, err = Decode(repaired)
	if err != nil {
		log.Error("repaired output still invalid, using empty analysis", zap.Error(err))
		metrics.ParseOutcomes.WithLabelValues(string(ParsedFallback)).Inc()
		return Empty(), ParsedFallback
	}

	metrics.ParseOutcomes.WithLabelValues(string(ParsedRepaired)).Inc()
	return a, ParsedRepaired
}

// Decode parses model output as a StructuredAnalysis. It tolerates markdown
// code fences and prose around the JSON object.
func Decode(raw string) (StructuredAnalysis, error) {
	body := extractObject(raw)
	if body == "" {
		return StructuredAnalysis{}, errNotObject
	}

	var a StructuredAnalysis
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&a); err != nil {
		return StructuredAnalysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if dec.More() {
		return StructuredAnalysis{}, errors.New("decode analysis: trailing data after object")
	}

	a.Normalize()
	return a, nil
}

// extractObject strips code fences and returns the outermost {...} span.
func extractObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
