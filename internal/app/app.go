// Package app builds the document pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"docanalyzer/internal/analysis"
	"docanalyzer/internal/chunker"
	"docanalyzer/internal/config"
	"docanalyzer/internal/crypto"
	"docanalyzer/internal/extractor"
	"docanalyzer/internal/llm"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/pipeline"
	"docanalyzer/internal/storage"
)

// App holds the wired pipeline and the resources it must release.
type App struct {
	Pipeline   *pipeline.Pipeline
	Classifier pipeline.Classifier

	closers []io.Closer
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Classifier: pipeline.Classifier{Model: cfg.LLM.Model, Secrets: cfg.Secrets()}}

	store, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)

	completer, err := NewCompleter(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := completer.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	analyzer, err := analysis.NewAnalyzer(completer, cfg.Analysis.MapConcurrency)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Pipeline = pipeline.New(store, NewExtractor(cfg.Extraction), analyzer, pipeline.Options{
		Container:           cfg.Storage.Container,
		MaxUploadBytes:      int(cfg.Server.MaxUploadBytes),
		MaxDocumentChars:    cfg.Analysis.MaxDocumentChars,
		PreviewChars:        cfg.Analysis.PreviewChars,
		DeleteAfterAnalysis: cfg.Storage.DeleteAfterAnalysis,
		Chunking: []chunker.Option{
			chunker.WithChunkSize(cfg.Analysis.ChunkSize),
			chunker.WithOverlap(cfg.Analysis.ChunkOverlap),
			chunker.WithMaxChunks(cfg.Analysis.MaxChunks),
		},
	})

	logger.Info("Pipeline ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("extraction", cfg.Extraction.Engine),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("api_key", logger.MaskKey(cfg.LLM.APIKey)),
	)
	return a, nil
}

// Close releases the store and any provider client.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewStore opens the configured backend, sealed when an encryption key is set.
func NewStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Backend {
	case "redis":
		store, err = storage.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sqlite":
		store, err = storage.NewSQLiteStore(cfg.SQLitePath)
	case "filesystem", "":
		store, err = storage.NewFileStore(filepath.Clean(cfg.Dir))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}

	if cfg.EncryptionKey == "" {
		return store, nil
	}
	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		store.Close()
		return nil, err
	}
	return storage.NewSealedStore(store, sealer), nil
}

// NewExtractor builds the extractor over the configured engine.
func NewExtractor(cfg config.ExtractionConfig) *extractor.Extractor {
	var engine extractor.Engine
	switch cfg.Engine {
	case "azure":
		engine = extractor.NewAzureEngine(cfg.Endpoint, cfg.Key, cfg.APIVersion, cfg.PollInterval)
	default:
		engine = extractor.NewLocalEngine()
	}
	return extractor.New(engine, extractor.Options{
		ShortLineChars: cfg.ShortLineChars,
		ShortLineRatio: cfg.ShortLineRatio,
		Placeholder:    cfg.PlaceholderOnFailure,
		Timeout:        cfg.Timeout,
	})
}

// NewCompleter builds the configured provider behind a timeout and rate guard.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (llm.Completer, error) {
	provider, err := llm.NewProvider(ctx, llm.Options{
		Provider:         cfg.Provider,
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		BaseURL:          cfg.BaseURL,
		APIVersion:       cfg.APIVersion,
		StructuredOutput: cfg.StructuredOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}
	return llm.Guard(provider, cfg.Provider, cfg.Timeout, cfg.RequestsPerSecond, cfg.Burst), nil
}
