package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyzer/internal/config"
	"docanalyzer/internal/extractor"
	"docanalyzer/internal/llm"
	"docanalyzer/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server:  config.ServerConfig{MaxUploadBytes: 1 << 20},
		Storage: config.StorageConfig{Backend: "filesystem", Container: "documents", Dir: filepath.Join(dir, "blobs"), SQLitePath: filepath.Join(dir, "db", "d.db")},
		Extraction: config.ExtractionConfig{
			Engine: "local", ShortLineChars: 20, ShortLineRatio: 0.3, PlaceholderOnFailure: true,
		},
		Analysis: config.AnalysisConfig{MaxDocumentChars: 100000, ChunkSize: 7000, ChunkOverlap: 500, MaxChunks: 15, MapConcurrency: 4, PreviewChars: 1000},
		LLM:      config.LLMConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk-test", StructuredOutput: "json_object"},
	}
}

func TestNew_WiresPipeline(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Pipeline)
	assert.Equal(t, "gpt-4o", a.Classifier.Model)
	assert.Contains(t, a.Classifier.Secrets, "sk-test")
	assert.Equal(t, 1<<20, a.Pipeline.MaxUploadBytes())

	doc, err := a.Pipeline.Upload(context.Background(), "notat.txt", []byte("hei"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Storage.Dir, "documents", doc.ID, "notat.txt"))
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "nope"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewStore_Backends(t *testing.T) {
	cfg := testConfig(t)

	fs, err := NewStore(context.Background(), cfg.Storage)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, fs)
	fs.Close()

	cfg.Storage.Backend = "sqlite"
	sq, err := NewStore(context.Background(), cfg.Storage)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteStore{}, sq)
	sq.Close()

	cfg.Storage.EncryptionKey = "hemmelig"
	sealed, err := NewStore(context.Background(), cfg.Storage)
	require.NoError(t, err)
	assert.IsType(t, &storage.SealedStore{}, sealed)
	sealed.Close()

	cfg.Storage.Backend = "s3"
	_, err = NewStore(context.Background(), cfg.Storage)
	assert.Error(t, err)
}

func TestNewExtractor_PlainTextWithLocalEngine(t *testing.T) {
	ex := NewExtractor(testConfig(t).Extraction)
	out, err := ex.Extract(context.Background(), []byte("a;b"), extractor.KindCSV)
	require.NoError(t, err)
	assert.Equal(t, "a;b", out.Text)
}

func TestNewCompleter_IsGuarded(t *testing.T) {
	c, err := NewCompleter(context.Background(), testConfig(t).LLM)
	require.NoError(t, err)
	assert.IsType(t, &llm.Guarded{}, c)
	_, ok := c.(io.Closer)
	assert.True(t, ok)
}
