package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docanalyzer/internal/app"
	"docanalyzer/internal/config"
	"docanalyzer/internal/extractor"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
)

var (
	cfgFile   string
	corpusDir string
	outputDir string
	provider  string
	model     string
)

var rootCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze local documents without running the server",
	Long: `Runs extraction and analysis on local PDF, TXT, CSV, DOC and DOCX files
and writes one JSON result per file, either to stdout or to --output.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.Flags().StringVarP(&corpusDir, "dir", "d", "", "analyze every supported file in this directory")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "write <name>.json files here instead of stdout")
	rootCmd.Flags().StringVar(&provider, "provider", "", "override llm.provider")
	rootCmd.Flags().StringVar(&model, "model", "", "override llm.model")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if provider != "" {
		cfg.LLM.Provider = provider
	}
	if model != "" {
		cfg.LLM.Model = model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Results go to stdout, so logs go to stderr unless configured otherwise.
	output := cfg.Logging.OutputPath
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	if err := logger.Init(cfg.Logging.Level, "console", output); err != nil {
		return err
	}
	defer logger.Sync()
	metrics.Init()

	files, err := collectFiles(corpusDir, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported files given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s", logger.Redact(err.Error(), cfg.Secrets()...))
	}
	defer a.Close()

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	failed := 0
	start := time.Now()
	for _, path := range files {
		if err := analyzeFile(ctx, a, path); err != nil {
			_, msg := a.Classifier.Classify(err)
			logger.Error("Analysis failed", zap.String("file", path), zap.String("error", msg))
			failed++
		}
	}
	logger.Info("Finished", zap.Int("files", len(files)), zap.Int("failed", failed), zap.Duration("elapsed", time.Since(start)))

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func analyzeFile(ctx context.Context, a *app.App, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	logger.Info("Processing", zap.String("file", name), zap.Int("bytes", len(data)))

	res, err := a.Pipeline.AnalyzeBytes(ctx, name, name, data)
	if err != nil {
		return err
	}

	if outputDir == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, name+".json"), out, 0644)
}

// collectFiles returns the explicit args plus every supported file in dir.
func collectFiles(dir string, args []string) ([]string, error) {
	var files []string
	for _, a := range args {
		if _, ok := extractor.KindFromFilename(a); !ok {
			return nil, fmt.Errorf("unsupported file type: %s", a)
		}
		files = append(files, a)
	}
	if dir == "" {
		return files, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := extractor.KindFromFilename(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
