package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Analysis   AnalysisConfig
	LLM        LLMConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	AllowedOrigin  string
}

type StorageConfig struct {
	Backend             string // filesystem | redis | sqlite
	Container           string
	Dir                 string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SQLitePath          string
	EncryptionKey       string
	DeleteAfterAnalysis bool
}

type ExtractionConfig struct {
	Engine               string // azure | local
	Endpoint             string
	Key                  string
	APIVersion           string
	Timeout              time.Duration
	PollInterval         time.Duration
	ShortLineChars       int
	ShortLineRatio       float64
	PlaceholderOnFailure bool
}

type AnalysisConfig struct {
	MaxDocumentChars int
	ChunkSize        int
	ChunkOverlap     int
	MaxChunks        int
	MapConcurrency   int
	PreviewChars     int
}

type LLMConfig struct {
	Provider          string // openai | azure | anthropic | huggingface | gemini
	Model             string
	APIKey            string
	BaseURL           string
	APIVersion        string
	StructuredOutput  string // json_schema | json_object | none
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

var (
	validBackends  = map[string]bool{"filesystem": true, "redis": true, "sqlite": true}
	validEngines   = map[string]bool{"azure": true, "local": true}
	validProviders = map[string]bool{"openai": true, "azure": true, "anthropic": true, "huggingface": true, "gemini": true}
	validOutputs   = map[string]bool{"json_schema": true, "json_object": true, "none": true}
)

// Load reads configuration from an optional YAML file, the environment and
// built-in defaults, in that order of precedence (environment wins).
// An empty path searches ./config.yaml and ./config/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DOCANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 60*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Minute)
	v.SetDefault("server.maxUploadBytes", int64(50<<20))
	v.SetDefault("server.allowedOrigin", "*")

	v.SetDefault("storage.backend", "filesystem")
	v.SetDefault("storage.container", "documents")
	v.SetDefault("storage.dir", "./data/blobs")
	v.SetDefault("storage.redisAddr", "localhost:6379")
	v.SetDefault("storage.redisPassword", "")
	v.SetDefault("storage.redisDB", 0)
	v.SetDefault("storage.sqlitePath", "./data/documents.db")
	v.SetDefault("storage.encryptionKey", "")
	v.SetDefault("storage.deleteAfterAnalysis", false)

	v.SetDefault("extraction.engine", "local")
	v.SetDefault("extraction.endpoint", "")
	v.SetDefault("extraction.key", "")
	v.SetDefault("extraction.apiVersion", "2023-07-31")
	v.SetDefault("extraction.timeout", 120*time.Second)
	v.SetDefault("extraction.pollInterval", time.Second)
	v.SetDefault("extraction.shortLineChars", 20)
	v.SetDefault("extraction.shortLineRatio", 0.3)
	v.SetDefault("extraction.placeholderOnFailure", true)

	v.SetDefault("analysis.maxDocumentChars", 100000)
	v.SetDefault("analysis.chunkSize", 7000)
	v.SetDefault("analysis.chunkOverlap", 500)
	v.SetDefault("analysis.maxChunks", 15)
	v.SetDefault("analysis.mapConcurrency", 4)
	v.SetDefault("analysis.previewChars", 1000)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", openai.GPT4oMini)
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.baseURL", "")
	v.SetDefault("llm.apiVersion", "")
	v.SetDefault("llm.structuredOutput", "json_object")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.requestsPerSecond", 0.0)
	v.SetDefault("llm.burst", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}

// bindLegacyEnv keeps the environment names used by earlier deployments working.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.apiKey":                {"DOCANALYZER_LLM_APIKEY", "AI_FOUNDRY_API_KEY", "AI_FOUNDRY_KEY", "OPENAI_API_KEY"},
		"llm.baseURL":               {"DOCANALYZER_LLM_BASEURL", "AI_FOUNDRY_ENDPOINT"},
		"llm.model":                 {"DOCANALYZER_LLM_MODEL", "AI_FOUNDRY_MODEL"},
		"extraction.endpoint":       {"DOCANALYZER_EXTRACTION_ENDPOINT", "DOC_INTELLIGENCE_ENDPOINT"},
		"extraction.key":            {"DOCANALYZER_EXTRACTION_KEY", "DOC_INTELLIGENCE_KEY"},
		"analysis.maxDocumentChars": {"DOCANALYZER_ANALYSIS_MAXDOCUMENTCHARS", "MAX_DOCUMENT_CHARS"},
		"analysis.maxChunks":        {"DOCANALYZER_ANALYSIS_MAXCHUNKS", "MAX_CHUNKS"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}
	return nil
}

// Validate rejects configurations that would fail at the first request.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.maxUploadBytes must be positive"))
	}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	if c.Storage.Container == "" {
		errs = append(errs, errors.New("storage.container is required"))
	}
	if !validEngines[c.Extraction.Engine] {
		errs = append(errs, fmt.Errorf("unknown extraction.engine %q", c.Extraction.Engine))
	}
	if c.Extraction.Engine == "azure" && !strings.HasPrefix(c.Extraction.Endpoint, "https://") {
		errs = append(errs, errors.New("extraction.endpoint must start with https:// for the azure engine"))
	}
	if c.Extraction.ShortLineRatio < 0 || c.Extraction.ShortLineRatio > 1 {
		errs = append(errs, errors.New("extraction.shortLineRatio must be within [0, 1]"))
	}
	if c.Analysis.ChunkSize <= 0 {
		errs = append(errs, errors.New("analysis.chunkSize must be positive"))
	}
	if c.Analysis.ChunkOverlap < 0 || c.Analysis.ChunkOverlap >= c.Analysis.ChunkSize {
		errs = append(errs, errors.New("analysis.chunkOverlap must be within [0, chunkSize)"))
	}
	if c.Analysis.MaxChunks <= 0 {
		errs = append(errs, errors.New("analysis.maxChunks must be positive"))
	}
	if c.Analysis.MaxDocumentChars <= 0 {
		errs = append(errs, errors.New("analysis.maxDocumentChars must be positive"))
	}
	if c.Analysis.MapConcurrency <= 0 {
		errs = append(errs, errors.New("analysis.mapConcurrency must be positive"))
	}
	if !validProviders[c.LLM.Provider] {
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Provider == "azure" && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.baseURL is required for the azure provider"))
	}
	if !validOutputs[c.LLM.StructuredOutput] {
		errs = append(errs, fmt.Errorf("unknown llm.structuredOutput %q", c.LLM.StructuredOutput))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Secrets returns every configured credential so callers can redact them
// from logs and error messages.
func (c *Config) Secrets() []string {
	return []string{c.LLM.APIKey, c.Extraction.Key, c.Storage.RedisPassword, c.Storage.EncryptionKey}
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
