package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Request carries the generation parameters for one completion call.
// Schema, when set, asks providers that support structured output to
// constrain the reply to that JSON schema.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
	Schema      *jsonschema.Definition
	SchemaName  string
}

// Completer is the chat-completion service the analysis pipeline depends on.
// The model is bound when the provider is constructed.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options configures NewProvider.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint. Required for azure.
	BaseURL    string
	APIVersion string
	// StructuredOutput is json_schema, json_object or none.
	StructuredOutput string
}

// NewProvider creates the appropriate completion provider based on config.
func NewProvider(ctx context.Context, opts Options) (Completer, error) {
	name := strings.ToLower(opts.Provider)
	model := opts.Model
	switch name {
	case "openai", "":
		if model == "" {
			model = openai.GPT4o
		}
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model, output: opts.StructuredOutput}, nil
	case "azure":
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("azure provider requires an endpoint")
		}
		if model == "" {
			return nil, fmt.Errorf("azure provider requires a deployment name")
		}
		cfg := openai.DefaultAzureConfig(opts.APIKey, opts.BaseURL)
		if opts.APIVersion != "" {
			cfg.APIVersion = opts.APIVersion
		}
		// The configured model is the deployment name as-is.
		cfg.AzureModelMapperFunc = func(m string) string { return m }
		return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model, output: opts.StructuredOutput}, nil
	case "huggingface":
		if model == "" {
			model = "mistralai/Mistral-7B-Instruct-v0.3"
		}
		return &HuggingFaceProvider{apiKey: opts.APIKey, model: model, baseURL: opts.BaseURL}, nil
	case "anthropic":
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		return &AnthropicProvider{apiKey: opts.APIKey, model: model, baseURL: opts.BaseURL}, nil
	case "gemini":
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return NewGeminiProvider(ctx, opts.APIKey, model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", opts.Provider)
	}
}

// splitSystem separates system messages (joined) from the conversation turns.
func splitSystem(msgs []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
