package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainBackend adapts any langchaingo model to TextGenerator.
type LangChainBackend struct {
	name  string
	model llms.Model
}

// NewOllama connects to a local Ollama server (the Gemma primary in the default setup).
func NewOllama(serverURL, model string) (*LangChainBackend, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	m, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return &LangChainBackend{name: "ollama:" + model, model: m}, nil
}

// NewOpenAI creates a client for the OpenAI API or any compatible endpoint.
func NewOpenAI(baseURL, model, apiKey string) (*LangChainBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai client: api key required")
	}
	opts := []openai.Option{openai.WithModel(model), openai.WithToken(apiKey)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return &LangChainBackend{name: "openai:" + model, model: m}, nil
}

func (b *LangChainBackend) Name() string { return b.name }

func (b *LangChainBackend) Generate(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	var callOpts []llms.CallOption
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, b.model, prompt, callOpts...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
