// Package ai implements the LLM provider adapters used for log summarization.
package ai

import (
	"context"
	"fmt"
)

// Provider is the uniform interface over heterogeneous LLM backends.
//
// Generate renders text for the given prompt. Any error means "this attempt
// produced nothing"; callers must treat it as a failed attempt, never as a
// reason to crash. When jsonMode is true the adapter asks the backend for a
// JSON object where the protocol supports it.
type Provider interface {
	// Generate produces text for the prompt. jsonMode requests JSON output.
	Generate(ctx context.Context, prompt string, jsonMode bool) (string, error)

	// TestConnection sends a minimal probe and reports a human-readable result.
	TestConnection(ctx context.Context) ConnectionResult

	// GetProviderName returns the name of the provider (e.g., "Gemini", "Kimi")
	GetProviderName() string
}

// ConnectionResult is the outcome of a connectivity probe.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderKimi      ProviderType = "kimi"
	ProviderGLM       ProviderType = "glm"
	ProviderQwen      ProviderType = "qwen"
	ProviderAnthropic ProviderType = "anthropic"
)

// ValidProviderTypes returns a list of valid provider types
func ValidProviderTypes() []ProviderType {
	return []ProviderType{ProviderGemini, ProviderKimi, ProviderGLM, ProviderQwen, ProviderAnthropic}
}

// IsValidProviderType checks if the given provider type is valid
func IsValidProviderType(pt string) bool {
	for _, valid := range ValidProviderTypes() {
		if string(valid) == pt {
			return true
		}
	}
	return false
}

// Settings configures a provider instance for one user.
type Settings struct {
	Provider       ProviderType
	Model          string // caller-supplied name; remapped before dispatch
	APIKey         string
	TimeoutSeconds int
	MaxTokens      int
}

// New creates the adapter for the configured provider type.
// The caller-supplied model name is translated through the per-provider
// alias table before the adapter ever sees it.
func New(s Settings) (Provider, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	model := CanonicalModelName(s.Provider, s.Model)

	switch s.Provider {
	case ProviderGemini:
		return NewGeminiClient(GeminiConfig{
			APIKey:         s.APIKey,
			Model:          model,
			TimeoutSeconds: s.TimeoutSeconds,
			MaxTokens:      s.MaxTokens,
		})
	case ProviderKimi, ProviderGLM, ProviderQwen:
		endpoint, ok := openAIEndpoints[s.Provider]
		if !ok {
			return nil, fmt.Errorf("no endpoint registered for provider %q", s.Provider)
		}
		return NewOpenAIClient(OpenAIConfig{
			Name:           endpoint.name,
			BaseURL:        endpoint.baseURL,
			APIKey:         s.APIKey,
			Model:          model,
			TimeoutSeconds: s.TimeoutSeconds,
			MaxTokens:      s.MaxTokens,
		})
	case ProviderAnthropic:
		return NewAnthropicClient(s.APIKey, model, s.TimeoutSeconds, s.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported provider type: %q (valid types: %v)", s.Provider, ValidProviderTypes())
	}
}

// openAIEndpoint describes one OpenAI-protocol-compatible backend.
// The three hosted providers differ only by base URL and default model.
type openAIEndpoint struct {
	name    string
	baseURL string
}

var openAIEndpoints = map[ProviderType]openAIEndpoint{
	ProviderKimi: {name: "Kimi", baseURL: "https://api.moonshot.cn/v1"},
	ProviderGLM:  {name: "GLM", baseURL: "https://open.bigmodel.cn/api/paas/v4"},
	ProviderQwen: {name: "Qwen", baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1"},
}
