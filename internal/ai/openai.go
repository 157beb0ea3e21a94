package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient wraps an OpenAI-protocol-compatible chat-completions API.
// Kimi (Moonshot), GLM (Zhipu) and Qwen (DashScope) all speak this protocol;
// they differ only by base URL and default model name.
type OpenAIClient struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// OpenAIConfig holds configuration for an OpenAI-compatible backend
type OpenAIConfig struct {
	Name           string // display name, e.g., "Kimi"
	BaseURL        string // e.g., "https://api.moonshot.cn/v1"
	APIKey         string
	Model          string
	TimeoutSeconds int // Request timeout
	MaxTokens      int // Max tokens in response
}

// openAIChatRequest is the request body for the /chat/completions endpoint
type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// responseFormat specifies the output format
type responseFormat struct {
	Type string `json:"type"` // "json_object" for JSON mode
}

// openAIMessage represents a chat message in OpenAI format
type openAIMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// openAIChatResponse is the response from the /chat/completions endpoint
type openAIChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient creates a client for an OpenAI-compatible backend
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is required", cfg.Name)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", cfg.Name)
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Name == "" {
		cfg.Name = "OpenAI-compatible"
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	return &OpenAIClient{
		name:      cfg.Name,
		baseURL:   cfg.BaseURL,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Generate produces text for the prompt using the chat-completions endpoint.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	response, err := retryWithBackoff(ctx, defaultMaxRetries, func() (*openAIChatResponse, error) {
		return c.callAPI(ctx, prompt, jsonMode, c.maxTokens)
	})
	if err != nil {
		return "", err
	}

	text := c.extractText(response)
	if text == "" {
		return "", fmt.Errorf("empty response from %s", c.name)
	}

	return text, nil
}

// TestConnection sends a one-token probe and classifies any failure.
func (c *OpenAIClient) TestConnection(ctx context.Context) ConnectionResult {
	response, err := c.callAPI(ctx, probePrompt, false, probeMaxTokens)
	if err != nil {
		return connectionFailed(c.name, c.model, err)
	}

	if c.extractText(response) == "" {
		return emptyResponseResult(c.name)
	}

	return connectionOK(c.name, c.model)
}

// GetProviderName returns the name of the provider
func (c *OpenAIClient) GetProviderName() string {
	return c.name
}

// callAPI makes the actual API call to the chat-completions endpoint
func (c *OpenAIClient) callAPI(ctx context.Context, prompt string, jsonMode bool, maxTokens int) (*openAIChatResponse, error) {
	request := openAIChatRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
		Stream:      false,
	}
	if jsonMode {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	url := c.baseURL + "/chat/completions"
	return doJSONPost[openAIChatResponse](ctx, c.httpClient, url, request, headers)
}

// extractText returns the content of the first choice.
func (c *OpenAIClient) extractText(response *openAIChatResponse) string {
	if response == nil || len(response.Choices) == 0 {
		return ""
	}
	return response.Choices[0].Message.Content
}

// Ensure OpenAIClient implements Provider interface
var _ Provider = (*OpenAIClient)(nil)
