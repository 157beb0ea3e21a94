package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GeminiClient talks to the Google Generative Language REST API.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// GeminiConfig holds Gemini-specific configuration
type GeminiConfig struct {
	APIKey         string
	Model          string // e.g., "gemini-1.5-flash"
	BaseURL        string // override for tests; defaults to the Google endpoint
	TimeoutSeconds int    // Request timeout
	MaxTokens      int    // Max tokens in response
}

// geminiRequest is the request body for the generateContent endpoint
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiGenerationConfig controls output shape and size
type geminiGenerationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

// geminiResponse is the response from the generateContent endpoint
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Model == "" {
		cfg.Model = defaultModels[ProviderGemini]
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	return &GeminiClient{
		baseURL:   cfg.BaseURL,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Generate produces text for the prompt using the configured Gemini model.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	response, err := retryWithBackoff(ctx, defaultMaxRetries, func() (*geminiResponse, error) {
		return c.callAPI(ctx, prompt, jsonMode, c.maxTokens)
	})
	if err != nil {
		return "", err
	}

	text := c.extractText(response)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return text, nil
}

// TestConnection sends a one-token probe and classifies any failure.
func (c *GeminiClient) TestConnection(ctx context.Context) ConnectionResult {
	response, err := c.callAPI(ctx, probePrompt, false, probeMaxTokens)
	if err != nil {
		return connectionFailed("Gemini", c.model, err)
	}

	if c.extractText(response) == "" {
		return emptyResponseResult("Gemini")
	}

	return connectionOK("Gemini", c.model)
}

// GetProviderName returns the name of the provider
func (c *GeminiClient) GetProviderName() string {
	return "Gemini"
}

// callAPI makes the actual API call to the generateContent endpoint.
// The API key travels as a query parameter per the Google API convention.
func (c *GeminiClient) callAPI(ctx context.Context, prompt string, jsonMode bool, maxTokens int) (*geminiResponse, error) {
	genCfg := &geminiGenerationConfig{MaxOutputTokens: maxTokens}
	if jsonMode {
		genCfg.ResponseMimeType = "application/json"
	}

	request := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: genCfg,
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	return doJSONPost[geminiResponse](ctx, c.httpClient, url, request, nil)
}

// extractText concatenates the text parts of the first candidate.
func (c *GeminiClient) extractText(response *geminiResponse) string {
	if response == nil || len(response.Candidates) == 0 {
		return ""
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String()
}

// Ensure GeminiClient implements Provider interface
var _ Provider = (*GeminiClient)(nil)
