package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	internalerrors "github.com/chunyu/logs2weekly-go/internal/errors"
)

// AnthropicClient wraps the Anthropic API client
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(apiKey, model string, timeoutSeconds, maxTokens int) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if model == "" {
		model = defaultModels[ProviderAnthropic]
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	httpClient := &http.Client{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}

	client := anthropic.NewClient(
		apiKey,
		anthropic.WithHTTPClient(httpClient),
	)

	return &AnthropicClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate produces text for the prompt using the Messages API.
// The Anthropic API has no JSON response mode; jsonMode relies on the prompt
// instructing the model to emit JSON.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	response, err := retryWithBackoff(ctx, defaultMaxRetries, func() (anthropic.MessagesResponse, error) {
		return c.callAPI(ctx, prompt, c.maxTokens)
	})
	if err != nil {
		return "", err
	}

	text := extractAnthropicText(response)
	if text == "" {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	return text, nil
}

// TestConnection sends a one-token probe and classifies any failure.
func (c *AnthropicClient) TestConnection(ctx context.Context) ConnectionResult {
	response, err := c.callAPI(ctx, probePrompt, probeMaxTokens)
	if err != nil {
		return connectionFailed("Anthropic", c.model, err)
	}

	if extractAnthropicText(response) == "" {
		return emptyResponseResult("Anthropic")
	}

	return connectionOK("Anthropic", c.model)
}

// GetProviderName returns the name of the provider
func (c *AnthropicClient) GetProviderName() string {
	return "Anthropic"
}

// callAPI makes the actual API call to the Messages endpoint
func (c *AnthropicClient) callAPI(ctx context.Context, prompt string, maxTokens int) (anthropic.MessagesResponse, error) {
	request := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: maxTokens,
	}

	response, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		// Sanitize error to keep the API key out of error messages
		return anthropic.MessagesResponse{}, internalerrors.Wrapf(err, "API call failed")
	}

	return response, nil
}

// extractAnthropicText concatenates the text content blocks of a response.
func extractAnthropicText(response anthropic.MessagesResponse) string {
	text := ""
	for _, content := range response.Content {
		if content.Type == "text" && content.Text != nil {
			text += *content.Text
		}
	}
	return text
}

// Ensure AnthropicClient implements Provider interface
var _ Provider = (*AnthropicClient)(nil)
