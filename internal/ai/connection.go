package ai

import (
	"fmt"
	"strings"

	internalerrors "github.com/chunyu/logs2weekly-go/internal/errors"
)

// probePrompt is the minimal prompt sent by TestConnection.
const probePrompt = "ping"

// probeMaxTokens caps the probe response so a connection test costs almost nothing.
const probeMaxTokens = 10

// connectionOK builds the success result for a connectivity probe.
func connectionOK(name, model string) ConnectionResult {
	return ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("%s (%s) connection succeeded", name, model),
	}
}

// connectionFailed builds the failure result for a connectivity probe.
func connectionFailed(name, model string, err error) ConnectionResult {
	return ConnectionResult{
		Success: false,
		Message: classifyConnectionError(name, model, err),
	}
}

// emptyResponseResult is returned when the provider answered but with no text.
func emptyResponseResult(name string) ConnectionResult {
	return ConnectionResult{
		Success: false,
		Message: fmt.Sprintf("%s returned an empty response", name),
	}
}

// classifyConnectionError turns a provider error into a human-readable
// diagnostic. Classification is best-effort substring matching on provider
// error text ("429", "404", "400"); providers do not expose structured error
// codes through every SDK and endpoint, so this stays a fuzzy-match policy.
// Keep all matching in this one function so a structured mapping can replace
// it without touching callers.
func classifyConnectionError(name, model string, err error) string {
	msg := internalerrors.SanitizeError(err).Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "429") || strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return fmt.Sprintf("%s quota exhausted (429): the key's project has likely used up its quota or calls are too frequent. Try another key or wait a minute before retrying.", name)
	case strings.Contains(msg, "404") || strings.Contains(lower, "not found"):
		return fmt.Sprintf("%s model not found (404): no model named %s. Try a fully qualified name such as %s.", name, model, defaultModels[providerTypeForName(name)])
	case strings.Contains(msg, "400") || strings.Contains(lower, "invalid request"):
		return fmt.Sprintf("%s bad request (400): check that the model name %s is correct.", name, model)
	default:
		return fmt.Sprintf("%s connection failed: %s", name, msg)
	}
}

// providerTypeForName maps a display name back to its ProviderType.
// Used only to suggest a sensible default model in diagnostics.
func providerTypeForName(name string) ProviderType {
	switch name {
	case "Gemini":
		return ProviderGemini
	case "Kimi":
		return ProviderKimi
	case "GLM":
		return ProviderGLM
	case "Qwen":
		return ProviderQwen
	case "Anthropic":
		return ProviderAnthropic
	default:
		return ProviderGemini
	}
}
