package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Maximum allowed JSON response size (1MB) to prevent memory exhaustion
const maxJSONResponseSize = 1024 * 1024

// StripCodeFence removes a surrounding Markdown code fence from an LLM
// response. Some models wrap the requested JSON in ```json ... ``` (or bare
// ``` ... ```) despite being asked for raw JSON.
func StripCodeFence(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(s)
}

// ParseWeeklyReport extracts the weekly-summary JSON object from an LLM
// response. The model is instructed to produce the WeeklySummary shape, but
// output is decoded into a generic map so shape deviations survive parsing.
// Callers fall back to FallbackReport when this fails.
func ParseWeeklyReport(response string) (map[string]interface{}, error) {
	cleaned := StripCodeFence(response)

	if cleaned == "" {
		return nil, fmt.Errorf("no content in response")
	}

	if len(cleaned) > maxJSONResponseSize {
		return nil, fmt.Errorf("JSON response too large: %d bytes (max: %d)", len(cleaned), maxJSONResponseSize)
	}

	var report map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return report, nil
}

// FallbackReport wraps a non-JSON response in the minimal report shape so
// the caller still gets something renderable instead of a hard failure.
func FallbackReport(raw string) map[string]interface{} {
	return map[string]interface{}{
		"executiveSummary": raw,
	}
}
