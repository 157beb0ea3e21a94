package ai

import "strings"

// Default model per provider, used when the user config leaves the name empty.
var defaultModels = map[ProviderType]string{
	ProviderGemini:    "gemini-1.5-flash",
	ProviderKimi:      "moonshot-v1-8k",
	ProviderGLM:       "glm-4-flash",
	ProviderQwen:      "qwen-plus",
	ProviderAnthropic: "claude-sonnet-4-20250514",
}

// modelAliases translates caller-supplied model aliases to the identifiers
// the provider actually accepts. Frontends and older configs use short or
// outdated names; the canonical name is what goes on the wire.
var modelAliases = map[ProviderType]map[string]string{
	ProviderGemini: {
		"gemini-2.0-flash":        "gemini-2.0-flash-001",
		"gemini-1.5-flash-latest": "gemini-1.5-flash",
		"gemini-1.5-pro-latest":   "gemini-1.5-pro",
		"gemini-pro":              "gemini-1.5-pro",
	},
	ProviderKimi: {
		"kimi-k2.5": "moonshot-v1-8k",
		"kimi":      "moonshot-v1-8k",
	},
	ProviderGLM: {
		"glm-4": "glm-4-flash",
	},
	ProviderQwen: {
		"qwen-turbo-latest": "qwen-turbo",
	},
}

// CanonicalModelName resolves the model name to dispatch to the provider.
// An empty name falls back to the provider default, a leading "models/"
// prefix is stripped (the Gemini API rejects it), and known aliases are
// translated to provider-accepted identifiers.
func CanonicalModelName(provider ProviderType, model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return defaultModels[provider]
	}

	model = strings.TrimPrefix(model, "models/")

	if aliases, ok := modelAliases[provider]; ok {
		if canonical, ok := aliases[model]; ok {
			return canonical
		}
	}

	return model
}
