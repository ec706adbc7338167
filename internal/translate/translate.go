package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mgpai22/srtpack/internal/language"
)

// single text item to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// interface for text translation; languages are bound at construction.
// Translate may return results together with a *PartialError when only
// some of the items could be translated.
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// optional interface for translators that support concurrent batch processing
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(
		ctx context.Context,
		items []TranslationItem,
		concurrency int,
	) ([]TranslationResult, error)
}

// PartialError accompanies the results of the batches that did translate.
// The items missing from those results are the ones that failed.
type PartialError struct {
	Failed int // items without a result
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d items not translated: %v", e.Failed, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// translation service provider
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderNone      Provider = "none"
)

// what an LLM prompt asks the model to do
type Task int

const (
	TaskTranslate Task = iota
	TaskPolish
)

const DefaultBatchSize = 50

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int    // items per API request (default 50)
	Endpoint       string // ollama host override
	Task           Task
}

// ParseProvider validates a provider name.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case ProviderGoogle, ProviderGemini, ProviderOpenAI,
		ProviderAnthropic, ProviderOllama, ProviderNone:
		return p, nil
	case "":
		return ProviderGoogle, nil
	default:
		return "", fmt.Errorf(
			"unsupported translation provider %q: use google, gemini, openai, anthropic, ollama, or none",
			name,
		)
	}
}

// IsLLM reports whether the provider is prompt driven.
func (p Provider) IsLLM() bool {
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return true
	default:
		return false
	}
}

// APIKeyEnv is the environment variable holding the provider's key.
func (p Provider) APIKeyEnv() string {
	switch p {
	case ProviderGoogle:
		return "GOOGLE_TRANSLATE_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// RequiresAPIKey is false for providers that can authenticate on their own
// (Google application default credentials, a local ollama) or need nothing.
func (p Provider) RequiresAPIKey() bool {
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return true
	default:
		return false
	}
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGoogle:
		return NewGoogleTranslator(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	case ProviderOllama:
		return NewOllamaTranslator(ctx, opts)
	case ProviderNone:
		return nil, fmt.Errorf("provider %q does not translate", provider)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// NewPolisher returns an LLM backed Translator that rewrites text in
// TargetLanguage for grammar and style without translating it.
func NewPolisher(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if !provider.IsLLM() {
		return nil, fmt.Errorf(
			"provider %q cannot polish: use gemini, openai, anthropic, or ollama",
			provider,
		)
	}
	opts.Task = TaskPolish
	return Factory(ctx, provider, apiKey, opts)
}

// BuildPrompt creates the prompt for LLM providers
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	target := languageLabel(opts.TargetLanguage)

	switch opts.Task {
	case TaskPolish:
		fmt.Fprintf(&sb,
			"You are a professional native %s speaker and editor. Polish the following %s subtitle texts so they read clearly and naturally and are grammatically correct.\n\n",
			target,
			target,
		)
	default:
		if opts.InputLanguage != "" {
			fmt.Fprintf(&sb,
				"Translate the following %s subtitle texts to %s.\n\n",
				languageLabel(opts.InputLanguage),
				target,
			)
		} else {
			fmt.Fprintf(&sb,
				"Translate the following subtitle texts to %s.\n\n",
				target,
			)
		}
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	if opts.Task == TaskPolish {
		sb.WriteString(
			"1. Do NOT translate the text to another language; only improve style and fix mistakes.\n",
		)
	} else {
		sb.WriteString(
			"1. Translate ONLY the text content, preserving the meaning.\n",
		)
	}
	sb.WriteString(
		"2. Keep any formatting tags (like <i>, {\\an8}, etc.) unchanged.\n",
	)
	sb.WriteString("3. Preserve line breaks in the same positions.\n")
	sb.WriteString("4. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("5. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString(
		"6. The 'index' values must match the input indices exactly.\n",
	)
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the JSON array only:")

	return sb.String()
}

// "fr" -> "French (fr)"; free-form names pass through
func languageLabel(code string) string {
	code = strings.TrimSpace(code)
	name := language.DisplayName(code)
	if strings.EqualFold(name, code) {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}
