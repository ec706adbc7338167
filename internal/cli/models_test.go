package cli

import (
	"testing"

	"github.com/mgpai22/srtpack/internal/translate"
)

func TestValidateModel(t *testing.T) {
	tests := []struct {
		name     string
		provider translate.Provider
		model    string
		override bool
		wantErr  bool
	}{
		{"empty model", translate.ProviderOpenAI, "", false, false},
		{"known openai", translate.ProviderOpenAI, "gpt-5-mini", false, false},
		{"case insensitive", translate.ProviderGemini, "Gemini-2.5-Flash", false, false},
		{"google nmt", translate.ProviderGoogle, "nmt", false, false},
		{"unknown anthropic", translate.ProviderAnthropic, "claude-2", false, true},
		{"unknown with override", translate.ProviderAnthropic, "claude-2", true, false},
		{"ollama accepts any", translate.ProviderOllama, "llama3.2:3b", false, false},
		{"google rejects llm", translate.ProviderGoogle, "gpt-5", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateModel(tt.provider, tt.model, tt.override)
			if (err != nil) != tt.wantErr {
				t.Errorf(
					"validateModel(%q, %q, %v) error = %v, wantErr %v",
					tt.provider,
					tt.model,
					tt.override,
					err,
					tt.wantErr,
				)
			}
		})
	}
}
