package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/srtpack/internal/config"
	"github.com/mgpai22/srtpack/internal/translate"
)

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	want := filepath.Join(tempHome, ".config", "srtpack", "config.toml")
	if resolved != want {
		t.Fatalf("resolved path = %q, want %q", resolved, want)
	}
	if cfg.Translation.Provider != "google" {
		t.Fatalf("default provider = %q, want google", cfg.Translation.Provider)
	}
	if cfg.Translation.Concurrency != 1 {
		t.Fatalf("default concurrency = %d, want 1", cfg.Translation.Concurrency)
	}
	if cfg.Translation.BatchSize != translate.DefaultBatchSize {
		t.Fatalf("default batch size = %d", cfg.Translation.BatchSize)
	}
	if cfg.Output.Format != "srt" || cfg.Output.TableHeading != "Dialogue List" {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Polish.Enabled {
		t.Fatal("expected polish disabled by default")
	}
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "srtpack.toml")
	content := `
[translation]
provider = "Gemini"
model = "gemini-2.5-pro"
concurrency = 4

[api_keys]
gemini = "from-file"

[polish]
enabled = true
provider = "anthropic"

[output]
dir = "~/subs"
format = "VTT"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Translation.Provider != "gemini" {
		t.Fatalf("provider = %q, want gemini", cfg.Translation.Provider)
	}
	if cfg.Translation.Concurrency != 4 || cfg.Translation.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected translation section: %+v", cfg.Translation)
	}
	if cfg.Translation.BatchSize != translate.DefaultBatchSize {
		t.Fatalf("batch size should keep its default, got %d", cfg.Translation.BatchSize)
	}
	if cfg.Output.Dir != filepath.Join(tempHome, "subs") {
		t.Fatalf("output dir not expanded: %q", cfg.Output.Dir)
	}
	if cfg.Output.Format != "vtt" {
		t.Fatalf("format = %q, want vtt", cfg.Output.Format)
	}
	if got := cfg.APIKey(translate.ProviderGemini); got != "from-file" {
		t.Fatalf("APIKey(gemini) = %q, want from-file", got)
	}
}

func TestLoadProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile("srtpack.toml", []byte("[translation]\nprovider = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "srtpack.toml" {
		t.Fatalf("expected project file, got %q exists=%v", resolved, exists)
	}
	if cfg.Translation.Provider != "none" {
		t.Fatalf("provider = %q, want none", cfg.Translation.Provider)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown provider", "[translation]\nprovider = \"deepl\"\n", "translation.provider"},
		{"zero concurrency", "[translation]\nconcurrency = 0\n", "concurrency"},
		{"negative batch", "[translation]\nbatch_size = -1\n", "batch_size"},
		{"polish with google", "[polish]\nenabled = true\nprovider = \"google\"\n", "polish.provider"},
		{"bad format", "[output]\nformat = \"docx\"\n", "output.format"},
		{"unknown key", "[translation]\nlanguage = \"fr\"\n", "parse config"},
		{"bad toml", "[translation\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAPIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", " env-key ")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	cfg := config.Default()
	cfg.APIKeys.Anthropic = "file-anthropic"

	if got := cfg.APIKey(translate.ProviderOpenAI); got != "env-key" {
		t.Fatalf("APIKey(openai) = %q, want env-key", got)
	}
	if got := cfg.APIKey(translate.ProviderAnthropic); got != "file-anthropic" {
		t.Fatalf("APIKey(anthropic) = %q, want the config value", got)
	}
	if got := cfg.APIKey(translate.ProviderOllama); got != "" {
		t.Fatalf("APIKey(ollama) = %q, want empty", got)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GEMINI_API_KEY", "already-set")
	os.Unsetenv("SRTPACK_TEST_DOTENV")
	t.Cleanup(func() { os.Unsetenv("SRTPACK_TEST_DOTENV") })

	env := "GEMINI_API_KEY=from-dotenv\nSRTPACK_TEST_DOTENV=loaded\n"
	if err := os.WriteFile(".env", []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}

	config.LoadDotEnv()

	if got := os.Getenv("GEMINI_API_KEY"); got != "already-set" {
		t.Fatalf("GEMINI_API_KEY = %q, .env must not override", got)
	}
	if got := os.Getenv("SRTPACK_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("SRTPACK_TEST_DOTENV = %q, want loaded", got)
	}
}
