// Package config loads srtpack settings from a TOML file. Command-line flags
// override these values; the file overrides the defaults in defaults.go.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/srtpack/internal/subtitle"
	"github.com/mgpai22/srtpack/internal/translate"
)

// Translation contains the translation provider settings.
type Translation struct {
	Provider    string `toml:"provider"`
	Model       string `toml:"model"`
	Endpoint    string `toml:"endpoint"` // ollama only
	Prompt      string `toml:"prompt"`
	Concurrency int    `toml:"concurrency"`
	BatchSize   int    `toml:"batch_size"`
}

// APIKeys holds provider credentials. Empty keys fall back to the provider's
// environment variable.
type APIKeys struct {
	Google    string `toml:"google"`
	Gemini    string `toml:"gemini"`
	OpenAI    string `toml:"openai"`
	Anthropic string `toml:"anthropic"`
}

// Polish contains the optional AI polish pass settings.
type Polish struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	Prompt   string `toml:"prompt"`
}

// Output contains where and how results are written.
type Output struct {
	Dir          string `toml:"dir"`
	Format       string `toml:"format"`
	TableHeading string `toml:"table_heading"`
}

// FFmpeg contains the binary used for video inputs.
type FFmpeg struct {
	Path string `toml:"path"`
}

// Config encapsulates all configuration values for srtpack.
type Config struct {
	Translation Translation `toml:"translation"`
	APIKeys     APIKeys     `toml:"api_keys"`
	Polish      Polish      `toml:"polish"`
	Output      Output      `toml:"output"`
	FFmpeg      FFmpeg      `toml:"ffmpeg"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load parses the configuration file at path, or at the default location
// when path is empty. A missing file is not an error: defaults are returned
// and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadDotEnv loads .env from the working directory into the process
// environment without overriding variables that are already set.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := translate.ParseProvider(c.Translation.Provider); err != nil {
		return fmt.Errorf("translation.provider: %w", err)
	}
	if c.Translation.Concurrency < 1 {
		return fmt.Errorf(
			"translation.concurrency must be at least 1, got %d",
			c.Translation.Concurrency,
		)
	}
	if c.Translation.BatchSize < 0 {
		return fmt.Errorf(
			"translation.batch_size must not be negative, got %d",
			c.Translation.BatchSize,
		)
	}
	if c.Polish.Enabled {
		p, err := translate.ParseProvider(c.Polish.Provider)
		if err != nil {
			return fmt.Errorf("polish.provider: %w", err)
		}
		if !p.IsLLM() {
			return fmt.Errorf("polish.provider %q is not an LLM provider", p)
		}
	}
	if _, err := subtitle.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	return nil
}

// APIKey returns the configured key for provider, or the value of the
// provider's environment variable.
func (c *Config) APIKey(provider translate.Provider) string {
	var key string
	switch provider {
	case translate.ProviderGoogle:
		key = c.APIKeys.Google
	case translate.ProviderGemini:
		key = c.APIKeys.Gemini
	case translate.ProviderOpenAI:
		key = c.APIKeys.OpenAI
	case translate.ProviderAnthropic:
		key = c.APIKeys.Anthropic
	}
	if key != "" {
		return key
	}
	if env := provider.APIKeyEnv(); env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

func (c *Config) normalize() error {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	c.Polish.Provider = strings.ToLower(strings.TrimSpace(c.Polish.Provider))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))

	if c.Output.Dir != "" {
		dir, err := expandPath(c.Output.Dir)
		if err != nil {
			return err
		}
		c.Output.Dir = dir
	}
	if c.FFmpeg.Path != "" {
		p, err := expandPath(c.FFmpeg.Path)
		if err != nil {
			return err
		}
		c.FFmpeg.Path = p
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("srtpack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
