package config

import "github.com/mgpai22/srtpack/internal/translate"

const (
	defaultConfigPath     = "~/.config/srtpack/config.toml"
	defaultProvider       = "google"
	defaultConcurrency    = 1
	defaultPolishProvider = "openai"
	defaultFormat         = "srt"
	defaultTableHeading   = "Dialogue List"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Translation: Translation{
			Provider:    defaultProvider,
			Concurrency: defaultConcurrency,
			BatchSize:   translate.DefaultBatchSize,
		},
		Polish: Polish{
			Provider: defaultPolishProvider,
		},
		Output: Output{
			Format:       defaultFormat,
			TableHeading: defaultTableHeading,
		},
	}
}
