package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/srtpack/internal/config"
	"github.com/mgpai22/srtpack/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     = logging.Nop() // replaced once flags are parsed
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "srtpack",
	Short: "Turn a subtitle file into translated subtitles and a dialogue list",
	Long: `srtpack reads a subtitle file and produces a language package:
one translated subtitle file per output language and a DOCX dialogue
list with the timecode, the source text and every translation side by side.

Translation uses Google Cloud Translation by default; Gemini, OpenAI,
Anthropic and local ollama models are available with --provider.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		config.LoadDotEnv()

		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debugw("Loaded configuration", "path", path, "exists", exists)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ~/.config/srtpack/config.toml)")
}
