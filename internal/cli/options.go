package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/srtpack/internal/convert"
	"github.com/mgpai22/srtpack/internal/subtitle"
	"github.com/mgpai22/srtpack/internal/translate"
	"github.com/mgpai22/srtpack/internal/video"
)

// flags shared by convert and table, resolved against the config file
type runOptions struct {
	inputLanguage string
	languages     []string

	provider      translate.Provider
	apiKey        string
	model         string
	modelOverride bool
	endpoint      string
	prompt        string
	concurrency   int
	batchSize     int

	polish         bool
	polishProvider translate.Provider
	polishModel    string
	polishPrompt   string

	outputDir   string
	format      subtitle.Format
	tableOutput string
	heading     string
	stream      int
}

func addRunFlags(cmd *cobra.Command, defaultProvider string) {
	f := cmd.Flags()
	f.StringP("input-language", "i", "auto", "Language of the input subtitles (auto detects it)")
	f.StringSliceP("language", "l", nil, "Output language code; repeat or comma separate (e.g. -l fr -l it)")
	f.StringSliceP("output-language", "o", nil, "Alias of --language")

	f.String("provider", defaultProvider, "Translation provider (google, gemini, openai, anthropic, ollama, none)")
	f.StringP("api-key", "k", "", "API key (or set the provider's environment variable)")
	f.String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	f.Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	f.String("endpoint", "", "ollama server URL (default OLLAMA_HOST)")
	f.String("prompt", "", "Additional instructions for LLM providers")
	f.Int("concurrency", 1, "Output languages translated in parallel, and LLM batch workers")
	f.Int("batch-size", translate.DefaultBatchSize, "Number of subtitle entries per API request")

	f.Bool("polish", false, "Polish every translation with an LLM after translating")
	f.String("polish-provider", "openai", "LLM provider for --polish (gemini, openai, anthropic, ollama)")
	f.String("polish-model", "", "Model for --polish")
	f.String("polish-prompt", "", "Additional instructions for --polish")

	f.StringP("output-dir", "d", "", "Directory for the output files (default: next to the input)")
	f.StringP("format", "f", "srt", "Subtitle output format (srt, vtt)")
	f.String("table-output", "", "Path of the DOCX dialogue list (default <output-dir>/<name>.docx)")
	f.String("heading", "Dialogue List", "Heading above the dialogue list table")
	f.Int("stream", 0, "Subtitle stream to use when the input is a video")
}

// flag value when set on the command line, otherwise the config value when
// not empty, otherwise the flag default
func stringSetting(cmd *cobra.Command, name, configured string) string {
	value, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) || configured == "" {
		return value
	}
	return configured
}

func intSetting(cmd *cobra.Command, name string, configured int) int {
	value, _ := cmd.Flags().GetInt(name)
	if cmd.Flags().Changed(name) || configured == 0 {
		return value
	}
	return configured
}

// splits, trims and de-duplicates language codes, keeping their order
func mergeLanguages(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, item := range list {
			for _, code := range strings.Split(item, ",") {
				code = strings.ToLower(strings.TrimSpace(code))
				if code == "" || seen[code] {
					continue
				}
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	return out
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var opts runOptions
	f := cmd.Flags()

	opts.inputLanguage, _ = f.GetString("input-language")
	langs, _ := f.GetStringSlice("language")
	aliases, _ := f.GetStringSlice("output-language")
	opts.languages = mergeLanguages(langs, aliases)

	// table translates only when asked to, whatever the config says
	configuredProvider := cfg.Translation.Provider
	if cmd.Name() == "table" {
		configuredProvider = ""
	}
	provider, err := translate.ParseProvider(stringSetting(cmd, "provider", configuredProvider))
	if err != nil {
		return opts, err
	}
	opts.provider = provider

	opts.apiKey, _ = f.GetString("api-key")
	opts.model = stringSetting(cmd, "model", cfg.Translation.Model)
	opts.modelOverride, _ = f.GetBool("model-override")
	opts.endpoint = stringSetting(cmd, "endpoint", cfg.Translation.Endpoint)
	opts.prompt = stringSetting(cmd, "prompt", cfg.Translation.Prompt)
	opts.concurrency = intSetting(cmd, "concurrency", cfg.Translation.Concurrency)
	opts.batchSize = intSetting(cmd, "batch-size", cfg.Translation.BatchSize)

	if opts.concurrency <= 0 {
		return opts, fmt.Errorf("concurrency must be positive, got %d", opts.concurrency)
	}
	if opts.batchSize <= 0 {
		return opts, fmt.Errorf("batch-size must be positive, got %d", opts.batchSize)
	}
	if err := validateModel(opts.provider, opts.model, opts.modelOverride); err != nil {
		return opts, err
	}

	opts.polish, _ = f.GetBool("polish")
	if !f.Changed("polish") {
		opts.polish = cfg.Polish.Enabled
	}
	if opts.polish {
		p, err := translate.ParseProvider(stringSetting(cmd, "polish-provider", cfg.Polish.Provider))
		if err != nil {
			return opts, err
		}
		if !p.IsLLM() {
			return opts, fmt.Errorf("--polish needs an LLM provider, got %q", p)
		}
		opts.polishProvider = p
		opts.polishModel = stringSetting(cmd, "polish-model", cfg.Polish.Model)
		opts.polishPrompt = stringSetting(cmd, "polish-prompt", cfg.Polish.Prompt)
		if err := validateModel(p, opts.polishModel, opts.modelOverride); err != nil {
			return opts, err
		}
		if opts.provider == translate.ProviderNone {
			return opts, fmt.Errorf("--polish needs translations: choose a translation provider")
		}
	}

	opts.outputDir = stringSetting(cmd, "output-dir", cfg.Output.Dir)
	format, err := subtitle.ParseFormat(stringSetting(cmd, "format", cfg.Output.Format))
	if err != nil {
		return opts, err
	}
	opts.format = format
	opts.tableOutput, _ = f.GetString("table-output")
	opts.heading = stringSetting(cmd, "heading", cfg.Output.TableHeading)
	opts.stream, _ = f.GetInt("stream")

	return opts, nil
}

func (o runOptions) resolveKey(provider translate.Provider, flagKey string) (string, error) {
	key := flagKey
	if key == "" {
		key = cfg.APIKey(provider)
	}
	if key == "" && provider.RequiresAPIKey() {
		return "", fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			provider.APIKeyEnv(),
		)
	}
	return key, nil
}

func (o runOptions) converterOptions() ([]convert.Option, error) {
	opts := []convert.Option{
		convert.WithLogger(logger.SugaredLogger),
		convert.WithVideoProcessor(video.NewProcessor(cfg.FFmpeg.Path)),
	}

	if o.provider != translate.ProviderNone {
		apiKey, err := o.resolveKey(o.provider, o.apiKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, convert.WithTranslator(
			func(ctx context.Context, source, target string) (translate.Translator, error) {
				return translate.Factory(ctx, o.provider, apiKey, translate.Options{
					InputLanguage:  source,
					TargetLanguage: target,
					Model:          o.model,
					Prompt:         o.prompt,
					BatchSize:      o.batchSize,
					Endpoint:       o.endpoint,
				})
			},
		))
	}

	if o.polish {
		// the --api-key flag belongs to the translation provider
		flagKey := ""
		if o.polishProvider == o.provider {
			flagKey = o.apiKey
		}
		apiKey, err := o.resolveKey(o.polishProvider, flagKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, convert.WithPolisher(
			func(ctx context.Context, source, target string) (translate.Translator, error) {
				return translate.NewPolisher(ctx, o.polishProvider, apiKey, translate.Options{
					TargetLanguage: target,
					Model:          o.polishModel,
					Prompt:         o.polishPrompt,
					BatchSize:      o.batchSize,
					Endpoint:       o.endpoint,
				})
			},
		))
	}

	return opts, nil
}

func (o runOptions) request(input string, tableOnly bool) convert.Request {
	return convert.Request{
		Input:           input,
		SourceLanguage:  o.inputLanguage,
		TargetLanguages: o.languages,
		OutputDir:       o.outputDir,
		Format:          o.format,
		TableOutput:     o.tableOutput,
		TableHeading:    o.heading,
		TableOnly:       tableOnly,
		Stream:          o.stream,
		Concurrency:     o.concurrency,
	}
}

func (o runOptions) steps() int {
	if o.provider == translate.ProviderNone {
		return 0
	}
	steps := len(o.languages)
	if o.polish {
		steps *= 2
	}
	return steps
}
