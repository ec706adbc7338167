package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/srtpack/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Translate subtitles and build the dialogue list",
	Long: `Translate a subtitle file into one or more languages. For every output
language a subtitle file <name>.<lang>.srt is written, plus a single DOCX
dialogue list <name>.docx with the timecode, the source text and every
translation in columns.

The input can be SRT, WebVTT, ASS/SSA, TTML or STL, or a video file whose
subtitle stream is extracted with ffmpeg first. Entries that cannot be
translated are left blank and reported as warnings.

Examples:
  srtpack convert movie.srt -i en -l fr -l it
  srtpack convert movie.srt -o fr,it,de --provider gemini
  srtpack convert movie.mkv --stream 1 -l es --format vtt
  srtpack convert movie.srt -l ja --provider openai --polish --polish-provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addRunFlags(convertCmd, "google")
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}
	if len(opts.languages) == 0 {
		return fmt.Errorf("at least one output language is required: use -l fr or -o fr,it")
	}
	return execute(cmd.Context(), opts, args[0], false)
}

func execute(ctx context.Context, opts runOptions, input string, tableOnly bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	convOpts, err := opts.converterOptions()
	if err != nil {
		return err
	}

	bar := newProgress(opts.steps())
	if bar != nil {
		convOpts = append(convOpts, convert.WithProgress(func(lang string, stage convert.Stage) {
			bar.Describe(fmt.Sprintf("%s %s", stage, lang))
			_ = bar.Add(1)
		}))
	}
	convOpts = append(convOpts, convert.WithStatusHandler(func(s convert.Status) {
		logger.Debugw("Status changed", "status", s.String())
	}))

	logger.Infow("Starting conversion",
		"input", input,
		"input_language", opts.inputLanguage,
		"output_languages", opts.languages,
		"provider", string(opts.provider),
		"table_only", tableOnly,
	)

	res, err := convert.New(convOpts...).Convert(ctx, opts.request(input, tableOnly))
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	fmt.Fprintln(os.Stdout, renderSummary(res))
	if len(res.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "%d entries could not be processed:\n", len(res.Warnings))
		fmt.Fprintln(os.Stderr, renderWarnings(res.Warnings))
	}
	return nil
}
