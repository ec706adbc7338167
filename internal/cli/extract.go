package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/srtpack/internal/language"
	"github.com/mgpai22/srtpack/internal/subtitle"
	"github.com/mgpai22/srtpack/internal/video"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract a subtitle stream from a video file",
	Long: `Extract an embedded subtitle stream from a video file and save it as a
subtitle file, ready for srtpack convert or table.

Examples:
  srtpack extract movie.mkv
  srtpack extract movie.mkv --list
  srtpack extract movie.mkv --stream 1 -o movie.en.srt
  srtpack extract movie.mkv -o movie.vtt
  srtpack extract movie.mkv --format vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		StringP("output", "o", "", "Output subtitle path (default <name>.srt next to the video)")
	extractCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (srt, vtt); defaults to the -o extension")
	extractCmd.Flags().
		Int("stream", 0, "Subtitle stream number (0 = first)")
	extractCmd.Flags().
		Bool("list", false, "List the subtitle streams instead of extracting")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]

	formatName, _ := cmd.Flags().GetString("format")
	stream, _ := cmd.Flags().GetInt("stream")
	outputPath, _ := cmd.Flags().GetString("output")
	list, _ := cmd.Flags().GetBool("list")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	processor := video.NewProcessor(cfg.FFmpeg.Path)

	if list {
		streams, err := processor.SubtitleStreams(ctx, videoPath)
		if err != nil {
			return fmt.Errorf("failed to list subtitle streams: %w", err)
		}
		if len(streams) == 0 {
			fmt.Println("No subtitle streams found")
			return nil
		}
		fmt.Println(renderStreams(streams))
		return nil
	}

	format, err := extractFormat(formatName, cmd.Flags().Changed("format"), outputPath)
	if err != nil {
		return err
	}
	if stream < 0 {
		return fmt.Errorf("invalid stream %d: must be 0 or greater", stream)
	}

	if outputPath == "" {
		stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
		outputPath = stem + subtitle.GetExtensionForFormat(format)
	}

	logger.Infow("Extracting subtitles",
		"video", videoPath,
		"output", outputPath,
		"format", string(format),
		"stream", stream,
	)

	opts := video.DefaultExtractOptions()
	opts.Stream = stream
	if format == subtitle.FormatVTT {
		opts.Format = "webvtt"
	}

	if err := processor.ExtractSubtitles(ctx, videoPath, outputPath, opts); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles extracted successfully: %s\n", absOutput)

	return nil
}

// an explicit --format wins; otherwise the -o extension decides
func extractFormat(name string, explicit bool, outputPath string) (subtitle.Format, error) {
	if !explicit && outputPath != "" {
		return subtitle.GetFormatFromExtension(outputPath), nil
	}
	return subtitle.ParseFormat(name)
}

func renderStreams(streams []video.Stream) string {
	rows := make([][]string, 0, len(streams))
	for _, s := range streams {
		lang := s.Language
		if lang != "" {
			lang = language.DisplayName(lang) + " (" + lang + ")"
		}
		rows = append(rows, []string{strconv.Itoa(s.Index), s.Codec, lang, s.Title})
	}
	return renderTable(
		[]string{"Stream", "Codec", "Language", "Title"},
		rows,
		[]columnAlignment{alignRight},
	)
}
