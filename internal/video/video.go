package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/srtpack/internal/ffmpeg"
)

// subtitle stream inside a video container
type Stream struct {
	Index    int // position among the subtitle streams, as used by -map 0:s:N
	Codec    string
	Language string
	Title    string
}

// defines interface for video processing operations
type Processor interface {
	// extracts one subtitle stream to a subtitle file
	ExtractSubtitles(
		ctx context.Context,
		videoPath, outputPath string,
		opts ExtractOptions,
	) error

	// lists the subtitle streams of a video file
	SubtitleStreams(ctx context.Context, videoPath string) ([]Stream, error)
}

// holds options for subtitle extraction
type ExtractOptions struct {
	Stream int    // subtitle stream number (0 = first)
	Format string // output muxer: srt or webvtt
}

func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		Stream: 0,
		Format: "srt",
	}
}

// default implementation using ffmpeg
type DefaultProcessor struct {
	ffmpegPath string
}

// NewProcessor uses ffmpegPath, or the located ffmpeg binary when empty.
func NewProcessor(ffmpegPath string) *DefaultProcessor {
	return &DefaultProcessor{
		ffmpegPath: ffmpegPath,
	}
}

func (p *DefaultProcessor) binary() (string, error) {
	if p.ffmpegPath != "" {
		return ffmpegbin.Locate(p.ffmpegPath)
	}
	return ffmpegbin.Path()
}

// extracts a subtitle stream from video file
func (p *DefaultProcessor) ExtractSubtitles(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	if opts.Stream < 0 {
		return fmt.Errorf("invalid subtitle stream %d", opts.Stream)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var format string
	switch strings.ToLower(opts.Format) {
	case "", "srt":
		format = "srt"
	case "vtt", "webvtt":
		format = "webvtt"
	default:
		return fmt.Errorf("unsupported subtitle format: %s", opts.Format)
	}

	ffmpegPath, err := p.binary()
	if err != nil {
		return err
	}

	kwargs := ffmpeg.KwArgs{
		"map": fmt.Sprintf("0:s:%d", opts.Stream),
		"f":   format,
	}

	args := ffmpeg.Input(videoPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs()

	if _, err := run(ctx, ffmpegPath, args...); err != nil {
		return fmt.Errorf(
			"ffmpeg subtitle extraction failed (stream %d): %w",
			opts.Stream,
			err,
		)
	}

	return nil
}

// runs name until it exits or ctx is done; the error carries the last
// line ffmpeg wrote to stderr
func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Streams []struct {
		CodecType string            `json:"codec_type"`
		CodecName string            `json:"codec_name"`
		Tags      map[string]string `json:"tags"`
	} `json:"streams"`
}

// lists subtitle streams using the ffprobe next to ffmpeg
func (p *DefaultProcessor) SubtitleStreams(
	ctx context.Context,
	videoPath string,
) ([]Stream, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ffmpegPath, err := p.binary()
	if err != nil {
		return nil, err
	}
	ffprobePath, err := ffmpegbin.FFprobePath(ffmpegPath)
	if err != nil {
		return nil, err
	}

	out, err := run(ctx, ffprobePath,
		"-v", "error",
		"-show_streams",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseStreams(out)
}

func parseStreams(data []byte) ([]Stream, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var streams []Stream
	for _, s := range parsed.Streams {
		if s.CodecType != "subtitle" {
			continue
		}
		streams = append(streams, Stream{
			Index:    len(streams),
			Codec:    s.CodecName,
			Language: s.Tags["language"],
			Title:    s.Tags["title"],
		})
	}
	return streams, nil
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	videoExts := map[string]bool{
		".mp4":  true,
		".mkv":  true,
		".avi":  true,
		".mov":  true,
		".wmv":  true,
		".flv":  true,
		".webm": true,
		".m4v":  true,
		".mpeg": true,
		".mpg":  true,
		".ts":   true,
		".m2ts": true,
	}
	return videoExts[ext]
}
