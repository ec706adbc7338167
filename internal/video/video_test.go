package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestParseStreams(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"index": 0, "codec_type": "video", "codec_name": "h264"},
			{"index": 1, "codec_type": "audio", "codec_name": "aac", "tags": {"language": "eng"}},
			{"index": 2, "codec_type": "subtitle", "codec_name": "subrip", "tags": {"language": "eng", "title": "English"}},
			{"index": 3, "codec_type": "subtitle", "codec_name": "ass", "tags": {"language": "fre"}}
		]
	}`)

	streams, err := parseStreams(data)
	if err != nil {
		t.Fatalf("parseStreams error: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("got %d streams, want 2", len(streams))
	}
	if streams[0].Index != 0 || streams[0].Codec != "subrip" ||
		streams[0].Language != "eng" || streams[0].Title != "English" {
		t.Errorf("streams[0] = %+v", streams[0])
	}
	if streams[1].Index != 1 || streams[1].Codec != "ass" || streams[1].Language != "fre" {
		t.Errorf("streams[1] = %+v", streams[1])
	}
}

func TestParseStreamsInvalidJSON(t *testing.T) {
	if _, err := parseStreams([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"movie.mkv", true},
		{"movie.MP4", true},
		{"clip.webm", true},
		{"subs.srt", false},
		{"audio.mp3", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsVideoFile(tt.path); got != tt.want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExtractSubtitlesMissingVideo(t *testing.T) {
	p := NewProcessor("")
	err := p.ExtractSubtitles(
		context.Background(),
		filepath.Join(t.TempDir(), "missing.mkv"),
		filepath.Join(t.TempDir(), "out.srt"),
		DefaultExtractOptions(),
	)
	if err == nil {
		t.Error("expected error for missing video")
	}
}

// writes shell scripts standing in for ffmpeg and ffprobe into one dir
// and returns the ffmpeg path
func fakeTools(t *testing.T, ffmpegScript, ffprobeScript string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	dir := t.TempDir()
	tools := map[string]string{"ffmpeg": ffmpegScript, "ffprobe": ffprobeScript}
	for name, body := range tools {
		if body == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "ffmpeg")
}

func videoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubtitleStreamsUsesFFprobeNextToFFmpeg(t *testing.T) {
	ffmpegPath := fakeTools(t,
		"exit 1",
		`echo '{"streams": [{"codec_type": "subtitle", "codec_name": "subrip", "tags": {"language": "ita"}}]}'`,
	)

	streams, err := NewProcessor(ffmpegPath).SubtitleStreams(context.Background(), videoFile(t))
	if err != nil {
		t.Fatalf("SubtitleStreams error: %v", err)
	}
	if len(streams) != 1 || streams[0].Codec != "subrip" || streams[0].Language != "ita" {
		t.Errorf("streams = %+v", streams)
	}
}

func TestExtractSubtitlesReportsFFmpegError(t *testing.T) {
	ffmpegPath := fakeTools(t,
		`echo "Input #0, matroska" >&2; echo "Stream map '0:s:3' matches no streams." >&2; exit 1`,
		"",
	)
	opts := DefaultExtractOptions()
	opts.Stream = 3

	err := NewProcessor(ffmpegPath).ExtractSubtitles(
		context.Background(),
		videoFile(t),
		filepath.Join(t.TempDir(), "out.srt"),
		opts,
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "matches no streams") {
		t.Errorf("error %q does not carry the ffmpeg message", err)
	}
	if !strings.Contains(err.Error(), "stream 3") {
		t.Errorf("error %q does not name the stream", err)
	}
}

func TestExtractSubtitlesStopsOnCancel(t *testing.T) {
	ffmpegPath := fakeTools(t, "exec sleep 30", "")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewProcessor(ffmpegPath).ExtractSubtitles(
		ctx,
		videoFile(t),
		filepath.Join(t.TempDir(), "out.srt"),
		DefaultExtractOptions(),
	)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("ExtractSubtitles returned after %v, want it to stop with the context", elapsed)
	}
}
