package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// PathEnv overrides the ffmpeg binary lookup.
const PathEnv = "SRTPACK_FFMPEG_PATH"

var (
	ErrNotFound      = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
)

var (
	locateOnce sync.Once
	locatePath string
	locateErr  error
)

// Path returns the ffmpeg binary to run. The lookup happens once per process.
func Path() (string, error) {
	locateOnce.Do(func() {
		locatePath, locateErr = Locate(os.Getenv(PathEnv))
	})
	return locatePath, locateErr
}

// Locate resolves override, or ffmpeg on PATH when override is empty.
func Locate(override string) (string, error) {
	if override != "" {
		if !fileExists(override) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNotFound, override)
		}
		return override, nil
	}

	found, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf(
			"%w on PATH: install ffmpeg or set %s",
			ErrNotFound,
			PathEnv,
		)
	}
	return found, nil
}

// FFprobePath returns the ffprobe installed next to ffmpegPath, falling back
// to ffprobe on PATH.
func FFprobePath(ffmpegPath string) (string, error) {
	if ffmpegPath != "" {
		// keeps ".exe" on Windows
		name := "ffprobe" + filepath.Ext(ffmpegPath)
		sibling := filepath.Join(filepath.Dir(ffmpegPath), name)
		if fileExists(sibling) {
			return sibling, nil
		}
	}

	found, err := exec.LookPath("ffprobe")
	if err != nil {
		return "", fmt.Errorf("%w next to ffmpeg or on PATH", ErrFFprobeNotFound)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
