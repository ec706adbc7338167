package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
)

// Open parses a subtitle file. SRT goes through the strict native parser;
// the other text formats astisub understands are normalised into entries
// numbered from 1.
func Open(path string) (*Subtitle, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return ParseFile(path)
	case ".vtt", ".ass", ".ssa", ".ttml", ".stl":
		return openWithAstisub(path, strings.TrimPrefix(ext, "."))
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}
}

// IsSubtitleFile reports whether Open accepts the file extension.
func IsSubtitleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt", ".ass", ".ssa", ".ttml", ".stl":
		return true
	default:
		return false
	}
}

func openWithAstisub(path, format string) (*Subtitle, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", format, err)
	}
	return fromAstisub(subs, format)
}

func fromAstisub(subs *astisub.Subtitles, format string) (*Subtitle, error) {
	if subs == nil || len(subs.Items) == 0 {
		return nil, &ParseError{Err: ErrEmpty}
	}

	entries := make([]Entry, 0, len(subs.Items))
	for i, item := range subs.Items {
		if item.EndAt < item.StartAt {
			return nil, &ParseError{
				Block: i + 1,
				Err:   ErrTimeOrder,
				Detail: fmt.Sprintf(
					"item %d: %s --> %s",
					i+1,
					FormatSRTTime(item.StartAt),
					FormatSRTTime(item.EndAt),
				),
			}
		}

		lines := make([]string, len(item.Lines))
		for j, line := range item.Lines {
			lines[j] = line.String()
		}
		entries = append(entries, Entry{
			Index:     i + 1,
			StartTime: item.StartAt,
			EndTime:   item.EndAt,
			Text:      strings.Join(lines, "\n"),
		})
	}

	return &Subtitle{
		Entries: entries,
		Format:  format,
	}, nil
}

func toAstisub(sub *Subtitle) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	for _, entry := range sub.Entries {
		item := &astisub.Item{
			Index:   entry.Index,
			StartAt: entry.StartTime,
			EndAt:   entry.EndTime,
		}
		for _, line := range strings.Split(entry.Text, "\n") {
			item.Lines = append(item.Lines, astisub.Line{
				Items: []astisub.LineItem{{Text: line}},
			})
		}
		subs.Items = append(subs.Items, item)
	}
	return subs
}
