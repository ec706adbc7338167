package subtitle

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseFile reads and parses an SRT file.
func ParseFile(path string) (*Subtitle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file)
}

// Parse reads SRT content. Any malformed block rejects the whole input with
// a *ParseError; there is no partial recovery.
func Parse(r io.Reader) (*Subtitle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading SRT content: %w", err)
	}

	lines := splitLines(string(data))

	var entries []Entry
	block := 0
	i := 0

	for i < len(lines) {
		if isBlank(lines[i]) {
			i++
			continue
		}

		block++
		seqLine := strings.TrimSpace(lines[i])
		index, err := strconv.Atoi(seqLine)
		if err != nil {
			return nil, &ParseError{
				Line:   i + 1,
				Block:  block,
				Err:    ErrBadSequence,
				Detail: fmt.Sprintf("%q", seqLine),
			}
		}
		if n := len(entries); n > 0 && index <= entries[n-1].Index {
			return nil, &ParseError{
				Line:  i + 1,
				Block: block,
				Err:   ErrSequenceOrder,
				Detail: fmt.Sprintf(
					"%d follows %d",
					index,
					entries[n-1].Index,
				),
			}
		}
		i++

		if i >= len(lines) || isBlank(lines[i]) ||
			!strings.Contains(lines[i], "-->") {
			return nil, &ParseError{
				Line:  i + 1,
				Block: block,
				Err:   ErrMissingTimecode,
			}
		}

		start, end, err := parseTimecodeLine(lines[i])
		if err != nil {
			return nil, &ParseError{
				Line:   i + 1,
				Block:  block,
				Err:    ErrBadTimecode,
				Detail: err.Error(),
			}
		}
		if end < start {
			return nil, &ParseError{
				Line:  i + 1,
				Block: block,
				Err:   ErrTimeOrder,
				Detail: fmt.Sprintf(
					"%s --> %s",
					FormatSRTTime(start),
					FormatSRTTime(end),
				),
			}
		}
		i++

		var textLines []string
		for i < len(lines) && !isBlank(lines[i]) {
			textLines = append(textLines, strings.TrimRight(lines[i], " \t"))
			i++
		}

		entries = append(entries, Entry{
			Index:     index,
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(textLines, "\n"),
		})
	}

	if len(entries) == 0 {
		return nil, &ParseError{Err: ErrEmpty}
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

// splits on \n, \r\n and bare \r after dropping a UTF-8 BOM
func splitLines(content string) []string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
