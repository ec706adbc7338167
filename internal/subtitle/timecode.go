package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// HH:MM:SS,mmm --> HH:MM:SS,mmm; "." is accepted for the fraction and
// anything after the end time (SRT position hints) is ignored
var timecodeLineRegex = regexp.MustCompile(
	`^\s*(\d+):(\d{1,2}):(\d{1,2})(?:[,.](\d{1,3}))?\s*-->\s*(\d+):(\d{1,2}):(\d{1,2})(?:[,.](\d{1,3}))?(?:\s.*)?$`,
)

// from this hour on, a timestamp no longer fits in a time.Duration
const maxHours = int(math.MaxInt64 / int64(time.Hour))

func parseTimecodeLine(line string) (time.Duration, time.Duration, error) {
	matches := timecodeLineRegex.FindStringSubmatch(line)
	if matches == nil {
		return 0, 0, fmt.Errorf("%q", strings.TrimSpace(line))
	}

	start, err := parseTimestamp(matches[1], matches[2], matches[3], matches[4])
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	end, err := parseTimestamp(matches[5], matches[6], matches[7], matches[8])
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

func parseTimestamp(
	hours, minutes, seconds, fraction string,
) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	if h >= maxHours {
		return 0, fmt.Errorf("hours %d out of range", h)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("minutes and seconds must be below 60")
	}

	ms := 0
	if fraction != "" {
		// "5" is half a second, not five milliseconds
		for len(fraction) < 3 {
			fraction += "0"
		}
		ms, err = strconv.Atoi(fraction)
		if err != nil {
			return 0, err
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatClock renders d as H:MM:SS. Sub-second precision is truncated.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// FormatSpan renders the table timecode "H:MM:SS --> H:MM:SS".
func FormatSpan(start, end time.Duration) string {
	return FormatClock(start) + " --> " + FormatClock(end)
}

// FormatSRTTime renders d as HH:MM:SS,mmm.
func FormatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMillis := int64(d / time.Millisecond)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis / 60_000) % 60
	seconds := (totalMillis / 1000) % 60
	millis := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
