package subtitle

import (
	"time"
)

// represents single subtitle entry
type Entry struct {
	Index     int // sequence number as read from the file
	StartTime time.Duration
	EndTime   time.Duration
	Text      string // lines joined with "\n"
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// Texts returns the text of every entry in order.
func (s *Subtitle) Texts() []string {
	texts := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		texts[i] = e.Text
	}
	return texts
}

// WithTexts returns a copy of the track whose entry texts are replaced
// positionally by texts. Sequence numbers and timecodes are kept. Entries
// without a matching text get an empty payload.
func (s *Subtitle) WithTexts(texts []string, language string) *Subtitle {
	entries := make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		e.Text = ""
		if i < len(texts) {
			e.Text = texts[i]
		}
		entries[i] = e
	}
	return &Subtitle{
		Entries:  entries,
		Language: language,
		Format:   s.Format,
	}
}
