// Package document builds the dialogue list: a table with one row per
// subtitle entry and columns for timecode, source text and every
// translation, written as a DOCX file.
package document

import (
	"github.com/mgpai22/srtpack/internal/language"
	"github.com/mgpai22/srtpack/internal/subtitle"
)

const (
	TimecodeHeader = "Timecode"
	DefaultHeading = "Dialogue List"
)

// Table is the dialogue list before it is laid out in a document. Every row
// has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Columns is the number of columns of the table.
func (t *Table) Columns() int {
	return len(t.Header)
}

// BuildTable lays out sub as Timecode | source | targets... . translations is
// aligned with targets and each slice with sub.Entries; missing cells are left
// blank.
func BuildTable(
	sub *subtitle.Subtitle,
	source string,
	targets []string,
	translations [][]string,
) *Table {
	header := make([]string, 0, 2+len(targets))
	header = append(header, TimecodeHeader, language.DisplayName(source))
	for _, target := range targets {
		header = append(header, language.DisplayName(target))
	}

	rows := make([][]string, len(sub.Entries))
	for i, entry := range sub.Entries {
		row := make([]string, len(header))
		row[0] = subtitle.FormatSpan(entry.StartTime, entry.EndTime)
		row[1] = entry.Text
		for j := range targets {
			if j < len(translations) && i < len(translations[j]) {
				row[2+j] = translations[j][i]
			}
		}
		rows[i] = row
	}

	return &Table{
		Header: header,
		Rows:   rows,
	}
}
