package cli

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/schollz/progressbar/v3"

	"github.com/mgpai22/srtpack/internal/convert"
	"github.com/mgpai22/srtpack/internal/language"
	"github.com/mgpai22/srtpack/internal/logging"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderSummary(res *convert.Result) string {
	source := res.SourceLanguage
	if source == "" {
		source = "unknown"
	}

	rows := [][]string{
		{"Input", res.Input},
		{"Input language", source},
		{"Entries", strconv.Itoa(res.Entries)},
	}
	for i, path := range res.SubtitleFiles {
		lang := res.TargetLanguages[i]
		rows = append(rows, []string{language.DisplayName(lang) + " (" + lang + ")", path})
	}
	rows = append(rows,
		[]string{"Dialogue list", res.TableFile},
		[]string{"Warnings", strconv.Itoa(len(res.Warnings))},
	)
	return renderTable([]string{"Output", "Value"}, rows, nil)
}

func renderWarnings(warnings []convert.Warning) string {
	rows := make([][]string, 0, len(warnings))
	for _, w := range warnings {
		rows = append(rows, []string{
			strconv.Itoa(w.Entry),
			w.Language,
			string(w.Stage),
			w.Err.Error(),
		})
	}
	return renderTable(
		[]string{"Entry", "Language", "Stage", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

// progress bar on stderr; nil when stderr is not a terminal or logs are verbose
func newProgress(steps int) *progressbar.ProgressBar {
	if steps == 0 || verbose || !logging.IsTerminal() {
		return nil
	}
	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("translating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
