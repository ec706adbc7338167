package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
)

// A4 landscape, in twentieths of a point
const (
	pageWidth  = 16838
	pageHeight = 11906
)

// built-in style of the default template: single black borders on every
// side of every cell, including the inside edges
const gridStyle = "TableGrid"

// WriteDOCX writes t as a Word document at path, replacing any existing
// file. Nothing is left at path if building or saving fails.
func WriteDOCX(t *Table, path, heading string) error {
	doc, err := Build(t, heading)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".srtpack-*.docx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := doc.SaveTo(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move document into place: %w", err)
	}
	return nil
}

// Build lays t out as a landscape document: an optional heading, then one
// bordered table whose header row repeats on every page.
func Build(t *Table, heading string) (*docx.RootDoc, error) {
	if t.Columns() == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	landscape(doc)

	if heading != "" {
		if _, err := doc.AddHeading(heading, 1); err != nil {
			return nil, fmt.Errorf("failed to add heading: %w", err)
		}
	}

	tbl := doc.AddTable()
	tbl.Style(gridStyle)

	header := tbl.AddRow()
	repeatHeader(header)
	addCells(header, t.Header, t.Columns(), true)
	for _, row := range t.Rows {
		addCells(tbl.AddRow(), row, t.Columns(), false)
	}

	return doc, nil
}

func landscape(doc *docx.RootDoc) {
	body := doc.Document.Body
	if body.SectPr == nil {
		body.SectPr = &ctypes.SectionProp{}
	}
	width, height := uint64(pageWidth), uint64(pageHeight)
	body.SectPr.PageSize = &ctypes.PageSize{
		Width:  &width,
		Height: &height,
		Orient: stypes.PageOrientLandscape,
	}
}

func repeatHeader(row *docx.Row) {
	ct := row.GetCT()
	if ct.Property == nil {
		ct.Property = &ctypes.RowProperty{}
	}
	ct.Property.Choice = append(ct.Property.Choice, ctypes.TRPrBaseChoice{
		TblHeader: ctypes.OnOffFromBool(true),
	})
}

// one paragraph per text line; an empty cell still gets its paragraph
func addCells(row *docx.Row, cells []string, columns int, bold bool) {
	for i := 0; i < columns; i++ {
		var text string
		if i < len(cells) {
			text = cells[i]
		}
		cell := row.AddCell()
		for _, line := range strings.Split(text, "\n") {
			p := cell.AddParagraph("")
			if line == "" {
				continue
			}
			p.AddText(line).Bold(bold)
		}
	}
}
