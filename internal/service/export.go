package service

import (
	"bytes"
	"fmt"
	"html"
	"slices"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
)

const sizeSheet = "Størrelser"

// SizeChart builds a spreadsheet with one row per size-dependent value
// (step placeholders, yarn amounts, measurements) and one column per size.
// Sizes a value does not cover are left blank.
func SizeChart(doc *domain.PatternDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sizeSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	sizes := doc.EffectiveSizes()
	sw := &sheetWriter{f: f, sheet: sizeSheet}
	write := sw.set

	write(1, 1, "Verdi")
	for i, s := range sizes {
		write(i+2, 1, s)
	}

	row := 2
	addRow := func(label string, b domain.SizeBinding) {
		write(1, row, label)
		for i, s := range sizes {
			if v, ok := b.Lookup(s); ok {
				write(i+2, row, v)
			}
		}
		row++
	}

	for i, st := range doc.Steps {
		title := st.Title
		if title == "" {
			title = fmt.Sprintf("Steg %d", i+1)
		}
		for _, b := range StepBindings(st) {
			addRow(title+" "+b.Placeholder.Token(), b.Values)
		}
	}
	if len(doc.YarnAmounts) > 0 {
		addRow("Garnmengde (g)", doc.YarnAmounts)
	}
	keys := make([]string, 0, len(doc.Measurements))
	for k := range doc.Measurements {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		addRow(k+" (cm)", doc.Measurements[k])
	}

	if sw.err != nil {
		return nil, sw.err
	}
	if err := f.SetColWidth(sizeSheet, "A", "A", 36); err != nil {
		return nil, fmt.Errorf("xlsx column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter writes cells to one sheet and keeps the first error. Later
// writes are skipped once a write has failed.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = fmt.Errorf("xlsx cell: %w", err)
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
		w.err = fmt.Errorf("xlsx cell %s: %w", cell, err)
	}
}

// PrintHTML renders a printable page of the pattern resolved for size.
// Raw HTML in pattern text is dropped by the Markdown renderer.
func PrintHTML(doc *domain.PatternDocument, size string) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(RenderPatternMarkdown(doc, size)), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, `<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="utf-8">
<title>%s (%s)</title>
<style>body{font-family:Georgia,serif;max-width:42rem;margin:2rem auto;line-height:1.5}h2{margin-top:2rem}</style>
</head>
<body>
`, html.EscapeString(doc.Title), html.EscapeString(size))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
