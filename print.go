package main

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates
var templatesFS embed.FS

var printTemplate = template.Must(template.ParseFS(templatesFS, "templates/print.html"))

// cellsPerPage is the 3×4 grid of an A4 sheet.
const cellsPerPage = 12

// ExportOptions are handed to the browser's PDF utility (html2pdf).
type ExportOptions struct {
	Filename    string       `json:"filename"`
	Margin      float64      `json:"margin"`
	Image       imageOptions `json:"image"`
	HTML2Canvas canvasOpts   `json:"html2canvas"`
	JSPDF       pageOptions  `json:"jsPDF"`
}

type imageOptions struct {
	Type    string  `json:"type"`
	Quality float64 `json:"quality"`
}

type canvasOpts struct {
	Scale   int  `json:"scale"`
	UseCORS bool `json:"useCORS"`
	Logging bool `json:"logging"`
}

type pageOptions struct {
	Unit        string `json:"unit"`
	Format      string `json:"format"`
	Orientation string `json:"orientation"`
}

// PrintCell is one cut-out card on the sheets.
type PrintCell struct {
	Number   int
	Kind     Kind
	Content  string
	Pinyin   string
	ImageURL template.URL // produced by our own image services
	Color    string
}

// PrintPage is one pair of A4 sheets: covers and the contents glued under them.
type PrintPage struct {
	Number int
	Cells  []PrintCell
}

// PrintSheet is everything the print template needs.
type PrintSheet struct {
	ThemeLabel string
	ShowPinyin bool
	Pages      []PrintPage
	Export     ExportOptions
	PaletteCSS template.CSS // generated from the colour table
}

func exportOptions(themeLabel string, day time.Time) ExportOptions {
	return ExportOptions{
		Filename:    fmt.Sprintf("汉字盲盒-%s-%s.pdf", themeLabel, day.Format("2006-01-02")),
		Margin:      0,
		Image:       imageOptions{Type: "jpeg", Quality: 0.98},
		HTML2Canvas: canvasOpts{Scale: 2, UseCORS: true},
		JSPDF:       pageOptions{Unit: "mm", Format: "a4", Orientation: "portrait"},
	}
}

// NewPrintSheet lays a board out on A4 pages of twelve cards.
func NewPrintSheet(b *Board, cfg ThemeConfig, showPinyin bool, day time.Time) PrintSheet {
	sheet := PrintSheet{
		ThemeLabel: cfg.Label,
		ShowPinyin: showPinyin,
		Export:     exportOptions(cfg.Label, day),
		PaletteCSS: template.CSS(paletteCSS()),
	}

	for i, it := range b.Items {
		if i%cellsPerPage == 0 {
			sheet.Pages = append(sheet.Pages, PrintPage{Number: len(sheet.Pages) + 1})
		}
		page := &sheet.Pages[len(sheet.Pages)-1]
		page.Cells = append(page.Cells, PrintCell{
			Number:   i + 1,
			Kind:     it.Kind,
			Content:  it.Content,
			Pinyin:   it.SubContent,
			ImageURL: template.URL(it.ImageURL),
			Color:    it.Color.String(),
		})
	}
	return sheet
}

// Render writes the printable HTML document.
func (p PrintSheet) Render(w io.Writer) error {
	if err := printTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render print sheet: %w", err)
	}
	return nil
}
