package main

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

var exportHeader = []interface{}{"number", "type", "content", "pinyin", "image_url", "color"}

// writeWorkbook writes the board as a spreadsheet word list, one row per card.
func writeWorkbook(w io.Writer, b *Board) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("new stream writer: %w", err)
	}
	if err := sw.SetRow("A1", exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, it := range b.Items {
		row := []interface{}{i + 1, string(it.Kind), it.Content, it.SubContent, it.ImageURL, it.Color.String()}
		// Generated images are data URLs far beyond a cell's 32767 characters.
		if len(it.ImageURL) > 1024 {
			row[4] = "(generated)"
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
