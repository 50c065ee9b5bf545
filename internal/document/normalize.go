package document

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrFormatConversion is returned when a spreadsheet cannot be turned into CSV
var ErrFormatConversion = errors.New("format conversion failed")

// ConvertedName is the filename given to spreadsheets after CSV conversion
const ConvertedName = "converted.csv"

// Normalize prepares a file for extraction. Spreadsheets become the CSV text
// of their first sheet; everything else is returned unchanged.
func Normalize(f File) (File, error) {
	if !IsSpreadsheet(f) {
		return f, nil
	}

	data, err := spreadsheetToCSV(f.Data)
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %w", ErrFormatConversion, f.Name, err)
	}

	return File{
		Name:     ConvertedName,
		MIMEType: "text/csv",
		Data:     data,
	}, nil
}

// spreadsheetToCSV decodes a workbook and writes its first sheet (by position) as CSV
func spreadsheetToCSV(data []byte) ([]byte, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	// GetRows drops trailing empty cells, so pad every row to the widest one
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		record := make([]string, width)
		copy(record, row)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}

	return buf.Bytes(), nil
}
