package utils

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the first worksheet of a workbook reduced to header-keyed rows
type Sheet struct {
	Headers []string
	Rows    []map[string]string
}

// ReadFirstSheet parses an .xlsx workbook. The first row is the header;
// every following non-blank row becomes a mapping from header to cell text.
func ReadFirstSheet(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Printf("warning: failed to close workbook: %v", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	sheet := &Sheet{}
	if len(rows) == 0 {
		return sheet, nil
	}

	for _, h := range rows[0] {
		sheet.Headers = append(sheet.Headers, strings.TrimSpace(h))
	}

	for _, row := range rows[1:] {
		record := make(map[string]string, len(sheet.Headers))
		blank := true
		for i, header := range sheet.Headers {
			if header == "" || i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value != "" {
				blank = false
			}
			record[header] = value
		}
		if !blank {
			sheet.Rows = append(sheet.Rows, record)
		}
	}

	return sheet, nil
}
