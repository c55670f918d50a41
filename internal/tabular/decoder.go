// Package tabular turns spreadsheet uploads into header-keyed rows.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Row maps a header, exactly as it appears in the file, to its cell value.
// Values are strings for spreadsheet input but callers also accept numbers.
type Row = map[string]any

type Table struct {
	Headers []string
	Rows    []Row
}

type Decoder interface {
	Decode(r io.Reader) (*Table, error)
}

// DecoderFor picks a decoder from the uploaded file's extension.
func DecoderFor(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return &XLSXDecoder{}, nil
	case ".csv":
		return &CSVDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (use .xlsx or .csv)", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// buildTable keys every record by the header row. Blank headers are
// dropped, repeated headers get a numeric suffix, and rows with no content
// are skipped.
func buildTable(records [][]string) *Table {
	table := &Table{Rows: []Row{}}
	if len(records) == 0 {
		return table
	}

	header := records[0]
	keys := make([]string, len(header))
	original := make(map[string]bool, len(header))
	for _, h := range header {
		original[h] = true
	}
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		key := h
		// A suffixed key must not shadow a header that is in the file.
		for n := 1; used[key]; n++ {
			candidate := fmt.Sprintf("%s_%d", h, n)
			if !original[candidate] {
				key = candidate
			}
		}
		used[key] = true
		keys[i] = key
		table.Headers = append(table.Headers, key)
	}

	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make(Row, len(table.Headers))
		for i, key := range keys {
			if key == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = record[i]
			}
			row[key] = value
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
