package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

type CSVDecoder struct {
	// Comma overrides the field delimiter when set.
	Comma rune
}

func (d *CSVDecoder) Decode(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if d.Comma != 0 {
		reader.Comma = d.Comma
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return buildTable(records), nil
}
