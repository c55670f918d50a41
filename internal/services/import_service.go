package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"dues-ledger/internal/matching"
	"dues-ledger/internal/models"
	"dues-ledger/internal/tabular"
)

// ImportService turns a consumer spreadsheet into ledger records. It never
// clears the ledger; starting a new cycle is a separate, confirmed purge.
type ImportService struct {
	ledger *LedgerService
	log    *logrus.Logger
	now    func() time.Time
}

func NewImportService(ledger *LedgerService, log *logrus.Logger) *ImportService {
	return &ImportService{
		ledger: ledger,
		log:    log,
		now:    time.Now,
	}
}

type ImportResult struct {
	RecordsCount int                    `json:"records_count"`
	Skipped      int                    `json:"skipped"`
	Columns      []matching.ColumnMatch `json:"columns"`
}

type parseOutcome struct {
	records []*models.Consumer
	skipped int
	columns []matching.ColumnMatch
}

// Parse normalizes decoded rows into consumers. Rows without a consumer
// number are skipped. A file with no consumer number column is rejected.
func (s *ImportService) Parse(rows []tabular.Row) ([]*models.Consumer, error) {
	out, err := s.parse(rows, matching.HeadersOf(rows))
	if err != nil {
		return nil, err
	}
	return out.records, nil
}

// Import decodes the file, parses it and upserts the result into the ledger
// without clearing it.
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	decoder, err := tabular.DecoderFor(filename)
	if err != nil {
		return nil, &ValidationError{Op: "import", Msg: err.Error()}
	}

	table, err := decoder.Decode(r)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) {
			return nil, &ValidationError{Op: "import", Msg: err.Error()}
		}
		return nil, &ValidationError{Op: "import", Msg: fmt.Sprintf("could not read %s: %v", filename, err)}
	}

	headers := table.Headers
	if len(headers) == 0 {
		headers = matching.HeadersOf(table.Rows)
	}

	out, err := s.parse(table.Rows, headers)
	if err != nil {
		return nil, err
	}
	if len(out.records) == 0 {
		return nil, ErrNoValidRows
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("import cancelled: %w", err)
	}

	if err := s.ledger.BulkReplace(ctx, out.records, false); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"file":    filename,
		"records": len(out.records),
		"skipped": out.skipped,
	}).Info("Consumer file imported")

	return &ImportResult{
		RecordsCount: len(out.records),
		Skipped:      out.skipped,
		Columns:      out.columns,
	}, nil
}

func (s *ImportService) parse(rows []tabular.Row, headers []string) (*parseOutcome, error) {
	out := &parseOutcome{records: []*models.Consumer{}, columns: []matching.ColumnMatch{}}
	if len(rows) == 0 {
		return out, nil
	}

	matches, missing := matching.NewColumnResolver(headers).ResolveFields(matching.ConsumerFields)
	if len(missing) > 0 {
		return nil, &ValidationError{
			Op:  "import",
			Msg: fmt.Sprintf("required column not found: %s", strings.Join(missing, ", ")),
		}
	}
	for _, f := range matching.ConsumerFields {
		if m, ok := matches[f.Name]; ok {
			out.columns = append(out.columns, m)
		}
	}

	now := s.now()
	for _, row := range rows {
		get := func(field string) string {
			m, ok := matches[field]
			if !ok {
				return ""
			}
			return cellString(row[m.Header])
		}

		consumerNo := get(matching.FieldConsumerNo)
		if consumerNo == "" {
			out.skipped++
			continue
		}

		name := get(matching.FieldName)
		if name == "" {
			name = "Unknown"
		}

		age := cleanNumber(get(matching.FieldAgeInDays)).IntPart()
		if age < 0 {
			age = 0
		}

		totalDue := cleanNumber(get(matching.FieldTotalDue))
		if totalDue.IsNegative() {
			totalDue = decimal.Zero
		}

		out.records = append(out.records, &models.Consumer{
			ConsumerNo:      consumerNo,
			Name:            name,
			Address:         get(matching.FieldAddress),
			Mobile:          get(matching.FieldMobile),
			TotalDue:        totalDue,
			BillDueDate:     get(matching.FieldBillDueDate),
			AgeInDays:       int(age),
			LastReceiptDate: get(matching.FieldLastReceiptDate),
			ClosingBalance:  cleanNumber(get(matching.FieldClosingBalance)),
			SubCategory:     get(matching.FieldSubCategory),
			MeterNumber:     get(matching.FieldMeterNumber),
			Remark:          get(matching.FieldRemark),
			TdPdDate:        get(matching.FieldTdPdDate),
			Status:          models.StatusPending,
			UpdatedAt:       now,
		})
	}
	return out, nil
}

// cellString accepts the string or numeric cell values decoders report.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// cleanNumber keeps digits, '.' and '-' and parses what is left. Anything
// unparsable is zero.
func cleanNumber(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
