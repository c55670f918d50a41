package matching

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// Match kinds, strongest first
	MatchExact      = "exact"
	MatchNormalized = "normalized"
)

// Field is one logical column of the import, with the header labels it may
// appear under, tried in order.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
}

// Logical consumer fields
const (
	FieldConsumerNo      = "consumerNo"
	FieldName            = "name"
	FieldAddress         = "address"
	FieldMobile          = "mobile"
	FieldTotalDue        = "totalDue"
	FieldBillDueDate     = "billDueDate"
	FieldAgeInDays       = "ageInDays"
	FieldLastReceiptDate = "lastReceiptDate"
	FieldClosingBalance  = "closingBalance"
	FieldSubCategory     = "subCategory"
	FieldMeterNumber     = "meterNumber"
	FieldRemark          = "remark"
	FieldTdPdDate        = "tdPdDate"
)

var ConsumerFields = []Field{
	{Name: FieldConsumerNo, Aliases: []string{"Consumer No"}, Required: true},
	{Name: FieldName, Aliases: []string{"Name"}},
	{Name: FieldAddress, Aliases: []string{"Address"}},
	{Name: FieldMobile, Aliases: []string{"Consumer Mobile Number", "Mobile"}},
	{Name: FieldTotalDue, Aliases: []string{"Total Due Amount Including Current Bill", "Total Due"}},
	{Name: FieldBillDueDate, Aliases: []string{"Bill Due Date"}},
	{Name: FieldAgeInDays, Aliases: []string{"Age in Days"}},
	{Name: FieldLastReceiptDate, Aliases: []string{"Last Receipt Date"}},
	{Name: FieldClosingBalance, Aliases: []string{"Closing Balance"}},
	{Name: FieldSubCategory, Aliases: []string{"Sub Category"}},
	{Name: FieldMeterNumber, Aliases: []string{"Meter Number"}},
	{Name: FieldRemark, Aliases: []string{"Remark"}},
	{Name: FieldTdPdDate, Aliases: []string{"TD/PD Date", "TD PD Date"}},
}

type ColumnMatch struct {
	Field  string `json:"field"`
	Header string `json:"header"`
	Alias  string `json:"alias"`
	Type   string `json:"type"`
}

type ColumnResolver struct {
	headers []string
}

func NewColumnResolver(headers []string) *ColumnResolver {
	return &ColumnResolver{headers: headers}
}

// Normalize lowercases a header and strips every whitespace rune.
func Normalize(header string) string {
	var b strings.Builder
	for _, r := range header {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Resolve finds the header for the first alias that matches, preferring an
// exact match over a normalized one for each alias.
func (r *ColumnResolver) Resolve(aliases ...string) (ColumnMatch, bool) {
	for _, alias := range aliases {
		for _, h := range r.headers {
			if h == alias {
				return ColumnMatch{Header: h, Alias: alias, Type: MatchExact}, true
			}
		}

		want := Normalize(alias)
		for _, h := range r.headers {
			if Normalize(h) == want {
				return ColumnMatch{Header: h, Alias: alias, Type: MatchNormalized}, true
			}
		}
	}
	return ColumnMatch{}, false
}

// ResolveFields maps every field to its header. Required fields that could
// not be resolved are returned by name.
func (r *ColumnResolver) ResolveFields(fields []Field) (map[string]ColumnMatch, []string) {
	matches := make(map[string]ColumnMatch, len(fields))
	var missing []string

	for _, f := range fields {
		m, ok := r.Resolve(f.Aliases...)
		if !ok {
			if f.Required {
				missing = append(missing, f.Aliases[0])
			}
			continue
		}
		m.Field = f.Name
		matches[f.Name] = m
	}
	return matches, missing
}

// HeadersOf collects the union of keys across rows, sorted, so resolution
// does not depend on map iteration order.
func HeadersOf(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return headers
}
