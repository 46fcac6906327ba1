// Package importer reads product rows from an xlsx workbook.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/models"
)

// MaxRows bounds one workbook.
const MaxRows = 1000

var Header = []string{"name", "description", "price", "category", "sizes", "on_sale"}

type Row struct {
	Line        int
	Name        string
	Description string
	Price       decimal.Decimal
	Category    models.Category
	Sizes       []int64
	OnSale      bool
}

type RowError struct {
	Line    int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %s", e.Line, e.Message) }

// Parse reads the first sheet. The first row is the header; column order is
// free but every column of Header must be present. Rows that fail to parse
// are reported, not fatal.
func Parse(r io.Reader) ([]Row, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindValidation, "Please upload a valid .xlsx file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperr.Validation("The workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("importer: read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, apperr.Validation("The workbook has no product rows")
	}
	if len(rows)-1 > MaxRows {
		return nil, nil, apperr.Validationf("At most %d products can be imported at once", MaxRows)
	}

	idx, err := columns(rows[0])
	if err != nil {
		return nil, nil, err
	}

	var (
		out []Row
		bad []RowError
	)
	for i, cells := range rows[1:] {
		line := i + 2
		if blank(cells) {
			continue
		}
		row, err := parseRow(line, func(col string) string {
			j := idx[col]
			if j >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[j])
		})
		if err != nil {
			bad = append(bad, RowError{Line: line, Message: err.Error()})
			continue
		}
		out = append(out, row)
	}
	return out, bad, nil
}

func columns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, h := range Header {
		if _, ok := idx[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validationf("Missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(line int, cell func(string) string) (Row, error) {
	r := Row{
		Line:        line,
		Name:        cell("name"),
		Description: cell("description"),
		Category:    models.Category(cell("category")),
	}
	if r.Name == "" {
		return r, fmt.Errorf("name is required")
	}
	if r.Description == "" {
		return r, fmt.Errorf("description is required")
	}
	if !r.Category.Valid() {
		return r, fmt.Errorf("unknown category %q", r.Category)
	}

	price, err := decimal.NewFromString(cell("price"))
	if err != nil || price.IsNegative() {
		return r, fmt.Errorf("price must be a non-negative number")
	}
	r.Price = price.Round(2)

	for _, s := range strings.FieldsFunc(cell("sizes"), func(c rune) bool { return c == ',' || c == ' ' || c == ';' }) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return r, fmt.Errorf("invalid size %q", s)
		}
		r.Sizes = append(r.Sizes, n)
	}
	if len(r.Sizes) == 0 {
		return r, fmt.Errorf("at least one size is required")
	}

	switch strings.ToLower(cell("on_sale")) {
	case "", "0", "false", "no", "n":
	case "1", "true", "yes", "y":
		r.OnSale = true
	default:
		return r, fmt.Errorf("on_sale must be true or false")
	}
	return r, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
