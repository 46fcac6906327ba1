// Package query turns a list endpoint's query string into a bounded read:
// filter, sort, field selection and pagination, plus a total count of the
// rows matching the filter alone.
package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50
	maxPage      = 1_000_000

	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
	ParamSearch = "search"
)

var (
	reserved = map[string]struct{}{
		ParamPage: {}, ParamSort: {}, ParamLimit: {}, ParamFields: {}, ParamSearch: {},
	}
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	rangeRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(gte|gt|lte|lt)\]$`)

	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

type Options struct {
	// Strict rejects unknown filter, sort and projection fields instead of
	// accepting them.
	Strict bool
}

type Builder struct {
	schema *Schema
	params url.Values
	opts   Options

	conds   []clause.Expression
	orders  []clause.OrderByColumn
	proj    projection
	page    int
	limit   int
	unknown []string
	err     error
}

func New(s *Schema, params url.Values, opts Options) *Builder {
	if params == nil {
		params = url.Values{}
	}
	return &Builder{
		schema: s,
		params: params,
		opts:   opts,
		page:   DefaultPage,
		limit:  DefaultLimit,
	}
}

// Build applies every stage in the documented order.
func (b *Builder) Build() *Builder {
	return b.Filter().Sort().LimitFields().Paginate()
}

func (b *Builder) Err() error { return b.err }

// Unknown lists the filter keys that named no visible column.
func (b *Builder) Unknown() []string { return b.unknown }

func (b *Builder) Page() int  { return b.page }
func (b *Builder) Limit() int { return b.limit }

func (b *Builder) Offset() int { return (b.page - 1) * b.limit }

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) Filter() *Builder {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, skip := reserved[key]; skip {
			continue
		}
		values := b.params[key]
		if len(values) == 0 {
			continue
		}

		field, op := key, ""
		if m := rangeRe.FindStringSubmatch(key); m != nil {
			field, op = m[1], m[2]
		}

		col, ok := b.schema.Lookup(field)
		if !ok || !col.filterable() {
			b.unknownKey(key)
			continue
		}

		cond, err := condition(col, op, values)
		if err != nil {
			b.fail(err)
			return b
		}
		b.conds = append(b.conds, cond)
	}

	if q := strings.TrimSpace(b.params.Get(ParamSearch)); q != "" && len(b.schema.search) > 0 {
		b.conds = append(b.conds, searchExpr(b.schema.search, q))
	}
	return b
}

func (b *Builder) unknownKey(key string) {
	if b.opts.Strict {
		b.fail(apperr.Validationf("Unknown filter field: %s", key))
		return
	}
	b.unknown = append(b.unknown, key)
	// a field the store does not have cannot be equal to anything
	b.conds = append(b.conds, clause.Expr{SQL: "1 = 0"})
}

func condition(col Column, op string, raw []string) (clause.Expression, error) {
	if col.Kind == KindList {
		return listCondition(col, op, raw)
	}

	values := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := coerce(col, r)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	c := clause.Column{Name: col.Name}
	switch op {
	case "gte":
		return clause.Gte{Column: c, Value: values[0]}, nil
	case "gt":
		return clause.Gt{Column: c, Value: values[0]}, nil
	case "lte":
		return clause.Lte{Column: c, Value: values[0]}, nil
	case "lt":
		return clause.Lt{Column: c, Value: values[0]}, nil
	}
	if len(values) == 1 {
		return clause.Eq{Column: c, Value: values[0]}, nil
	}
	return clause.IN{Column: c, Values: values}, nil
}

func coerce(col Column, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch col.Kind {
	case KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperr.Validationf("Invalid %s: %q is not a number", col.Name, raw)
		}
		return f, nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.Validationf("Invalid %s: %q is not a boolean", col.Name, raw)
		}
		return v, nil
	case KindTime:
		for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC(), nil
			}
		}
		return nil, apperr.Validationf("Invalid %s: %q is not a date", col.Name, raw)
	case KindUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validationf("Invalid %s: %q is not an id", col.Name, raw)
		}
		return id, nil
	default:
		return raw, nil
	}
}

// searchExpr matches q case-insensitively as a substring of any column.
func searchExpr(columns []string, q string) clause.Expression {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"

	parts := make([]string, 0, len(columns))
	vars := make([]any, 0, 2*len(columns))
	for _, col := range columns {
		parts = append(parts, `LOWER(?) LIKE ? ESCAPE '\'`)
		vars = append(vars, clause.Column{Name: col}, pattern)
	}
	return clause.Expr{SQL: "(" + strings.Join(parts, " OR ") + ")", Vars: vars}
}

func (b *Builder) Sort() *Builder {
	orders, err := b.parseSort(b.params.Get(ParamSort))
	if err != nil {
		b.fail(err)
		return b
	}
	if len(orders) == 0 {
		orders, _ = b.parseSort(b.schema.defaultSort)
	}

	seenID := false
	for _, o := range orders {
		if o.Column.Name == "id" {
			seenID = true
		}
	}
	if _, ok := b.schema.columns["id"]; ok && !seenID {
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	b.orders = orders
	return b
}

func (b *Builder) parseSort(raw string) ([]clause.OrderByColumn, error) {
	var orders []clause.OrderByColumn
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		desc := strings.HasPrefix(tok, "-")
		name := strings.TrimPrefix(tok, "-")

		col, ok := b.schema.Lookup(name)
		if !ok || !col.comparable() {
			if b.opts.Strict {
				return nil, apperr.Validationf("Cannot sort by field: %s", name)
			}
			continue
		}
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: col.Name}, Desc: desc})
	}
	return orders, nil
}

func (b *Builder) LimitFields() *Builder {
	raw := strings.TrimSpace(b.params.Get(ParamFields))
	b.proj = projection{omit: b.schema.hiddenColumns()}
	if raw == "" {
		return b
	}

	var include, exclude []Column
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		neg := strings.HasPrefix(tok, "-")
		col, ok := b.schema.Lookup(strings.TrimPrefix(tok, "-"))
		if !ok {
			if b.opts.Strict {
				b.fail(apperr.Validationf("Unknown field: %s", strings.TrimPrefix(tok, "-")))
				return b
			}
			continue
		}
		if neg {
			exclude = append(exclude, col)
		} else {
			include = append(include, col)
		}
	}

	switch {
	case len(include) > 0 && len(exclude) > 0:
		b.fail(apperr.Validation("Cannot mix included and excluded fields"))
	case len(include) > 0:
		b.proj = newInclusion(b.schema, include)
	case len(exclude) > 0:
		b.proj.addExclusion(exclude)
	}
	return b
}

func (b *Builder) Paginate() *Builder {
	b.page = positiveOr(b.params.Get(ParamPage), DefaultPage)
	if b.page > maxPage {
		b.page = maxPage
	}
	b.limit = positiveOr(b.params.Get(ParamLimit), DefaultLimit)
	if b.limit > MaxLimit {
		b.limit = MaxLimit
	}
	return b
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}
