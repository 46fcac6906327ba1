package query

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

type Result[T any] struct {
	Items []T
	// Total counts every row matching the filter, ignoring pagination.
	Total int64
	Page  int
	Limit int

	proj      projection
	extraKeys []string
}

func (r *Result[T]) TotalPages() int64 {
	if r.Limit <= 0 {
		return 0
	}
	return (r.Total + int64(r.Limit) - 1) / int64(r.Limit)
}

func (r *Result[T]) HasPrev() bool { return r.Page > 1 }

func (r *Result[T]) HasNext() bool {
	return int64(r.Page)*int64(r.Limit) < r.Total
}

// Shaped returns the items limited to the requested fields, or the items
// unchanged when no projection was asked for.
func (r *Result[T]) Shaped() (any, error) {
	if !r.proj.shaping() {
		return r.Items, nil
	}
	return r.proj.shape(r.Items, r.extraKeys)
}

type RunOption func(*runConfig)

type runConfig struct {
	scopes   []func(*gorm.DB) *gorm.DB
	preloads []preload
	first    []clause.OrderByColumn
}

type preload struct {
	name string
	args []any
}

// Scope restricts both the count and the page, e.g. to the caller's rows.
func Scope(fn func(*gorm.DB) *gorm.DB) RunOption {
	return func(c *runConfig) { c.scopes = append(c.scopes, fn) }
}

func Where(q any, args ...any) RunOption {
	return Scope(func(tx *gorm.DB) *gorm.DB { return tx.Where(q, args...) })
}

// RankByID orders the page by the position of each row's id in ids, ahead
// of the requested sort. Rows whose id is not listed come last.
func RankByID(ids []uuid.UUID) RunOption {
	return func(c *runConfig) {
		if len(ids) == 0 {
			return
		}
		var sb strings.Builder
		sb.WriteString("CASE id")
		for i, id := range ids {
			// uuid text is hex and dashes only, safe to inline
			fmt.Fprintf(&sb, " WHEN '%s' THEN %d", id.String(), i)
		}
		fmt.Fprintf(&sb, " ELSE %d END", len(ids))
		c.first = append(c.first, clause.OrderByColumn{Column: clause.Column{Name: sb.String(), Raw: true}})
	}
}

// Preload loads an association for the page only.
func Preload(name string, args ...any) RunOption {
	return func(c *runConfig) { c.preloads = append(c.preloads, preload{name: name, args: args}) }
}

// Run executes the built query against the table of T.
func Run[T any](ctx context.Context, db *gorm.DB, b *Builder, opts ...RunOption) (*Result[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.unknown) > 0 {
		logging.FromContext(ctx).Warn("query_unknown_fields", "keys", b.unknown)
	}

	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var model T
	base := db.WithContext(ctx).Model(&model)
	for _, scope := range cfg.scopes {
		base = scope(base)
	}
	for _, cond := range b.conds {
		base = base.Where(cond)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("query: count: %w", err)
	}

	res := &Result[T]{
		Items:     make([]T, 0),
		Total:     total,
		Page:      b.page,
		Limit:     b.limit,
		proj:      b.proj,
		extraKeys: relationKeys[T](cfg.preloads),
	}
	if total == 0 || int64(b.Offset()) >= total {
		return res, nil
	}

	find := base.Session(&gorm.Session{})
	for _, o := range cfg.first {
		find = find.Order(o)
	}
	for _, o := range b.orders {
		find = find.Order(o)
	}
	find = b.proj.apply(find)
	for _, p := range cfg.preloads {
		find = find.Preload(p.name, p.args...)
	}
	if err := find.Limit(b.limit).Offset(b.Offset()).Find(&res.Items).Error; err != nil {
		return nil, fmt.Errorf("query: find: %w", err)
	}
	return res, nil
}

func relationKeys[T any](preloads []preload) []string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	for _, p := range preloads {
		top := strings.Split(p.name, ".")[0]
		sf, ok := t.FieldByName(top)
		if !ok {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "" {
			name = sf.Name
		}
		if name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}
