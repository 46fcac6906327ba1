package query

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindTime
	KindUUID
	// KindList columns hold an array of Elem; a filter on them tests
	// membership and they cannot be sorted.
	KindList
	// KindOther columns (json, nested structs) can be projected but not
	// filtered or sorted.
	KindOther
)

type Column struct {
	Name    string
	JSONKey string
	Kind    Kind
	// Elem is the element kind of a KindList column.
	Elem Kind
}

func (c Column) comparable() bool { return c.Kind != KindOther && c.Kind != KindList }

func (c Column) filterable() bool {
	if c.Kind == KindList {
		return c.Elem == KindText || c.Elem == KindNumber
	}
	return c.comparable()
}

// Schema describes which columns of one model the query string may touch.
type Schema struct {
	columns     map[string]Column
	hidden      map[string]struct{}
	search      []string
	defaultSort string
}

type SchemaConfig struct {
	Hidden      []string
	Search      []string
	DefaultSort string
}

var (
	namer       = schema.NamingStrategy{}
	schemaCache sync.Map
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// NewSchema derives the column set from the gorm mapping of model.
func NewSchema(model any, cfg SchemaConfig) (*Schema, error) {
	parsed, err := schema.Parse(model, &schemaCache, namer)
	if err != nil {
		return nil, fmt.Errorf("query: parse schema: %w", err)
	}

	s := &Schema{
		columns:     make(map[string]Column, len(parsed.Fields)),
		hidden:      make(map[string]struct{}, len(cfg.Hidden)),
		defaultSort: cfg.DefaultSort,
	}
	if s.defaultSort == "" {
		s.defaultSort = "-created_at"
	}

	for _, f := range parsed.Fields {
		if f.DBName == "" {
			continue
		}
		col := Column{
			Name:    f.DBName,
			JSONKey: jsonKey(parsed.ModelType, f),
			Kind:    kindOf(f.FieldType),
		}
		if col.Kind == KindList {
			col.Elem = kindOf(indirect(f.FieldType).Elem())
		}
		s.columns[f.DBName] = col
	}
	for _, h := range cfg.Hidden {
		s.hidden[h] = struct{}{}
	}
	for _, col := range cfg.Search {
		if _, ok := s.columns[col]; !ok {
			return nil, fmt.Errorf("query: search column %q not in %s", col, parsed.Table)
		}
		s.search = append(s.search, col)
	}
	return s, nil
}

func MustSchema(model any, cfg SchemaConfig) *Schema {
	s, err := NewSchema(model, cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup resolves a query-string field name (snake or camel case) to a
// visible column.
func (s *Schema) Lookup(name string) (Column, bool) {
	name = strings.TrimSpace(name)
	if !identRe.MatchString(name) {
		return Column{}, false
	}
	col := namer.ColumnName("", name)
	if _, hidden := s.hidden[col]; hidden {
		return Column{}, false
	}
	c, ok := s.columns[col]
	return c, ok
}

func (s *Schema) hiddenColumns() []string {
	out := make([]string, 0, len(s.hidden))
	for h := range s.hidden {
		out = append(out, h)
	}
	return out
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func kindOf(t reflect.Type) Kind {
	t = indirect(t)
	switch t {
	case timeType:
		return KindTime
	case uuidType:
		return KindUUID
	case decimalType:
		return KindNumber
	}
	switch t.Kind() {
	case reflect.String:
		return KindText
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindOther
		}
		return KindList
	default:
		return KindOther
	}
}

// jsonKey is the top level JSON name a column ends up under; embedded
// columns report the name of the struct that embeds them.
func jsonKey(modelType reflect.Type, f *schema.Field) string {
	name := f.Name
	if len(f.BindNames) > 0 {
		name = f.BindNames[0]
	}
	sf, ok := modelType.FieldByName(name)
	if !ok {
		return f.DBName
	}
	tag := strings.Split(sf.Tag.Get("json"), ",")[0]
	switch tag {
	case "":
		return sf.Name
	case "-":
		return ""
	default:
		return tag
	}
}
