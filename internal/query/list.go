package query

import (
	"database/sql/driver"
	"math"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

// listCondition matches rows whose array column holds any of the values,
// so sizes=42 finds every product offered in 42.
func listCondition(col Column, op string, raw []string) (clause.Expression, error) {
	if op != "" {
		return nil, apperr.Validationf("Cannot use %s on list field %s", op, col.Name)
	}
	elem := Column{Name: col.Name, Kind: col.Elem}

	values := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := coerce(elem, r)
		if err != nil {
			return nil, err
		}
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			v = int64(f)
		}
		values = append(values, v)
	}
	return listHas{column: col.Name, values: values}, nil
}

type listHas struct {
	column string
	values []any
}

func (l listHas) Build(b clause.Builder) {
	postgres := false
	if stmt, ok := b.(*gorm.Statement); ok && stmt.Dialector != nil {
		postgres = stmt.Dialector.Name() == "postgres"
	}

	b.WriteByte('(')
	for i, v := range l.values {
		if i > 0 {
			b.WriteString(" OR ")
		}
		if postgres {
			b.AddVar(b, v)
			b.WriteString(" = ANY(")
			b.WriteQuoted(clause.Column{Name: l.column})
			b.WriteByte(')')
			continue
		}
		// other drivers keep the array in its text form, e.g. {40,41}
		b.WriteString("(',' || TRIM(")
		b.WriteQuoted(clause.Column{Name: l.column})
		b.WriteString(`, '{}') || ',') LIKE `)
		b.AddVar(b, "%,"+likeEscaper.Replace(arrayElement(v))+",%")
		b.WriteString(` ESCAPE '\'`)
	}
	b.WriteByte(')')
}

// arrayElement renders v the way lib/pq writes it inside an array literal.
func arrayElement(v any) string {
	var val driver.Value
	switch x := v.(type) {
	case int64:
		val, _ = pq.Int64Array{x}.Value()
	case float64:
		val, _ = pq.Float64Array{x}.Value()
	case string:
		val, _ = pq.StringArray{x}.Value()
	default:
		return ""
	}
	s, _ := val.(string)
	return strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
}
