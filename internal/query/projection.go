package query

import (
	"encoding/json"

	"gorm.io/gorm"
)

// projection is the result of the fields parameter: either an inclusion list
// or a set of omitted columns (hidden columns are always omitted).
type projection struct {
	include  []string
	keep     map[string]struct{}
	omit     []string
	dropKeys map[string]struct{}
}

func newInclusion(s *Schema, cols []Column) projection {
	p := projection{keep: map[string]struct{}{}}
	seen := map[string]struct{}{}
	add := func(c Column) {
		if _, dup := seen[c.Name]; dup {
			return
		}
		seen[c.Name] = struct{}{}
		p.include = append(p.include, c.Name)
		if c.JSONKey != "" {
			p.keep[c.JSONKey] = struct{}{}
		}
	}
	if id, ok := s.columns["id"]; ok {
		add(id)
	}
	for _, c := range cols {
		add(c)
	}
	return p
}

func (p *projection) addExclusion(cols []Column) {
	if p.dropKeys == nil {
		p.dropKeys = map[string]struct{}{}
	}
	for _, c := range cols {
		p.omit = append(p.omit, c.Name)
		// embedded columns share a key with their siblings; only drop
		// keys that belong to exactly one column
		if c.JSONKey != "" && c.JSONKey == c.Name {
			p.dropKeys[c.JSONKey] = struct{}{}
		}
	}
}

func (p projection) apply(tx *gorm.DB) *gorm.DB {
	if len(p.include) > 0 {
		return tx.Select(p.include)
	}
	if len(p.omit) > 0 {
		return tx.Omit(p.omit...)
	}
	return tx
}

func (p projection) shaping() bool {
	return len(p.include) > 0 || len(p.dropKeys) > 0
}

// shape re-encodes items keeping only the projected JSON keys. extra keys
// (preloaded relations) survive an inclusion list.
func (p projection) shape(items any, extra []string) (any, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	keep := p.keep
	if len(p.include) > 0 && len(extra) > 0 {
		keep = make(map[string]struct{}, len(p.keep)+len(extra))
		for k := range p.keep {
			keep[k] = struct{}{}
		}
		for _, k := range extra {
			keep[k] = struct{}{}
		}
	}

	for _, row := range rows {
		for k := range row {
			if len(p.include) > 0 {
				if _, ok := keep[k]; !ok {
					delete(row, k)
				}
				continue
			}
			if _, drop := p.dropKeys[k]; drop {
				delete(row, k)
			}
		}
	}
	return rows, nil
}
