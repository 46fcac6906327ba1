// Package service holds the shop's business rules. Handlers call it; it calls
// the repository and the outside providers.
package service

import (
	"errors"
	"net/url"
	"time"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/query"
	"github.com/Skotchmaster/shoe_store/internal/repo"
)

var (
	UserSchema = query.MustSchema(&models.User{}, query.SchemaConfig{
		Hidden: models.UserHiddenColumns,
		Search: []string{"name", "email"},
	})
	ProductSchema = query.MustSchema(&models.Product{}, query.SchemaConfig{
		Hidden: models.ProductHiddenColumns,
		Search: models.ProductSearchColumns,
	})
	OrderSchema = query.MustSchema(&models.Order{}, query.SchemaConfig{})
)

// Lister carries the query options every list endpoint shares.
type Lister struct {
	Query query.Options
}

func (l Lister) build(s *query.Schema, params url.Values) *query.Builder {
	return query.New(s, params, l.Query).Build()
}

func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
