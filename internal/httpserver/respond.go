package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/query"
)

type envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Items   *int   `json:"items,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
}

type meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func success(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Status: "success", Data: data})
}

// page writes one page of a list endpoint under data[key], honouring the
// requested field selection.
func page[T any](c echo.Context, key string, res *query.Result[T]) error {
	items, err := res.Shaped()
	if err != nil {
		return err
	}
	n := len(res.Items)
	return c.JSON(200, envelope{
		Status:  "success",
		Results: &n,
		Data:    map[string]any{key: items},
		Meta: &meta{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages(),
			HasPrev:    res.HasPrev(),
			HasNext:    res.HasNext(),
		},
	})
}
