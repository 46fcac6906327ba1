package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/service"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Get(c.Request().Context(), id.UserID())
	if err != nil {
		return err
	}
	return cartResponse(c, items)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req AddToCartRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	items, err := h.Svc.Add(ctx, id.UserID(), service.AddToCartInput{
		ProductID: productID,
		Size:      req.Size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return err
	}
	return cartResponse(c, items)
}

// Remove drops the product; ?size= narrows it to one size.
func (h *CartHTTP) Remove(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	size, err := sizeParam(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Remove(c.Request().Context(), id.UserID(), productID, size)
	if err != nil {
		return err
	}
	return cartResponse(c, items)
}

func (h *CartHTTP) Decrement(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	size, err := sizeParam(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Decrement(c.Request().Context(), id.UserID(), productID, size)
	if err != nil {
		return err
	}
	return cartResponse(c, items)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(c.Request().Context(), id.UserID()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func sizeParam(c echo.Context) (int64, error) {
	raw := c.QueryParam("size")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Validationf("Invalid shoe size: %s", raw)
	}
	return n, nil
}

func cartResponse(c echo.Context, items []models.CartItem) error {
	n := len(items)
	return c.JSON(http.StatusOK, envelope{
		Status: "success",
		Items:  &n,
		Data:   map[string]any{"cart": items},
	})
}
