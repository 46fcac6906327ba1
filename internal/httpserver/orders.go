package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/service"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

type OrdersHTTP struct {
	Svc *service.OrderService
}

func (h *OrdersHTTP) Mine(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	res, err := h.Svc.Mine(c.Request().Context(), id.UserID(), c.QueryParams())
	if err != nil {
		return err
	}
	return page(c, "orders", res)
}

func (h *OrdersHTTP) All(c echo.Context) error {
	res, err := h.Svc.All(c.Request().Context(), c.QueryParams())
	if err != nil {
		return err
	}
	return page(c, "orders", res)
}

func (h *OrdersHTTP) Get(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.Svc.Get(c.Request().Context(), id, orderID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"order": o})
}

func (h *OrdersHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.set_status")

	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req SetOrderStatusRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("set_status_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	o, err := h.Svc.SetStatus(ctx, orderID, models.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"order": o})
}
