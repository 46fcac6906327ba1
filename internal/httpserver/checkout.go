package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/payment"
	"github.com/Skotchmaster/shoe_store/internal/service"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const maxWebhookBytes = 64 << 10

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (h *CheckoutHTTP) Session(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	sess, err := h.Svc.Start(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"session": sessionResponse{ID: sess.ID, URL: sess.URL},
	})
}

// Webhook reads the raw body; the signature covers the exact bytes sent.
func (h *CheckoutHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.webhook")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes+1))
	if err != nil {
		l.Warn("webhook_error", "status", 400, "reason", "cannot read body", "error", err)
		return apperr.Wrap(apperr.KindValidation, service.MsgWebhookPayload, err)
	}
	if len(payload) > maxWebhookBytes {
		return apperr.Validation(service.MsgWebhookPayload)
	}

	res, err := h.Svc.HandleWebhook(ctx, payload, c.Request().Header.Get(payment.SignatureHeader))
	if err != nil {
		return err
	}
	out := map[string]any{"received": true, "type": res.EventType}
	if res.Order != nil {
		out["order_id"] = res.Order.ID
		out["created"] = res.Created
	}
	return c.JSON(http.StatusOK, out)
}
