package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/events"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/payment"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const (
	MsgEmptyCart        = "Your cart is empty or user not found"
	MsgCartProductGone  = "One of the products in your cart was not found"
	MsgWebhookSignature = "Webhook signature verification failed"
	MsgWebhookPayload   = "Webhook payload could not be read"
)

type CheckoutService struct {
	Repo    *repo.GormRepo
	Gateway payment.Gateway
	Events  events.Publisher
	// ClientURL is where the provider sends the buyer back to.
	ClientURL      string
	Currency       string
	ShippingAmount int64
}

// WebhookResult says what a delivery did. Order is nil when the event was
// acknowledged without creating anything.
type WebhookResult struct {
	EventType string
	Order     *models.Order
	Created   bool
}

// Start prices the caller's cart, opens a payment session for it and keeps a
// snapshot of the priced lines keyed by the session id.
func (s *CheckoutService) Start(ctx context.Context, id *auth.Identity) (*payment.Session, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.start")

	cart, err := s.Repo.GetCart(ctx, id.UserID())
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		l.Warn("checkout_error", "status", 400, "reason", "empty cart")
		return nil, apperr.Validation(MsgEmptyCart)
	}

	req := payment.SessionRequest{
		UserID:        id.UserID(),
		CustomerEmail: id.User.Email,
		Currency:      s.currency(),
		SuccessURL:    strings.TrimRight(s.ClientURL, "/") + "/",
		CancelURL:     strings.TrimRight(s.ClientURL, "/") + "/cart",
	}
	lines := make([]models.CheckoutLine, 0, len(cart))
	amount := s.ShippingAmount
	for _, item := range cart {
		p := item.Product
		if p == nil {
			l.Warn("checkout_error", "status", 400, "reason", "product gone", "product_id", item.ProductID.String())
			return nil, apperr.Validation(MsgCartProductGone)
		}
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		req.Items = append(req.Items, payment.LineItem{
			ProductID:  p.ID,
			Name:       p.Name,
			Image:      image,
			Size:       item.Size,
			UnitAmount: p.UnitAmount(),
			Quantity:   item.Quantity,
		})
		lines = append(lines, models.CheckoutLine{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     image,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     p.Price,
		})
		amount += p.UnitAmount() * item.Quantity
	}

	sess, err := s.Gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		l.Error("checkout_error", "status", 502, "reason", "payment provider", "error", err)
		return nil, err
	}
	snap := &models.CheckoutSession{
		ID:       sess.ID,
		UserID:   id.UserID(),
		Lines:    lines,
		Amount:   amount,
		Currency: req.Currency,
		Status:   models.CheckoutOpen,
	}
	if err := s.Repo.SaveCheckoutSession(ctx, snap); err != nil {
		l.Error("checkout_error", "status", 500, "reason", "save session", "error", err)
		return nil, err
	}
	l.Info("checkout_session_created", "session_id", sess.ID, "lines", len(lines), "amount", amount)
	return sess, nil
}

// HandleWebhook verifies a provider delivery and turns a completed checkout
// into an order. Deliveries are idempotent per session id.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.webhook")

	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			l.Warn("webhook_rejected", "status", 400, "error", err)
			return nil, apperr.Wrap(apperr.KindValidation, MsgWebhookSignature, err)
		}
		l.Warn("webhook_rejected", "status", 400, "error", err)
		return nil, apperr.Wrap(apperr.KindValidation, MsgWebhookPayload, err)
	}

	res := &WebhookResult{EventType: ev.Type}
	if ev.Type != payment.EventCheckoutCompleted || ev.Session == nil {
		l.Info("webhook_ignored", "event_type", ev.Type, "event_id", ev.ID)
		return res, nil
	}
	cs := ev.Session

	order, created, err := s.Repo.CompleteCheckout(ctx, cs.ID, func(snap *models.CheckoutSession) *models.Order {
		return orderFrom(snap, cs)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("webhook_unknown_session", "session_id", cs.ID)
			return res, nil
		}
		l.Error("webhook_error", "status", 500, "session_id", cs.ID, "error", err)
		return nil, err
	}
	res.Order, res.Created = order, created

	if created {
		events.Emit(ctx, s.Events, events.New(events.OrderCreated, order.ID.String(), order))
		l.Info("order_created", "order_id", order.ID.String(), "session_id", cs.ID, "amount", order.Amount)
	} else {
		l.Info("webhook_duplicate", "order_id", order.ID.String(), "session_id", cs.ID)
	}
	return res, nil
}

func orderFrom(snap *models.CheckoutSession, cs *payment.CompletedSession) *models.Order {
	status := models.OrderPending
	if cs.Paid() {
		status = models.OrderProcessing
	}
	amount := snap.Amount
	if cs.AmountTotal > 0 {
		amount = cs.AmountTotal
	}
	currency := snap.Currency
	if cs.Currency != "" {
		currency = strings.ToLower(cs.Currency)
	}

	o := &models.Order{
		UserID:          snap.UserID,
		Amount:          amount,
		Currency:        currency,
		PaymentIntentID: cs.PaymentIntentID,
		Status:          status,
		Shipping:        cs.Shipping,
		Items:           make([]models.OrderItem, 0, len(snap.Lines)),
	}
	for _, line := range snap.Lines {
		o.Items = append(o.Items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Price:     line.Price,
		})
	}
	return o
}

func (s *CheckoutService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return strings.ToLower(s.Currency)
}
