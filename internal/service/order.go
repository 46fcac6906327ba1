package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/events"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/query"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const (
	MsgNoOrder       = "No order found with that ID"
	MsgBadStatus     = "Status is either: pending, processing, shipped, completed, cancelled"
	MsgBadTransition = "Cannot change order status from %s to %s"
)

type OrderService struct {
	Lister
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *OrderService) Mine(ctx context.Context, userID uuid.UUID, params url.Values) (*query.Result[models.Order], error) {
	return s.Repo.ListOrders(ctx, s.build(OrderSchema, params), query.Where("user_id = ?", userID))
}

func (s *OrderService) All(ctx context.Context, params url.Values) (*query.Result[models.Order], error) {
	return s.Repo.ListOrders(ctx, s.build(OrderSchema, params))
}

// Get hides orders of other users behind a not found.
func (s *OrderService) Get(ctx context.Context, id *auth.Identity, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, MsgNoOrder)
	}
	if !id.IsAdmin() && o.UserID != id.UserID() {
		logging.FromContext(ctx).Warn("order_access_denied", "svc", "orders.get", "order_id", orderID.String())
		return nil, apperr.NotFound(MsgNoOrder)
	}
	return o, nil
}

func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.set_status")

	if !to.Valid() {
		return nil, apperr.Validation(MsgBadStatus)
	}
	var from models.OrderStatus
	o, err := s.Repo.SetOrderStatus(ctx, orderID, func(cur models.OrderStatus) error {
		from = cur
		if !cur.CanTransition(to) {
			return apperr.Validationf(MsgBadTransition, cur, to)
		}
		return nil
	}, to)
	if err != nil {
		l.Warn("set_status_error", "order_id", orderID.String(), "error", err)
		return nil, notFound(err, MsgNoOrder)
	}

	events.Emit(ctx, s.Events, events.New(events.OrderStatusChanged, o.ID.String(), map[string]any{
		"id":   o.ID,
		"from": from,
		"to":   to,
	}))
	l.Info("order_status_changed", "order_id", o.ID.String(), "from", string(from), "to", string(to))
	return o, nil
}
