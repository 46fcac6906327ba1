// Package payment talks to the hosted checkout provider: it opens checkout
// sessions and verifies the webhooks that report them paid.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Skotchmaster/shoe_store/internal/models"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	PaymentStatusPaid      = "paid"
	SignatureHeader        = "Stripe-Signature"
)

var ErrBadSignature = errors.New("payment: webhook signature verification failed")

type LineItem struct {
	ProductID  uuid.UUID
	Name       string
	Image      string
	Size       int64
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	UserID        uuid.UUID
	CustomerEmail string
	Currency      string
	Items         []LineItem
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string
	URL string
}

// CompletedSession is what the provider reports about a finished checkout.
type CompletedSession struct {
	ID                string
	ClientReferenceID string
	CustomerEmail     string
	AmountTotal       int64
	Currency          string
	PaymentStatus     string
	PaymentIntentID   string
	Shipping          models.ShippingDetails
	Metadata          map[string]string
}

func (s *CompletedSession) Paid() bool { return s.PaymentStatus == PaymentStatusPaid }

type Event struct {
	ID   string
	Type string
	// Session is set for checkout session events.
	Session *CompletedSession
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// ParseWebhook verifies the signature header against secret and decodes the
// event. Any verification failure is ErrBadSignature.
func ParseWebhook(payload []byte, signature, secret string) (*Event, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: no webhook secret configured", ErrBadSignature)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || ev.Data == nil {
		return out, nil
	}
	s, err := decodeSession(ev.Data.Raw)
	if err != nil {
		return nil, fmt.Errorf("payment: decode %s: %w", out.Type, err)
	}
	out.Session = s
	return out, nil
}

type wireAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type wireShipping struct {
	Name    string      `json:"name"`
	Address wireAddress `json:"address"`
}

type wireSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerDetails   *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	AmountTotal          int64           `json:"amount_total"`
	Currency             string          `json:"currency"`
	PaymentStatus        string          `json:"payment_status"`
	PaymentIntent        json.RawMessage `json:"payment_intent"`
	ShippingDetails      *wireShipping   `json:"shipping_details"`
	CollectedInformation *struct {
		ShippingDetails *wireShipping `json:"shipping_details"`
	} `json:"collected_information"`
	Metadata map[string]string `json:"metadata"`
}

func decodeSession(raw json.RawMessage) (*CompletedSession, error) {
	var w wireSession
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	s := &CompletedSession{
		ID:                w.ID,
		ClientReferenceID: w.ClientReferenceID,
		CustomerEmail:     w.CustomerEmail,
		AmountTotal:       w.AmountTotal,
		Currency:          w.Currency,
		PaymentStatus:     w.PaymentStatus,
		PaymentIntentID:   intentID(w.PaymentIntent),
		Metadata:          w.Metadata,
	}
	if s.CustomerEmail == "" && w.CustomerDetails != nil {
		s.CustomerEmail = w.CustomerDetails.Email
	}

	ship := w.ShippingDetails
	if ship == nil && w.CollectedInformation != nil {
		ship = w.CollectedInformation.ShippingDetails
	}
	if ship != nil {
		addr := ship.Address.Line1
		if ship.Address.Line2 != "" {
			addr += ", " + ship.Address.Line2
		}
		s.Shipping = models.ShippingDetails{
			Name:       ship.Name,
			Address:    addr,
			City:       ship.Address.City,
			PostalCode: ship.Address.PostalCode,
			Country:    ship.Address.Country,
		}
	}
	return s, nil
}

// intentID accepts the payment intent as an id or as an expanded object.
func intentID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
