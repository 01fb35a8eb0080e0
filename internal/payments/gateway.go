package payments

import (
	"context"
	"fmt"

	"cybertronic/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var hundred = decimal.NewFromInt(100)

// Options fixes the parts of every checkout session that do not depend on the cart.
type Options struct {
	Currency         string
	AllowedCountries []string
	SuccessURL       string
	CancelURL        string
}

// SessionRequest is one checkout attempt.
type SessionRequest struct {
	Items         []models.CartItem
	CustomerEmail string
}

// Gateway talks to Stripe through a client owned by this value rather than the package-level key.
type Gateway struct {
	api  *client.API
	opts Options
}

// NewGateway creates a Gateway authenticated with secretKey.
func NewGateway(secretKey string, opts Options) *Gateway {
	return &Gateway{
		api:  client.New(secretKey, nil),
		opts: opts,
	}
}

// CreateCheckoutSession creates a hosted checkout session and returns its id.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error) {
	params, err := BuildSessionParams(g.opts, req)
	if err != nil {
		return "", err
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.ID, nil
}

// ExpandedSession fetches a session with its line items, which webhook payloads omit.
func (g *Gateway) ExpandedSession(ctx context.Context, id string) (*models.CompletedSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	s, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", id, err)
	}
	cs := ToCompletedSession(s)
	return &cs, nil
}

// UnitAmount converts a decimal price to currency minor units, rounding half away from zero.
func UnitAmount(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// BuildSessionParams translates a cart into Stripe checkout session parameters.
func BuildSessionParams(opts Options, req SessionRequest) (*stripe.CheckoutSessionParams, error) {
	lines := make([]models.CartLine, 0, len(req.Items))
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(item.Name),
			Description: stripe.String(fmt.Sprintf("Size: %s, Color: %s", item.Size, item.Color)),
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(opts.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(UnitAmount(item.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
		lines = append(lines, item.Line())
	}

	meta, err := EncodeCart(lines)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(opts.SuccessURL),
		CancelURL:                stripe.String(opts.CancelURL),
		BillingAddressCollection: stripe.String("required"),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(opts.AllowedCountries),
		},
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
		AutomaticTax: &stripe.CheckoutSessionAutomaticTaxParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	return params, nil
}

// ToCompletedSession copies the fields the service relies on out of a Stripe session.
func ToCompletedSession(s *stripe.CheckoutSession) models.CompletedSession {
	cs := models.CompletedSession{
		ID:            s.ID,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if d := s.CustomerDetails; d != nil {
		if d.Email != "" {
			cs.CustomerEmail = d.Email
		}
		cs.CustomerName = d.Name
		cs.CustomerPhone = d.Phone
		cs.BillingAddress = toAddress(d.Name, d.Address)
	}
	if sd := s.ShippingDetails; sd != nil {
		cs.ShippingAddress = toAddress(sd.Name, sd.Address)
	}
	if s.LineItems != nil {
		for _, li := range s.LineItems.Data {
			cs.LineItems = append(cs.LineItems, models.SessionLineItem{
				Description: li.Description,
				Quantity:    li.Quantity,
				AmountTotal: li.AmountTotal,
			})
		}
	}
	return cs
}

func toAddress(name string, a *stripe.Address) models.Address {
	if a == nil {
		return models.Address{Name: name}
	}
	return models.Address{
		Name:       name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
