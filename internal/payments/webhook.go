package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"cybertronic/internal/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// EventCheckoutSessionCompleted is the only event type that triggers side effects.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// ErrInvalidSignature wraps every verification failure.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event is a verified webhook delivery.
type Event struct {
	ID   string
	Type string
	// Session is set for checkout.session.completed events.
	Session *models.CompletedSession
}

// Verifier authenticates webhook deliveries with the endpoint's signing secret.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify checks the Stripe-Signature header against the raw payload and decodes the event.
func (v *Verifier) Verify(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}
	if ev.Data == nil {
		return Event{}, fmt.Errorf("event %s has no data", ev.ID)
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return Event{}, fmt.Errorf("decode checkout session of event %s: %w", ev.ID, err)
	}
	cs := ToCompletedSession(&s)
	out.Session = &cs
	return out, nil
}
