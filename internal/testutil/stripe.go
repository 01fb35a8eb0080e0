package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
)

// SignPayload builds a Stripe-Signature header for payload as the provider would.
func SignPayload(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}

// EventPayload wraps object in a webhook event envelope of the given type.
func EventPayload(t *testing.T, eventID, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-10-16",
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": object},
	})
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return body
}

// CheckoutSessionObject returns a completed checkout session object carrying the given metadata.
func CheckoutSessionObject(sessionID string, amountTotal int64, metadata map[string]string) map[string]interface{} {
	return map[string]interface{}{
		"id":             sessionID,
		"object":         "checkout.session",
		"amount_total":   amountTotal,
		"currency":       "usd",
		"customer_email": "buyer@example.com",
		"customer_details": map[string]interface{}{
			"email": "buyer@example.com",
			"name":  "Ada Buyer",
			"phone": "+15550100",
			"address": map[string]interface{}{
				"line1":       "1 Main St",
				"city":        "Springfield",
				"postal_code": "12345",
				"country":     "US",
			},
		},
		"shipping_details": map[string]interface{}{
			"name": "Ada Buyer",
			"address": map[string]interface{}{
				"line1":       "1 Main St",
				"city":        "Springfield",
				"postal_code": "12345",
				"country":     "US",
			},
		},
		"metadata": metadata,
	}
}
