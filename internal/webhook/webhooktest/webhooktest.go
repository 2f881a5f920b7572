// Package webhooktest builds signed processor payloads for tests.
package webhooktest

import (
	"encoding/json"
	"time"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

const Secret = "whsec_test_relay_secret"

// Sign returns the signature header for payload at the current time.
func Sign(payload []byte, secret string) string {
	return SignAt(payload, secret, time.Now())
}

func SignAt(payload []byte, secret string, ts time.Time) string {
	return stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
	}).Header
}

// SessionEvent builds an event payload wrapping a checkout session object.
func SessionEvent(eventID, eventType, sessionID, paymentStatus string, metadata map[string]string) []byte {
	object := map[string]any{
		"object":   "checkout.session",
		"id":       sessionID,
		"metadata": metadata,
	}
	if paymentStatus != "" {
		object["payment_status"] = paymentStatus
	}
	return mustMarshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
}

// ObjectEvent builds an event payload for a non-session object.
func ObjectEvent(eventID, eventType, objectType, objectID string) []byte {
	return mustMarshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   eventType,
		"data": map[string]any{"object": map[string]any{
			"object": objectType,
			"id":     objectID,
		}},
	})
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
