package renewal

import (
	"encoding/json"
	"testing"

	"github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutEvent(t *testing.T, eventType stripe.EventType, session map[string]interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return stripe.Event{
		ID:   "evt_test",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestNormalizeStripeEvent(t *testing.T) {
	event := checkoutEvent(t, stripe.EventTypeCheckoutSessionCompleted, map[string]interface{}{
		"id":             "cs_test_123",
		"object":         "checkout.session",
		"payment_status": "paid",
		"amount_total":   5000000,
		"metadata":       map[string]string{"schoolCode": "SCH001", "plan": "Sessional"},
	})

	r, err := NormalizeStripeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, Renewal{
		SchoolCode: "SCH001",
		AmountPaid: 50000,
		Plan:       "Sessional",
		Reference:  "cs_test_123",
		Origin:     OriginStripe,
	}, r)
}

func TestNormalizeStripeEventErrors(t *testing.T) {
	tests := []struct {
		name      string
		event     stripe.Event
		expectErr error
	}{
		{
			name: "other event types are ignored",
			event: checkoutEvent(t, stripe.EventTypeCustomerSubscriptionDeleted, map[string]interface{}{
				"id": "sub_123",
			}),
			expectErr: ErrIgnored,
		},
		{
			name: "unpaid sessions are ignored",
			event: checkoutEvent(t, stripe.EventTypeCheckoutSessionCompleted, map[string]interface{}{
				"id":             "cs_test_123",
				"payment_status": "unpaid",
				"metadata":       map[string]string{"schoolCode": "SCH001"},
			}),
			expectErr: ErrIgnored,
		},
		{
			name: "missing school code metadata",
			event: checkoutEvent(t, stripe.EventTypeCheckoutSessionCompleted, map[string]interface{}{
				"id":             "cs_test_123",
				"payment_status": "paid",
				"amount_total":   100,
			}),
			expectErr: ErrValidation,
		},
		{
			name:      "missing data",
			event:     stripe.Event{ID: "evt_test", Type: stripe.EventTypeCheckoutSessionCompleted},
			expectErr: ErrValidation,
		},
		{
			name: "malformed data",
			event: stripe.Event{
				ID:   "evt_test",
				Type: stripe.EventTypeCheckoutSessionCompleted,
				Data: &stripe.EventData{Raw: json.RawMessage(`[1,2,3]`)},
			},
			expectErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeStripeEvent(tt.event)
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}
}
