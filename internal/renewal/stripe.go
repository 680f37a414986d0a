package renewal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

// MetadataSchoolCode is the Checkout Session metadata key carrying the school.
const MetadataSchoolCode = "schoolCode"

// NormalizeStripeEvent turns a verified Stripe event into a Renewal. Only
// paid checkout.session.completed events renew; everything else is ignored.
func NormalizeStripeEvent(event stripe.Event) (Renewal, error) {
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return Renewal{}, fmt.Errorf("%w: event type %s", ErrIgnored, event.Type)
	}
	if event.Data == nil {
		return Renewal{}, fmt.Errorf("%w: event %s has no data", ErrValidation, event.ID)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return Renewal{}, fmt.Errorf("%w: error unmarshaling into CheckoutSession: %v", ErrValidation, err)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return Renewal{}, fmt.Errorf("%w: payment status %q", ErrIgnored, session.PaymentStatus)
	}

	r := Renewal{
		SchoolCode: strings.TrimSpace(session.Metadata[MetadataSchoolCode]),
		// Stripe amounts are in the currency's minor unit.
		AmountPaid: float64(session.AmountTotal) / 100,
		Plan:       session.Metadata["plan"],
		Reference:  session.ID,
		Origin:     OriginStripe,
	}
	if r.SchoolCode == "" {
		return Renewal{}, fmt.Errorf("%w: schoolCode metadata is required", ErrValidation)
	}
	return r, nil
}
