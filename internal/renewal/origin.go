package renewal

import (
	"crypto/subtle"
	"fmt"
	"net/http"
)

// SignatureHeader is sent by the payment gateway on every webhook delivery.
const SignatureHeader = "verif-hash"

type RequestOrigin int

const (
	// OriginManual requests come from an already-authenticated internal caller.
	OriginManual RequestOrigin = iota
	OriginWebhook
	OriginStripe
)

func (o RequestOrigin) String() string {
	switch o {
	case OriginManual:
		return "manual"
	case OriginWebhook:
		return "webhook"
	case OriginStripe:
		return "stripe"
	default:
		return "unknown"
	}
}

// ResolveOrigin classifies a request by the presence of the verification
// header. A present but empty header still counts as a webhook.
func ResolveOrigin(h http.Header) (RequestOrigin, string) {
	values := h.Values(SignatureHeader)
	if len(values) == 0 {
		return OriginManual, ""
	}
	return OriginWebhook, values[0]
}

// Authorize checks a webhook's header against the shared secret. Manual
// requests are not checked. Stripe requests are verified by their own SDK.
func Authorize(origin RequestOrigin, provided, secret string) error {
	if origin != OriginWebhook {
		return nil
	}
	if secret == "" {
		return fmt.Errorf("%w: webhook secret not configured", ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		return fmt.Errorf("%w: signature mismatch", ErrUnauthorized)
	}
	return nil
}
