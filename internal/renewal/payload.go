package renewal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	StatusSuccessful = "successful"

	// PlanSessional is the only manual plan label that maps to a full session.
	PlanSessional = "Sessional"
)

// Renewal is the normalized view over every accepted payload shape.
type Renewal struct {
	SchoolCode string
	AmountPaid float64
	Plan       string
	Reference  string
	Origin     RequestOrigin
}

// Amount accepts a JSON number or a numeric string.
type Amount struct {
	Value float64
	Set   bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = Amount{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = Amount{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("amount %q is not a finite number", s)
		}
		*a = Amount{Value: v, Set: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("amount is not a number: %w", err)
	}
	*a = Amount{Value: v, Set: true}
	return nil
}

// GatewayPayload is the payment gateway's notification body.
type GatewayPayload struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Status string          `json:"status"`
	Amount Amount          `json:"amount"`
	TxRef  string          `json:"txRef"`
	TxRef2 string          `json:"tx_ref"`
	Meta   struct {
		SchoolCode string `json:"schoolCode"`
	} `json:"meta"`
	Data *GatewayPayload `json:"data,omitempty"`
}

func (p GatewayPayload) reference() string {
	switch {
	case p.TxRef != "":
		return p.TxRef
	case p.TxRef2 != "":
		return p.TxRef2
	default:
		return strings.Trim(string(p.ID), `"`)
	}
}

// ManualPayload is sent by the school app or an administrator.
type ManualPayload struct {
	SchoolCode string `json:"schoolCode"`
	Plan       string `json:"plan"`
	Amount     Amount `json:"amount"`
}

// Normalize resolves a request body into a Renewal according to its origin.
// Gateway notifications that are not successful return ErrIgnored.
func Normalize(origin RequestOrigin, body []byte) (Renewal, error) {
	switch origin {
	case OriginWebhook:
		return normalizeGateway(body)
	case OriginManual:
		return normalizeManual(body)
	default:
		return Renewal{}, fmt.Errorf("%w: unsupported origin %s", ErrValidation, origin)
	}
}

func normalizeGateway(body []byte) (Renewal, error) {
	var p GatewayPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Renewal{}, fmt.Errorf("%w: invalid webhook payload: %v", ErrValidation, err)
	}

	// Some gateway versions wrap the transaction in an event envelope.
	if p.Status == "" && p.Data != nil {
		p = *p.Data
	}

	if p.Status != StatusSuccessful {
		return Renewal{}, fmt.Errorf("%w: status %q", ErrIgnored, p.Status)
	}

	r := Renewal{
		SchoolCode: strings.TrimSpace(p.Meta.SchoolCode),
		AmountPaid: p.Amount.Value,
		Reference:  p.reference(),
		Origin:     OriginWebhook,
	}
	if r.SchoolCode == "" {
		return Renewal{}, fmt.Errorf("%w: schoolCode is required", ErrValidation)
	}
	return r, nil
}

func normalizeManual(body []byte) (Renewal, error) {
	var p ManualPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Renewal{}, fmt.Errorf("%w: invalid request payload: %v", ErrValidation, err)
	}

	r := Renewal{
		SchoolCode: strings.TrimSpace(p.SchoolCode),
		Plan:       p.Plan,
		Origin:     OriginManual,
	}
	if r.SchoolCode == "" {
		return Renewal{}, fmt.Errorf("%w: schoolCode is required", ErrValidation)
	}

	if p.Amount.Set {
		r.AmountPaid = p.Amount.Value
	} else {
		r.AmountPaid = PlanAmount(p.Plan)
	}
	return r, nil
}

// PlanAmount infers the amount paid for a manual plan label.
func PlanAmount(plan string) float64 {
	if plan == PlanSessional {
		return SessionalAmount
	}
	return TermlyAmount
}
