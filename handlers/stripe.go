package handlers

import (
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82/webhook"

	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/renewal"
)

// Stripe renews licenses paid through Stripe Checkout.
func (s *Server) Stripe(w http.ResponseWriter, r *http.Request) {
	logger.Info("Stripe webhook received", map[string]interface{}{
		"remote_addr": r.RemoteAddr,
		"user_agent":  r.Header.Get("User-Agent"),
		"request_id":  RequestIDFromContext(r.Context()),
	})

	endpointSecret := s.Config.StripeWebhookSecret
	if endpointSecret == "" {
		logger.Error("STRIPE_WEBHOOK_SECRET environment variable not set")
		writeErrorResponse(w, http.StatusServiceUnavailable, "Stripe webhooks are not configured")
		return
	}

	payload, ok := readBody(w, r)
	if !ok {
		return
	}

	signatureHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(signatureHeader) == "" {
		writeJSON(w, http.StatusUnauthorized, renewal.Response{Error: "Missing Stripe signature"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, endpointSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		logger.Warn("Webhook signature verification failed", map[string]interface{}{
			"error":     err.Error(),
			"signature": signatureHeader,
		})
		writeJSON(w, http.StatusUnauthorized, renewal.Response{Error: "Invalid Stripe signature"})
		return
	}

	logger.Info("Stripe event verified", map[string]interface{}{
		"event_type": event.Type,
		"event_id":   event.ID,
	})

	out := s.Service.ProcessStripeEvent(r.Context(), event)
	writeJSON(w, out.Status, out.Body)
}
