package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/renewal"
)

// Renew handles both gateway webhooks and manual triggers. The presence of
// the verif-hash header decides which.
func (s *Server) Renew(w http.ResponseWriter, r *http.Request) {
	origin, signature := renewal.ResolveOrigin(r.Header)

	if origin == renewal.OriginManual && s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
		logger.Warn("Manual renewal rate limited", map[string]interface{}{
			"remote_addr": r.RemoteAddr,
			"request_id":  RequestIDFromContext(r.Context()),
		})
		w.Header().Set("Retry-After", retryAfter(s.limiter.RetryAfter(clientIP(r))))
		writeErrorResponse(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	payload, ok := readBody(w, r)
	if !ok {
		return
	}

	logger.Info("Renewal trigger received", map[string]interface{}{
		"origin":       origin.String(),
		"request_id":   RequestIDFromContext(r.Context()),
		"payload_size": len(payload),
	})

	out := s.Service.Process(r.Context(), renewal.Trigger{
		Origin:    origin,
		Signature: signature,
		Body:      payload,
	})
	writeJSON(w, out.Status, out.Body)
}

// retryAfter rounds wait up to whole seconds, never below one.
func retryAfter(wait time.Duration) string {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
