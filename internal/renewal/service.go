package renewal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"

	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/metrics"
	"schoollicense.app/renewal/internal/notify"
	"schoollicense.app/renewal/internal/reporter"
	"schoollicense.app/renewal/models"
	"schoollicense.app/renewal/storage"
)

// Trigger is one inbound renewal request, independent of transport.
type Trigger struct {
	Origin    RequestOrigin
	Signature string
	Body      []byte
}

type Response struct {
	Success       bool       `json:"success"`
	Message       string     `json:"message,omitempty"`
	SchoolCode    string     `json:"schoolCode,omitempty"`
	Plan          string     `json:"plan,omitempty"`
	NewExpiryDate *time.Time `json:"newExpiryDate,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Outcome is the HTTP status and JSON body a transport should return.
type Outcome struct {
	Status int
	Body   Response
}

type Result struct {
	LicenseID      string
	SchoolCode     string
	Tier           PlanTier
	PreviousExpiry time.Time
	NewExpiry      time.Time
}

// DefaultNotifyTimeout bounds how long a renewal waits on its notifiers.
const DefaultNotifyTimeout = 5 * time.Second

type Service struct {
	store         storage.Store
	secret        string
	now           func() time.Time
	notifier      notify.Notifier
	notifyTimeout time.Duration
	report        func(err error, tags map[string]string)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSecret sets the shared secret gateway webhooks must present.
func WithSecret(secret string) Option {
	return func(s *Service) { s.secret = secret }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

func WithReporter(report func(err error, tags map[string]string)) Option {
	return func(s *Service) { s.report = report }
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		now:           time.Now,
		notifier:      notify.Nop{},
		notifyTimeout: DefaultNotifyTimeout,
		report:        reporter.CaptureError,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process authorizes, normalizes and applies a gateway or manual trigger.
func (s *Service) Process(ctx context.Context, t Trigger) Outcome {
	return s.run(ctx, t.Origin, func() (Renewal, error) {
		if err := Authorize(t.Origin, t.Signature, s.secret); err != nil {
			return Renewal{}, err
		}
		return Normalize(t.Origin, t.Body)
	})
}

// ProcessStripeEvent applies an event whose signature the caller has
// already verified.
func (s *Service) ProcessStripeEvent(ctx context.Context, event stripe.Event) Outcome {
	return s.run(ctx, OriginStripe, func() (Renewal, error) {
		return NormalizeStripeEvent(event)
	})
}

func (s *Service) run(ctx context.Context, origin RequestOrigin, resolve func() (Renewal, error)) Outcome {
	start := time.Now()

	r, err := resolve()
	var result Result
	if err == nil {
		result, err = s.Renew(ctx, r)
	}

	outcome := newOutcome(r, result, err)
	s.observe(origin, r, err, outcome.Status)

	metrics.RequestsTotal.WithLabelValues(origin.String(), strconv.Itoa(outcome.Status)).Inc()
	metrics.Duration.WithLabelValues(origin.String()).Observe(time.Since(start).Seconds())
	return outcome
}

// Renew extends the license for r.SchoolCode and marks it active.
//
// The lookup and the write are separate store calls with no version check,
// so two concurrent renewals for one school can lose an extension. Renewals
// are not deduplicated: the same payment delivered twice extends twice.
func (s *Service) Renew(ctx context.Context, r Renewal) (Result, error) {
	license, err := s.store.FindBySchoolCode(ctx, r.SchoolCode)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to find license: %w", ErrInternal, err)
	}
	if license == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, r.SchoolCode)
	}

	now := s.now().UTC()
	tier := ClassifyTier(r.AmountPaid)
	newExpiry := ComputeNewExpiry(license.ExpiryDate, now, r.AmountPaid)

	update := models.LicenseUpdate{ExpiryDate: newExpiry, IsActive: true}
	if err := s.store.UpdateLicense(ctx, license.ID, update); err != nil {
		return Result{}, fmt.Errorf("%w: failed to update license: %w", ErrInternal, err)
	}

	metrics.ExtensionsTotal.WithLabelValues(tier.String()).Inc()
	logger.Info("License renewed", map[string]interface{}{
		"school_code":     r.SchoolCode,
		"license_id":      license.ID,
		"origin":          r.Origin.String(),
		"tier":            tier.String(),
		"amount_paid":     r.AmountPaid,
		"previous_expiry": license.ExpiryDate,
		"new_expiry":      newExpiry,
		"reference":       r.Reference,
	})

	notice := notify.Notice{
		SchoolCode:   license.SchoolCode,
		SchoolName:   license.SchoolName,
		ContactEmail: license.ContactEmail,
		Plan:         tier.String(),
		AmountPaid:   r.AmountPaid,
		NewExpiry:    newExpiry,
		Origin:       r.Origin.String(),
		Reference:    r.Reference,
	}
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, notice); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("renewal").Inc()
		logger.Warn("Failed to send renewal notification", map[string]interface{}{
			"school_code": r.SchoolCode,
			"error":       err.Error(),
		})
	}

	return Result{
		LicenseID:      license.ID,
		SchoolCode:     license.SchoolCode,
		Tier:           tier,
		PreviousExpiry: license.ExpiryDate,
		NewExpiry:      newExpiry,
	}, nil
}

func (s *Service) observe(origin RequestOrigin, r Renewal, err error, status int) {
	fields := map[string]interface{}{
		"origin":      origin.String(),
		"school_code": r.SchoolCode,
		"status":      status,
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrIgnored):
		logger.Info("Renewal trigger ignored", fields)
	case status >= 500:
		logger.Error("Renewal failed", fields)
		s.report(err, map[string]string{
			"origin":      origin.String(),
			"school_code": r.SchoolCode,
		})
	default:
		logger.Warn("Renewal rejected", fields)
	}
}

func newOutcome(r Renewal, result Result, err error) Outcome {
	status := StatusCode(err)

	switch {
	case err == nil:
		expiry := result.NewExpiry
		return Outcome{Status: status, Body: Response{
			Success:       true,
			Message:       "License renewed",
			SchoolCode:    result.SchoolCode,
			Plan:          result.Tier.String(),
			NewExpiryDate: &expiry,
		}}
	case errors.Is(err, ErrIgnored):
		return Outcome{Status: status, Body: Response{
			Success: true,
			Message: "Transaction ignored: " + err.Error(),
		}}
	case errors.Is(err, ErrUnauthorized):
		return Outcome{Status: status, Body: Response{Error: "Unauthorized"}}
	case errors.Is(err, ErrValidation):
		return Outcome{Status: status, Body: Response{Error: err.Error()}}
	case errors.Is(err, ErrNotFound):
		return Outcome{Status: status, Body: Response{
			SchoolCode: r.SchoolCode,
			Error:      "School not found",
		}}
	default:
		return Outcome{Status: status, Body: Response{Error: "Internal server error"}}
	}
}
