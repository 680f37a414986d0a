package reporter

import (
	"time"

	"github.com/getsentry/sentry-go"

	"schoollicense.app/renewal/internal/logger"
)

// Init configures Sentry and returns a function that flushes buffered
// events. Without a DSN the SDK stays disabled and captures are dropped.
func Init(dsn, environment, release string) (func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return func() {}, err
	}
	if dsn == "" {
		logger.Debug("Sentry DSN not set, error reporting disabled")
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err with the given tags on the current hub.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}
