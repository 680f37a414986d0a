package reporter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions)           {}
func (t *recordingTransport) SendEvent(event *sentry.Event)             { t.events = append(t.events, event) }
func (t *recordingTransport) Flush(timeout time.Duration) bool          { return true }
func (t *recordingTransport) FlushWithContext(ctx context.Context) bool { return true }
func (t *recordingTransport) Close()                                    {}

func TestInitWithoutDSN(t *testing.T) {
	flush, err := Init("", "test", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, flush)
	flush()

	// Captures are dropped silently.
	CaptureError(errors.New("boom"), map[string]string{"origin": "manual"})
}

func TestCaptureErrorTags(t *testing.T) {
	transport := &recordingTransport{}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sentry.Init(sentry.ClientOptions{}) })

	CaptureError(errors.New("store unavailable"), map[string]string{"origin": "webhook", "school_code": "SCH001"})
	CaptureError(nil, nil)

	require.Len(t, transport.events, 1)
	assert.Equal(t, "webhook", transport.events[0].Tags["origin"])
	assert.Equal(t, "SCH001", transport.events[0].Tags["school_code"])
}
