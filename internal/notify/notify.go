package notify

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Notice describes a completed renewal.
type Notice struct {
	SchoolCode   string
	SchoolName   string
	ContactEmail string
	Plan         string
	AmountPaid   float64
	NewExpiry    time.Time
	Origin       string
	Reference    string
}

func (n Notice) displayName() string {
	if n.SchoolName != "" {
		return n.SchoolName
	}
	return n.SchoolCode
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var result *multierror.Error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// withContext runs fn and returns early with ctx.Err() when ctx is done
// first. fn keeps running in the background in that case.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errc := make(chan error, 1)
	go func() { errc <- fn() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop discards notices.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) error { return nil }
