package notifier

import (
	"context"
	"errors"
	"time"

	"adhan-manager/internal/domain"
)

// NoopNotifier implements domain.AdhanNotifier with no-op behavior.
// Useful for testing or for running the HTTP API alone.
type NoopNotifier struct{}

// NewNoopNotifier creates a new no-op notifier.
func NewNoopNotifier() domain.AdhanNotifier {
	return &NoopNotifier{}
}

// Notify does nothing and always succeeds.
func (n *NoopNotifier) Notify(context.Context, domain.Prayer, time.Time) error {
	return nil
}

// Multi fans a notification out to several notifiers.
type Multi []domain.AdhanNotifier

// Notify calls every notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, prayer domain.Prayer, at time.Time) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, prayer, at); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
