package booking

import "context"

// Notifier forwards manager cancellation reasons to an external channel.
// Implementations must never block the booking flow: failures are theirs to
// log and swallow.
type Notifier interface {
	Notify(ctx context.Context, bookingID, owner, reason string)
}

// NopNotifier discards notifications. Used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, bookingID, owner, reason string) {}
