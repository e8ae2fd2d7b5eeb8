package policies

import "context"

// InboxPort deduplicates inbound gateway deliveries per consumer. Seen
// atomically marks the event and reports whether it had been recorded
// before, so exactly one delivery per (consumer, event) gets processed.
// Forget compensates a mark whose processing failed, keeping the retry
// from being swallowed as a duplicate.
type InboxPort interface {
	Seen(ctx context.Context, consumer, eventID string) (bool, error)
	Forget(ctx context.Context, consumer, eventID string) error
}
