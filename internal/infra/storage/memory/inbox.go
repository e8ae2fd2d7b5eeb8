package memory

import (
	"context"
	"sync"

	"gearshare/internal/app/policies"
)

// Inbox deduplicates deliveries by (consumer, event id) in memory.
type Inbox struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInbox() *Inbox {
	return &Inbox{seen: make(map[string]struct{})}
}

func (i *Inbox) Seen(ctx context.Context, consumer, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := consumer + ":" + eventID
	if _, ok := i.seen[key]; ok {
		return true, nil
	}
	i.seen[key] = struct{}{}
	return false, nil
}

func (i *Inbox) Forget(ctx context.Context, consumer, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.seen, consumer+":"+eventID)
	return nil
}

var _ policies.InboxPort = (*Inbox)(nil)
