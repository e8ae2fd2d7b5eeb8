package memory

import (
	"context"
	"sync"

	"gearshare/internal/app/policies"
)

// AuditLog appends gateway payloads to an in-memory slice.
type AuditLog struct {
	mu      sync.Mutex
	entries []policies.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (a *AuditLog) Append(ctx context.Context, entry policies.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

// Entries snapshots the recorded audit rows.
func (a *AuditLog) Entries() []policies.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]policies.AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

var _ policies.AuditPort = (*AuditLog)(nil)
