package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/events"
)

// ListingRepository is an in-memory implementation for demo and test use.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlisting.ListingID]*domainlisting.Listing
}

// NewListingRepository builds an empty repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlisting.ListingID]*domainlisting.Listing),
	}
}

// ByID returns a listing or listing.ErrNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domainlisting.ErrNotFound
	}
	return item, nil
}

// Save stores/updates a listing entry.
func (r *ListingRepository) Save(ctx context.Context, item *domainlisting.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.Version++
	r.items[item.ID] = item
	return nil
}

// CalendarRepository keeps block calendars in memory with the same
// optimistic-concurrency contract as the durable store: readers get a
// snapshot, and Save compares the snapshot version against the stored one.
// Two goroutines racing on the same calendar cannot both win.
type CalendarRepository struct {
	mu        sync.Mutex
	calendars map[domainlisting.ListingID]*domainavailability.BlockCalendar
}

// NewCalendarRepository returns a repository with no blocks.
func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{
		calendars: make(map[domainlisting.ListingID]*domainavailability.BlockCalendar),
	}
}

// Calendar retrieves a calendar snapshot, lazily creating an empty one.
func (r *CalendarRepository) Calendar(ctx context.Context, id domainlisting.ListingID) (*domainavailability.BlockCalendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.calendars[id]
	if !ok {
		stored = domainavailability.NewCalendar(id)
		r.calendars[id] = stored
	}
	return copyCalendar(stored), nil
}

// Save persists the snapshot if its version still matches the stored one.
func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.BlockCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current int64
	if stored, ok := r.calendars[cal.ListingID]; ok {
		current = stored.Version
	}
	if cal.Version != current {
		return domainavailability.ErrStaleCalendar
	}
	next := copyCalendar(cal)
	next.Version = current + 1
	r.calendars[cal.ListingID] = next
	cal.Version = next.Version
	return nil
}

func copyCalendar(cal *domainavailability.BlockCalendar) *domainavailability.BlockCalendar {
	out := &domainavailability.BlockCalendar{
		ListingID: cal.ListingID,
		Blocks:    append([]domainavailability.BlockedRange(nil), cal.Blocks...),
		Version:   cal.Version,
	}
	out.EventRecorder = events.EventRecorder{}
	return out
}

// RentalRepository stores rental snapshots in memory.
type RentalRepository struct {
	mu    sync.RWMutex
	items map[domainrental.RentalID]*domainrental.Rental
}

// NewRentalRepository builds an empty rental repo.
func NewRentalRepository() *RentalRepository {
	return &RentalRepository{items: make(map[domainrental.RentalID]*domainrental.Rental)}
}

// ByID fetches a snapshot of the rental.
func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[id]
	if !ok {
		return nil, domainrental.ErrNotFound
	}
	return copyRental(rec), nil
}

// Save stores the current rental state.
func (r *RentalRepository) Save(ctx context.Context, rec *domainrental.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Version++
	r.items[rec.ID] = copyRental(rec)
	return nil
}

func (r *RentalRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(renterID)
	matches := make([]*domainrental.Rental, 0)
	for _, rec := range r.items {
		if rec.RenterID == id {
			matches = append(matches, copyRental(rec))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// ListPendingBefore returns pending reservations created before the cutoff,
// oldest first, for the timeout sweeper.
func (r *RentalRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainrental.Rental, 0)
	for _, rec := range r.items {
		if rec.Status == domainrental.StatusPendingReservation && rec.CreatedAt.Before(cutoff) {
			matches = append(matches, copyRental(rec))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func copyRental(rec *domainrental.Rental) *domainrental.Rental {
	out := *rec
	out.EventRecorder = events.EventRecorder{}
	if rec.Window.Times != nil {
		times := *rec.Window.Times
		out.Window.Times = &times
	}
	return &out
}
