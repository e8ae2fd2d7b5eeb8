package availability

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/events"
)

var (
	ErrWindowBlocked = errors.New("availability: window overlaps with an existing block")
	// ErrStaleCalendar is returned by repositories when a version-checked
	// save loses against a concurrent writer.
	ErrStaleCalendar = errors.New("availability: calendar modified concurrently")
)

// BlockedRange ties a reserved span back to the rental that claims it.
// Blocks are mutated only through the calendar aggregate; no caller ever
// read-modify-writes the slice itself.
type BlockedRange struct {
	Window    Window
	RentalID  string
	CreatedAt time.Time
}

// BlockCalendar is the authoritative block set for one listing. The version
// counter drives optimistic concurrency at the storage boundary: reserve is
// check-then-append under a version-filtered write, so two racing
// reservations can never both land.
type BlockCalendar struct {
	ListingID listing.ListingID
	Blocks    []BlockedRange
	Version   int64
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, id listing.ListingID) (*BlockCalendar, error)
	Save(ctx context.Context, cal *BlockCalendar) error
}

func NewCalendar(id listing.ListingID) *BlockCalendar {
	return &BlockCalendar{ListingID: id}
}

// FirstConflict returns the earliest-appended block overlapping the window.
func (c *BlockCalendar) FirstConflict(w Window) (BlockedRange, bool) {
	for _, block := range c.Blocks {
		if block.Window.Overlaps(w) {
			return block, true
		}
	}
	return BlockedRange{}, false
}

// Reserve appends a block for the rental after re-validating against the
// current block set. Callers persist with a version check and retry on a
// concurrent-update error.
func (c *BlockCalendar) Reserve(w Window, rentalID string, now time.Time) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if block, ok := c.FirstConflict(w); ok {
		c.Record(OverbookingPrevented{ListingID: c.ListingID, RentalID: rentalID, ConflictRef: block.RentalID, At: now.UTC()})
		return ErrWindowBlocked
	}
	c.Blocks = append(c.Blocks, BlockedRange{Window: w, RentalID: rentalID, CreatedAt: now.UTC()})
	c.Record(WindowBlocked{ListingID: c.ListingID, RentalID: rentalID, Window: w, At: now.UTC()})
	return nil
}

// Release removes the rental's block. Releasing an already-released rental
// is a no-op so cancellation retries stay safe.
func (c *BlockCalendar) Release(rentalID string, now time.Time) bool {
	for i, block := range c.Blocks {
		if block.RentalID == rentalID {
			c.Blocks = append(c.Blocks[:i], c.Blocks[i+1:]...)
			c.Record(WindowReleased{ListingID: c.ListingID, RentalID: rentalID, Window: block.Window, At: now.UTC()})
			return true
		}
	}
	return false
}

// BlockFor looks up the block claimed by a rental.
func (c *BlockCalendar) BlockFor(rentalID string) (BlockedRange, bool) {
	for _, block := range c.Blocks {
		if block.RentalID == rentalID {
			return block, true
		}
	}
	return BlockedRange{}, false
}
