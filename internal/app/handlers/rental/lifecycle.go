package rental

import (
	"context"
	"time"

	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainrental "gearshare/internal/domain/rental"
)

// Confirm moves a pending rental to reserved. The calendar block applied at
// reserve time is left in place; payment approval only changes status.
func Confirm(ctx context.Context, unit uow.UnitOfWork, rec *domainrental.Rental, now time.Time) error {
	if err := rec.Confirm(now); err != nil {
		return err
	}
	return unit.Rentals().Save(ctx, rec)
}

// Release cancels the rental and frees its blocked range in the same unit
// of work, keeping the block/rental invariant: cancelled rentals never hold
// a block. Releasing an already-cancelled rental is a no-op.
func Release(ctx context.Context, unit uow.UnitOfWork, rec *domainrental.Rental, reason string, now time.Time) (*domainavailability.BlockCalendar, error) {
	if rec.Status == domainrental.StatusCancelled {
		return nil, nil
	}
	if err := rec.Cancel(reason, now); err != nil {
		return nil, err
	}
	cal, err := unit.Calendars().Calendar(ctx, rec.ListingID)
	if err != nil {
		return nil, err
	}
	if cal.Release(string(rec.ID), now) {
		if err := unit.Calendars().Save(ctx, cal); err != nil {
			return nil, err
		}
	}
	if err := unit.Rentals().Save(ctx, rec); err != nil {
		return nil, err
	}
	return cal, nil
}
