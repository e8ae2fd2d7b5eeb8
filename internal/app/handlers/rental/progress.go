package rental

import (
	"context"
	"time"

	"gearshare/internal/app/dto"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainrental "gearshare/internal/domain/rental"
)

const (
	startRentalKey    = "rental.start"
	completeRentalKey = "rental.complete"
)

// StartRentalCommand moves a reserved rental into progress at handover.
// Forward transition only; the calendar block is untouched.
type StartRentalCommand struct {
	RentalID    string
	RequestedBy string
}

func (c StartRentalCommand) Key() string { return startRentalKey }

// CompleteRentalCommand closes out an in-progress rental after return.
type CompleteRentalCommand struct {
	RentalID    string
	RequestedBy string
}

func (c CompleteRentalCommand) Key() string { return completeRentalKey }

type ProgressResult struct {
	Rental dto.Rental `json:"rental"`
}

// ProgressHandler serves both forward transitions; they share loading,
// authorization and event plumbing.
type ProgressHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ProgressHandler) HandleStart(ctx context.Context, cmd StartRentalCommand) (*ProgressResult, error) {
	return h.apply(ctx, cmd.RentalID, cmd.RequestedBy, false, func(rec *domainrental.Rental, now time.Time) error {
		return rec.Start(now)
	})
}

func (h *ProgressHandler) HandleComplete(ctx context.Context, cmd CompleteRentalCommand) (*ProgressResult, error) {
	// Completion frees the blocked range: only active rentals hold blocks.
	return h.apply(ctx, cmd.RentalID, cmd.RequestedBy, true, func(rec *domainrental.Rental, now time.Time) error {
		return rec.Complete(now)
	})
}

func (h *ProgressHandler) apply(ctx context.Context, rentalID, requestedBy string, releaseBlock bool, fn func(*domainrental.Rental, time.Time) error) (*ProgressResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	rec, err := unit.Rentals().ByID(ctx, domainrental.RentalID(rentalID))
	if err != nil {
		return nil, err
	}
	if requestedBy != "" && requestedBy != rec.RenterID && requestedBy != rec.OwnerID {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	if err := fn(rec, now); err != nil {
		return nil, err
	}
	if err := unit.Rentals().Save(ctx, rec); err != nil {
		return nil, err
	}

	pending := rec.PendingEvents()
	rec.ClearEvents()
	if releaseBlock {
		cal, err := unit.Calendars().Calendar(ctx, rec.ListingID)
		if err != nil {
			return nil, err
		}
		if cal.Release(string(rec.ID), now) {
			if err := unit.Calendars().Save(ctx, cal); err != nil {
				return nil, err
			}
			pending = append(pending, cal.PendingEvents()...)
			cal.ClearEvents()
		}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &ProgressResult{Rental: dto.MapRental(rec)}, nil
}

func (h *ProgressHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}
