package rental

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainrental "gearshare/internal/domain/rental"
)

const cancelRentalKey = "rental.cancel"

type CancelRentalCommand struct {
	RentalID string
	// RequestedBy is empty for system-initiated cancellations (timeout
	// sweeper, payment rejection).
	RequestedBy string
	Reason      string
}

func (c CancelRentalCommand) Key() string { return cancelRentalKey }

type CancelRentalResult struct {
	Rental dto.Rental `json:"rental"`
}

type CancelRentalHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelRentalHandler) Handle(ctx context.Context, cmd CancelRentalCommand) (*CancelRentalResult, error) {
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

	rec, err := unit.Rentals().ByID(ctx, domainrental.RentalID(cmd.RentalID))
	if err != nil {
		return nil, err
	}
	if cmd.RequestedBy != "" && cmd.RequestedBy != rec.RenterID && cmd.RequestedBy != rec.OwnerID {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	cal, err := Release(ctx, unit, rec, cmd.Reason, now)
	if err != nil {
		return nil, err
	}

	pending := rec.PendingEvents()
	rec.ClearEvents()
	if cal != nil {
		pending = append(pending, cal.PendingEvents()...)
		cal.ClearEvents()
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
	return &CancelRentalResult{Rental: dto.MapRental(rec)}, nil
}

func (h *CancelRentalHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelRentalCommand, *CancelRentalResult] = (*CancelRentalHandler)(nil)
