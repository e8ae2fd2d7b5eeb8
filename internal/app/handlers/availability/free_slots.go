package availability

import (
	"context"
	"time"

	"gearshare/internal/app/dto"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/daterange"
)

const freeSlotsKey = "availability.free_slots"

type FreeSlotsQuery struct {
	ListingID string
	Date      time.Time
}

func (q FreeSlotsQuery) Key() string { return freeSlotsKey }

type FreeSlotsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *FreeSlotsHandler) Handle(ctx context.Context, q FreeSlotsQuery) (dto.SlotList, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.SlotList{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.SlotList{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	item, err := unit.Listings().ByID(ctx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.SlotList{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, item.ID)
	if err != nil {
		return dto.SlotList{}, err
	}
	day := daterange.DateOf(q.Date)
	slots := domainavailability.FreeSlots(item, cal, day, time.Now())
	return dto.MapSlots(q.ListingID, day, slots), nil
}

var _ queries.Handler[FreeSlotsQuery, dto.SlotList] = (*FreeSlotsHandler)(nil)
