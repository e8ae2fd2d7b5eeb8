package availability

import (
	"context"

	"gearshare/internal/app/dto"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainlisting "gearshare/internal/domain/listing"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	ListingID string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.Calendar{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.Calendar{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	item, err := unit.Listings().ByID(ctx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.Calendar{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, item.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(item, cal), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
