package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainlisting "gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/shared/timewindow"
)

const createListingKey = "listing.create"

// ScheduleDayInput is the wire-level weekly schedule entry; slot bounds are
// HH:MM strings.
type ScheduleDayInput struct {
	Enabled bool
	Slots   [][2]string
}

type CreateListingCommand struct {
	CommandID      string
	OwnerID        string
	Title          string
	PriceType      string
	PricePerDay    int64
	PricePerHour   int64
	Currency       string
	DepositPercent int64
	Schedule       map[string]ScheduleDayInput
}

func (c CreateListingCommand) Key() string { return createListingKey }

type CreateListingResult struct {
	ListingID string `json:"listing_id"`
}

type CreateListingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
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

	currency := cmd.Currency
	if currency == "" {
		currency = "USD"
	}
	perDay, err := money.New(cmd.PricePerDay, currency)
	if err != nil {
		return nil, err
	}
	perHour, err := money.New(cmd.PricePerHour, currency)
	if err != nil {
		return nil, err
	}
	schedule, err := buildSchedule(cmd.Schedule)
	if err != nil {
		return nil, err
	}
	depositPercent := cmd.DepositPercent
	if depositPercent == 0 {
		depositPercent = 20
	}

	item, err := domainlisting.NewListing(domainlisting.CreateParams{
		ID:             domainlisting.ListingID(cmd.CommandID),
		OwnerID:        cmd.OwnerID,
		Title:          cmd.Title,
		PriceType:      domainlisting.PriceType(cmd.PriceType),
		PricePerDay:    perDay,
		PricePerHour:   perHour,
		DepositPercent: depositPercent,
		Schedule:       schedule,
		Now:            time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, item); err != nil {
		return nil, err
	}

	pending := item.PendingEvents()
	item.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CreateListingResult{ListingID: string(item.ID)}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func buildSchedule(input map[string]ScheduleDayInput) (domainlisting.WeeklySchedule, error) {
	if len(input) == 0 {
		return nil, nil
	}
	schedule := domainlisting.NewWeeklySchedule()
	for name, day := range input {
		weekday, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("listing: unknown weekday %q", name)
		}
		mapped := domainlisting.DaySchedule{Enabled: day.Enabled}
		for _, slot := range day.Slots {
			tr, err := timewindow.ParseRange(slot[0], slot[1])
			if err != nil {
				return nil, err
			}
			mapped.Slots = append(mapped.Slots, tr)
		}
		schedule[weekday] = mapped
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (h *CreateListingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateListingCommand, *CreateListingResult] = (*CreateListingHandler)(nil)
