package mongo

import (
	"time"

	domainavailability "gearshare/internal/domain/availability"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/shared/timewindow"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

// windowDocument flattens the two-level window: dates as UTC-midnight
// millis, the optional time interval as minutes since midnight.
type windowDocument struct {
	StartDate int64 `bson:"start_date"`
	EndDate   int64 `bson:"end_date"`
	HasTime   bool  `bson:"has_time"`
	StartMin  int   `bson:"start_min,omitempty"`
	EndMin    int   `bson:"end_min,omitempty"`
}

func newWindowDocument(w domainavailability.Window) windowDocument {
	doc := windowDocument{
		StartDate: w.Dates.Start.UnixMilli(),
		EndDate:   w.Dates.End.UnixMilli(),
	}
	if w.Times != nil {
		doc.HasTime = true
		doc.StartMin = int(w.Times.Start)
		doc.EndMin = int(w.Times.End)
	}
	return doc
}

func (d windowDocument) toWindow() domainavailability.Window {
	w := domainavailability.Window{
		Dates: daterange.DateRange{
			Start: timestampToTime(d.StartDate),
			End:   timestampToTime(d.EndDate),
		},
	}
	if d.HasTime {
		w.Times = &timewindow.TimeRange{
			Start: timewindow.TimeOfDay(d.StartMin),
			End:   timewindow.TimeOfDay(d.EndMin),
		}
	}
	return w
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
