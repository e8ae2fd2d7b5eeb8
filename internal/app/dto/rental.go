package dto

import (
	"time"

	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type Rental struct {
	ID                string    `json:"id"`
	ListingID         string    `json:"listing_id"`
	RenterID          string    `json:"renter_id"`
	OwnerID           string    `json:"owner_id"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	StartTime         string    `json:"start_time,omitempty"`
	EndTime           string    `json:"end_time,omitempty"`
	TotalPrice        MoneyDTO  `json:"total_price"`
	ReservationAmount MoneyDTO  `json:"reservation_amount"`
	ReservationFee    MoneyDTO  `json:"reservation_fee"`
	Status            string    `json:"status"`
	PaymentRef        string    `json:"payment_ref,omitempty"`
	CheckoutURL       string    `json:"checkout_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func MapRental(r *domainrental.Rental) Rental {
	out := Rental{
		ID:                string(r.ID),
		ListingID:         string(r.ListingID),
		RenterID:          r.RenterID,
		OwnerID:           r.OwnerID,
		StartDate:         r.Window.Dates.Start,
		EndDate:           r.Window.Dates.End,
		TotalPrice:        MapMoney(r.TotalPrice),
		ReservationAmount: MapMoney(r.ReservationAmount),
		ReservationFee:    MapMoney(r.ReservationFee),
		Status:            string(r.Status),
		PaymentRef:        r.PaymentRef,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.Window.Hourly() {
		out.StartTime = r.Window.Times.Start.String()
		out.EndTime = r.Window.Times.End.String()
	}
	return out
}
