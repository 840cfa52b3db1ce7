package dto

import (
	"time"

	domainbooking "alxtravel/internal/domain/booking"
	"alxtravel/internal/domain/pricing"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

type BookingDTO struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	GuestID   string    `json:"guest_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Nights    int       `json:"nights"`
	Status    string    `json:"status"`
	Nightly   MoneyDTO  `json:"nightly"`
	Total     MoneyDTO  `json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GuestBookingSummary struct {
	BookingDTO
	ListingTitle string `json:"listing_title,omitempty"`
	CanReview    bool   `json:"can_review"`
}

type GuestBookingCollection struct {
	Items []GuestBookingSummary `json:"items"`
}

type Quote struct {
	ListingID string   `json:"listing_id"`
	CheckIn   string   `json:"check_in"`
	CheckOut  string   `json:"check_out"`
	Nights    int      `json:"nights"`
	Nightly   MoneyDTO `json:"nightly"`
	Total     MoneyDTO `json:"total"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
		Display:  value.String(),
	}
}

func MapBooking(b *domainbooking.Booking) BookingDTO {
	return BookingDTO{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		CheckIn:   b.Range.CheckIn.Format(daterange.DateLayout),
		CheckOut:  b.Range.CheckOut.Format(daterange.DateLayout),
		Nights:    b.Nights,
		Status:    string(b.Status),
		Nightly:   MapMoney(b.Nightly),
		Total:     MapMoney(b.Total),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func MapQuote(listingID string, r daterange.DateRange, b pricing.Breakdown) Quote {
	return Quote{
		ListingID: listingID,
		CheckIn:   r.CheckIn.Format(daterange.DateLayout),
		CheckOut:  r.CheckOut.Format(daterange.DateLayout),
		Nights:    b.Nights,
		Nightly:   MapMoney(b.Nightly),
		Total:     MapMoney(b.Total),
	}
}
