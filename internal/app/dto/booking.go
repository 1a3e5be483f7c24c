package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
)

type Booking struct {
	ID              string     `json:"id"`
	AccommodationID string     `json:"accommodation_id"`
	GuestID         string     `json:"guest_id"`
	CheckIn         time.Time  `json:"check_in"`
	CheckOut        time.Time  `json:"check_out"`
	Guests          int        `json:"guests"`
	Total           int64      `json:"total"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:              string(b.ID),
		AccommodationID: string(b.AccommodationID),
		GuestID:         b.GuestID,
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Guests:          b.Guests,
		Total:           b.Total.Amount,
		Currency:        b.Total.Currency,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		CancelledAt:     b.CancelledAt,
	}
}
