// Package queue defines the payment events exchanged over the message
// broker and the background consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/ticketbari-web/internal/model"
)

// BookingPaidQueue is the durable queue payment events are published to.
const BookingPaidQueue = "booking.paid"

// BookingPaidEvent is published once the backend has confirmed a payment.
// It carries enough for downstream consumers to log or notify without
// calling the backend again.
type BookingPaidEvent struct {
	BookingID   string       `json:"booking_id"`
	TicketID    string       `json:"ticket_id"`
	TicketTitle string       `json:"ticket_title"`
	From        string       `json:"from,omitempty"`
	To          string       `json:"to,omitempty"`
	DepartureAt string       `json:"departure_at,omitempty"`
	UserEmail   string       `json:"user_email"`
	Quantity    int          `json:"quantity"`
	TotalAmount model.Amount `json:"total_amount"`
	Currency    string       `json:"currency"`
	PaidAt      string       `json:"paid_at"`
}

// NewBookingPaidEvent builds the event for a booking that was just paid.
func NewBookingPaidEvent(b model.Booking, currency string, paidAt time.Time) BookingPaidEvent {
	ev := BookingPaidEvent{
		BookingID:   b.ID,
		TicketID:    b.TicketID,
		TicketTitle: b.TicketTitle,
		UserEmail:   b.UserEmail,
		Quantity:    b.Quantity,
		TotalAmount: b.TotalPrice,
		Currency:    currency,
		PaidAt:      paidAt.UTC().Format(time.RFC3339),
	}
	if t := b.Ticket; t != nil {
		ev.From, ev.To = t.From, t.To
		if ev.TicketTitle == "" {
			ev.TicketTitle = t.Title
		}
		if !t.DepartureAt.IsZero() {
			ev.DepartureAt = t.DepartureAt.UTC().Format(time.RFC3339)
		}
	}
	return ev
}
