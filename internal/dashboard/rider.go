package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/ticketbari-web/internal/booking"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// ErrBookingNotFound is returned when a booking id is not among the
// rider's bookings.
var ErrBookingNotFound = errors.New("dashboard: booking not found")

// RiderBackend is the backend surface of the rider dashboard.
type RiderBackend interface {
	UserBookings(ctx context.Context) ([]model.Booking, error)
	UserTransactions(ctx context.Context) ([]model.Transaction, error)
}

// BookingView is a booking with the affordances the rider sees on its card.
type BookingView struct {
	model.Booking
	Countdown *countdown.View     `json:"countdown,omitempty"`
	Pay       booking.Affordance `json:"pay"`
	Download  bool               `json:"download"`
}

// Rider is the rider dashboard for one signed-in principal.
type Rider struct {
	backend RiderBackend
	clock   countdown.Clock
}

func NewRider(backend RiderBackend, clock countdown.Clock) *Rider {
	if clock == nil {
		clock = time.Now
	}
	return &Rider{backend: backend, clock: clock}
}

// Bookings lists the rider's bookings with their countdowns.  Rejected
// bookings show no countdown.
func (r *Rider) Bookings(ctx context.Context) ([]BookingView, error) {
	bs, err := r.backend.UserBookings(ctx)
	if err != nil {
		return nil, err
	}
	now := r.clock()
	out := make([]BookingView, 0, len(bs))
	for _, b := range bs {
		v := BookingView{Booking: b, Download: b.Status == model.BookingPaid}
		if b.Ticket != nil {
			if b.Status != model.BookingRejected {
				cv := countdown.Countdown{Departure: b.Ticket.DepartureAt.Time, Now: now}.View()
				v.Countdown = &cv
			}
			v.Pay = booking.PaymentEligibility(role.Rider, b, b.Ticket.DepartureAt.Time, now)
		} else {
			v.Pay = booking.Affordance{Reason: booking.ReasonStatus}
			if b.Status == model.BookingAccepted {
				v.Pay.Reason = "ticket details unavailable"
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Booking finds one of the rider's bookings.
func (r *Rider) Booking(ctx context.Context, id string) (model.Booking, error) {
	bs, err := r.backend.UserBookings(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	for _, b := range bs {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Booking{}, ErrBookingNotFound
}

// Transactions lists the rider's payments, newest first as the backend
// returns them.
func (r *Rider) Transactions(ctx context.Context) ([]model.Transaction, error) {
	ts, err := r.backend.UserTransactions(ctx)
	if ts == nil && err == nil {
		ts = []model.Transaction{}
	}
	return ts, err
}
