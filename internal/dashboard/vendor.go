package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/model"
)

var (
	// ErrTicketRejected blocks edits and deletes of a rejected ticket.
	ErrTicketRejected = errors.New("dashboard: ticket was rejected and can no longer be changed")
	// ErrTicketNotFound is returned when the id is not one of the vendor's tickets.
	ErrTicketNotFound = errors.New("dashboard: ticket not found")
	// ErrBookingDecided is returned when a booking is no longer pending.
	ErrBookingDecided = errors.New("dashboard: booking already decided")
)

// VendorBackend is the backend surface of the vendor dashboard.
type VendorBackend interface {
	VendorTickets(ctx context.Context) ([]model.Ticket, error)
	CreateVendorTicket(ctx context.Context, in model.TicketInput) error
	UpdateVendorTicket(ctx context.Context, id string, in model.TicketInput) error
	DeleteVendorTicket(ctx context.Context, id string) error
	VendorBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, status string) error
	VendorRevenue(ctx context.Context) (model.Revenue, error)
}

// Vendor is the dashboard of one signed-in vendor.
type Vendor struct {
	backend VendorBackend
	owner   model.Principal
	clock   countdown.Clock
}

func NewVendor(backend VendorBackend, owner model.Principal, clock countdown.Clock) *Vendor {
	if clock == nil {
		clock = time.Now
	}
	return &Vendor{backend: backend, owner: owner, clock: clock}
}

// Tickets lists the vendor's own tickets in every verification state.
func (v *Vendor) Tickets(ctx context.Context) ([]model.Ticket, error) {
	ts, err := v.backend.VendorTickets(ctx)
	if ts == nil && err == nil {
		ts = []model.Ticket{}
	}
	return ts, err
}

// AddTicket validates and submits a new ticket, which starts out pending
// approval.
func (v *Vendor) AddTicket(ctx context.Context, in model.TicketInput) ([]model.Ticket, error) {
	in, err := ValidateTicket(in, v.clock())
	if err != nil {
		return nil, err
	}
	in.VendorName = v.owner.DisplayName
	in.VendorEmail = v.owner.Email
	if err := v.backend.CreateVendorTicket(ctx, in); err != nil {
		return nil, err
	}
	return v.Tickets(ctx)
}

// UpdateTicket edits one of the vendor's tickets unless it was rejected.
func (v *Vendor) UpdateTicket(ctx context.Context, id string, in model.TicketInput) ([]model.Ticket, error) {
	if _, err := v.editable(ctx, id); err != nil {
		return nil, err
	}
	in, err := ValidateTicket(in, v.clock())
	if err != nil {
		return nil, err
	}
	in.VendorName = v.owner.DisplayName
	in.VendorEmail = v.owner.Email
	if err := v.backend.UpdateVendorTicket(ctx, id, in); err != nil {
		return nil, err
	}
	return v.Tickets(ctx)
}

// DeleteTicket removes a ticket.  It needs confirmation and is blocked once
// the ticket was rejected.
func (v *Vendor) DeleteTicket(ctx context.Context, id string, confirmed bool) ([]model.Ticket, error) {
	t, err := v.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, confirmation("delete-ticket", "Delete %q? You won't be able to revert this.", t.Title)
	}
	if err := v.backend.DeleteVendorTicket(ctx, id); err != nil {
		return nil, err
	}
	return v.Tickets(ctx)
}

func (v *Vendor) editable(ctx context.Context, id string) (model.Ticket, error) {
	ts, err := v.backend.VendorTickets(ctx)
	if err != nil {
		return model.Ticket{}, err
	}
	for _, t := range ts {
		if t.ID != id {
			continue
		}
		if t.Rejected() {
			return t, ErrTicketRejected
		}
		return t, nil
	}
	return model.Ticket{}, ErrTicketNotFound
}

// Bookings lists booking requests against the vendor's tickets.
func (v *Vendor) Bookings(ctx context.Context) ([]model.Booking, error) {
	bs, err := v.backend.VendorBookings(ctx)
	if bs == nil && err == nil {
		bs = []model.Booking{}
	}
	return bs, err
}

// DecideBooking accepts or rejects a pending booking request.
func (v *Vendor) DecideBooking(ctx context.Context, id, status string) ([]model.Booking, error) {
	if status != model.BookingAccepted && status != model.BookingRejected {
		return nil, apperr.ValidationError{Field: "status", Msg: "must be accepted or rejected"}
	}
	bs, err := v.backend.VendorBookings(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, b := range bs {
		if b.ID != id {
			continue
		}
		if b.Status != model.BookingPending {
			return nil, ErrBookingDecided
		}
		found = true
	}
	if !found {
		return nil, ErrBookingNotFound
	}
	if err := v.backend.UpdateBookingStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return v.Bookings(ctx)
}

// RevenueView adds the derived available count to the backend summary.
type RevenueView struct {
	model.Revenue
	TicketsAvailable int `json:"ticketsAvailable"`
}

func (v *Vendor) Revenue(ctx context.Context) (RevenueView, error) {
	r, err := v.backend.VendorRevenue(ctx)
	if err != nil {
		return RevenueView{}, err
	}
	return RevenueView{Revenue: r, TicketsAvailable: r.Available()}, nil
}
