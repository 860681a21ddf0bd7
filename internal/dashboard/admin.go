package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

var (
	// ErrAdvertiseLimit is returned when an administrator tries to
	// advertise a ticket while model.MaxAdvertised are already advertised.
	ErrAdvertiseLimit = fmt.Errorf("dashboard: at most %d tickets can be advertised at a time", model.MaxAdvertised)
	// ErrUserNotFound is returned when the id is not in the user list.
	ErrUserNotFound = errors.New("dashboard: user not found")
	// ErrNotVendor is returned when the fraud flag targets a non-vendor.
	ErrNotVendor = errors.New("dashboard: only vendors can be marked as fraud")
	// ErrAlreadyFraud is returned when the vendor is already flagged.
	ErrAlreadyFraud = errors.New("dashboard: vendor is already marked as fraud")
)

// AdminBackend is the backend surface of the administrator dashboard.
type AdminBackend interface {
	AdminTickets(ctx context.Context) ([]model.Ticket, error)
	VerifyTicket(ctx context.Context, id, status string) error
	AdvertiseTicket(ctx context.Context, id string, advertised bool) error
	AdminUsers(ctx context.Context) ([]model.UserRecord, error)
	UpdateUserRole(ctx context.Context, id, wireRole string) error
	MarkFraud(ctx context.Context, id string) error
}

// Admin is the administrator dashboard.
type Admin struct {
	backend AdminBackend
}

func NewAdmin(backend AdminBackend) *Admin { return &Admin{backend: backend} }

// Tickets lists every ticket awaiting or past moderation.
func (a *Admin) Tickets(ctx context.Context) ([]model.Ticket, error) {
	ts, err := a.backend.AdminTickets(ctx)
	if ts == nil && err == nil {
		ts = []model.Ticket{}
	}
	return ts, err
}

// Verify approves or rejects a ticket.
func (a *Admin) Verify(ctx context.Context, id, status string) ([]model.Ticket, error) {
	if status != model.VerificationApproved && status != model.VerificationRejected {
		return nil, apperr.ValidationError{Field: "verificationStatus", Msg: "must be approved or rejected"}
	}
	if err := a.backend.VerifyTicket(ctx, id, status); err != nil {
		return nil, err
	}
	return a.Tickets(ctx)
}

// Users lists every user record.
func (a *Admin) Users(ctx context.Context) ([]model.UserRecord, error) {
	us, err := a.backend.AdminUsers(ctx)
	if us == nil && err == nil {
		us = []model.UserRecord{}
	}
	return us, err
}

// SetRole promotes or demotes a user.  It needs confirmation.
func (a *Admin) SetRole(ctx context.Context, id string, to role.Role, confirmed bool) ([]model.UserRecord, error) {
	if !to.Valid() {
		return nil, apperr.ValidationError{Field: "role", Msg: "must be user, vendor or admin"}
	}
	u, err := a.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		switch to {
		case role.Administrator:
			return nil, confirmation("set-role", "Make %s an administrator?", display(u))
		case role.Vendor:
			return nil, confirmation("set-role", "Make %s a vendor?", display(u))
		default:
			return nil, confirmation("set-role", "Make %s a regular user?", display(u))
		}
	}
	if err := a.backend.UpdateUserRole(ctx, id, to.Wire()); err != nil {
		return nil, err
	}
	return a.Users(ctx)
}

// MarkFraud flags a vendor as fraudulent, hiding all of their tickets.  It
// needs confirmation.
func (a *Admin) MarkFraud(ctx context.Context, id string, confirmed bool) ([]model.UserRecord, error) {
	u, err := a.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if r, _ := role.Parse(u.Role); r != role.Vendor {
		return nil, ErrNotVendor
	}
	if u.IsFraud {
		return nil, ErrAlreadyFraud
	}
	if !confirmed {
		return nil, confirmation("mark-fraud", "All tickets from %s will be hidden", display(u))
	}
	if err := a.backend.MarkFraud(ctx, id); err != nil {
		return nil, err
	}
	return a.Users(ctx)
}

func (a *Admin) user(ctx context.Context, id string) (model.UserRecord, error) {
	us, err := a.backend.AdminUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	for _, u := range us {
		if u.ID == id {
			return u, nil
		}
	}
	return model.UserRecord{}, ErrUserNotFound
}

func display(u model.UserRecord) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// AdvertiseBoard is the administrator's snapshot of approved tickets and
// their advertised flags.  The advertise limit is checked against the
// snapshot, so a blocked toggle never reaches the backend.
type AdvertiseBoard struct {
	backend AdminBackend

	mu      sync.Mutex
	tickets []model.Ticket
	loaded  bool
}

func NewAdvertiseBoard(backend AdminBackend) *AdvertiseBoard {
	return &AdvertiseBoard{backend: backend}
}

// AdvertiseSummary is the board as shown on the page.
type AdvertiseSummary struct {
	Tickets    []model.Ticket `json:"tickets"`
	Advertised int            `json:"advertised"`
	Limit      int            `json:"limit"`
	SlotsLeft  int            `json:"slotsLeft"`
}

// Refresh replaces the snapshot with the approved tickets from the backend.
func (b *AdvertiseBoard) Refresh(ctx context.Context) (AdvertiseSummary, error) {
	ts, err := b.backend.AdminTickets(ctx)
	if err != nil {
		return AdvertiseSummary{}, err
	}
	approved := make([]model.Ticket, 0, len(ts))
	for _, t := range ts {
		if t.Approved() {
			approved = append(approved, t)
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets = approved
	b.loaded = true
	return b.summary(), nil
}

// Summary returns the current snapshot, loading it on first use.
func (b *AdvertiseBoard) Summary(ctx context.Context) (AdvertiseSummary, error) {
	b.mu.Lock()
	if b.loaded {
		defer b.mu.Unlock()
		return b.summary(), nil
	}
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// Toggle sets the advertised flag of ticket id.  Advertising beyond the
// limit fails with ErrAdvertiseLimit without contacting the backend.
func (b *AdvertiseBoard) Toggle(ctx context.Context, id string, advertise bool) (AdvertiseSummary, error) {
	if _, err := b.Summary(ctx); err != nil {
		return AdvertiseSummary{}, err
	}
	b.mu.Lock()
	var target *model.Ticket
	for i := range b.tickets {
		if b.tickets[i].ID == id {
			target = &b.tickets[i]
		}
	}
	if target == nil {
		b.mu.Unlock()
		return AdvertiseSummary{}, ErrTicketNotFound
	}
	if advertise && !target.IsAdvertised && b.advertised() >= model.MaxAdvertised {
		b.mu.Unlock()
		return AdvertiseSummary{}, ErrAdvertiseLimit
	}
	b.mu.Unlock()

	if err := b.backend.AdvertiseTicket(ctx, id, advertise); err != nil {
		return AdvertiseSummary{}, err
	}
	return b.Refresh(ctx)
}

func (b *AdvertiseBoard) advertised() int {
	n := 0
	for _, t := range b.tickets {
		if t.IsAdvertised {
			n++
		}
	}
	return n
}

func (b *AdvertiseBoard) summary() AdvertiseSummary {
	n := b.advertised()
	left := model.MaxAdvertised - n
	if left < 0 {
		left = 0
	}
	ts := make([]model.Ticket, len(b.tickets))
	copy(ts, b.tickets)
	return AdvertiseSummary{Tickets: ts, Advertised: n, Limit: model.MaxAdvertised, SlotsLeft: left}
}
