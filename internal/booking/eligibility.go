// Package booking is the rider-side booking lifecycle: quantity selection,
// submission of a booking request and, once a vendor accepts it, payment.
package booking

import (
	"errors"
	"time"

	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// ErrNotEligible is returned when a booking or payment action is attempted
// while its affordance is disabled.
var ErrNotEligible = errors.New("booking: action not available")

// Reasons an affordance is disabled.
const (
	ReasonRole        = "role not permitted"
	ReasonDeparted    = "departure time has passed"
	ReasonSoldOut     = "sold out"
	ReasonNotApproved = "ticket is not approved"
	ReasonStatus      = "booking is not accepted"
)

// Affordance says whether the book/pay button is enabled, and if not why.
type Affordance struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (a Affordance) err() error {
	if a.Allowed {
		return nil
	}
	return &NotEligibleError{Reason: a.Reason}
}

// NotEligibleError carries the reason; it matches ErrNotEligible.
type NotEligibleError struct{ Reason string }

func (e *NotEligibleError) Error() string        { return "booking: " + e.Reason }
func (e *NotEligibleError) Is(target error) bool { return target == ErrNotEligible }

// Eligibility decides whether r may book t at now.  Vendors and
// administrators never may, whatever the ticket's state.
func Eligibility(r role.Role, t model.Ticket, now time.Time) Affordance {
	switch {
	case !r.CanBook():
		return Affordance{Reason: ReasonRole}
	case t.Departed(now):
		return Affordance{Reason: ReasonDeparted}
	case !t.Listed():
		return Affordance{Reason: ReasonNotApproved}
	case t.Quantity < 1:
		return Affordance{Reason: ReasonSoldOut}
	}
	return Affordance{Allowed: true}
}

// PaymentEligibility decides whether r may pay for b, whose ticket departs
// at departure.
func PaymentEligibility(r role.Role, b model.Booking, departure time.Time, now time.Time) Affordance {
	switch {
	case !r.CanBook():
		return Affordance{Reason: ReasonRole}
	case b.Status != model.BookingAccepted:
		return Affordance{Reason: ReasonStatus}
	case !now.Before(departure):
		return Affordance{Reason: ReasonDeparted}
	}
	return Affordance{Allowed: true}
}

// ClampQuantity limits q to [1, remaining].  It returns 0 when nothing
// remains.
func ClampQuantity(q, remaining int) int {
	if remaining < 1 {
		return 0
	}
	if q < 1 {
		return 1
	}
	if q > remaining {
		return remaining
	}
	return q
}

// Total is unitPrice times quantity, exact to the paisa.
func Total(unitPrice model.Amount, quantity int) model.Amount { return unitPrice.Times(quantity) }
