package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// State of a booking workflow.
type State int

const (
	Browsing State = iota
	QuantitySelection
	Submitting
	Submitted
	SubmissionFailed
)

var stateNames = [...]string{"browsing", "quantity-selection", "submitting", "submitted", "submission-failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IllegalTransitionError is returned when an action does not apply to the
// current state.
type IllegalTransitionError struct {
	From   fmt.Stringer
	Action string
}

func (e IllegalTransitionError) Error() string {
	return fmt.Sprintf("booking: cannot %s while %s", e.Action, e.From)
}

// AnonymousRider is the name sent for a principal without a display name.
const AnonymousRider = "Anonymous"

// Creator is the backend call that records a booking request.
type Creator interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error)
}

// Quote is the price shown before submission.
type Quote struct {
	Quantity  int   `json:"quantity"`
	Remaining int   `json:"remaining"`
	UnitPrice model.Amount `json:"unitPrice"`
	Total     model.Amount `json:"total"`
}

// Workflow books one ticket for one rider.
type Workflow struct {
	ticket model.Ticket
	rider  model.Principal
	role   role.Role
	clock  countdown.Clock

	mu       sync.Mutex
	state    State
	quantity int
	booking  model.Booking
}

// NewWorkflow starts in Browsing.  A nil clock means time.Now.
func NewWorkflow(t model.Ticket, rider model.Principal, r role.Role, clock countdown.Clock) *Workflow {
	if clock == nil {
		clock = time.Now
	}
	return &Workflow{ticket: t, rider: rider, role: r, clock: clock}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Affordance re-evaluates eligibility at the current time.
func (w *Workflow) Affordance() Affordance {
	return Eligibility(w.role, w.ticket, w.clock())
}

// Open enters quantity selection with a quantity of one.
func (w *Workflow) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Browsing {
		return IllegalTransitionError{From: w.state, Action: "open"}
	}
	if err := w.Affordance().err(); err != nil {
		return err
	}
	w.state = QuantitySelection
	w.quantity = 1
	return nil
}

// SelectQuantity clamps q to the remaining inventory and recomputes the
// total.
func (w *Workflow) SelectQuantity(q int) (Quote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != QuantitySelection && w.state != SubmissionFailed {
		return Quote{}, IllegalTransitionError{From: w.state, Action: "select a quantity"}
	}
	w.state = QuantitySelection
	w.quantity = ClampQuantity(q, w.ticket.Quantity)
	return w.quote(), nil
}

func (w *Workflow) quote() Quote {
	return Quote{
		Quantity:  w.quantity,
		Remaining: w.ticket.Quantity,
		UnitPrice: w.ticket.Price,
		Total:     Total(w.ticket.Price, w.quantity),
	}
}

// Submit posts a booking request for q units.  A quantity outside
// [1, remaining] is refused without contacting the backend.  A backend
// refusal moves the workflow to SubmissionFailed; the caller may submit
// again.
func (w *Workflow) Submit(ctx context.Context, backend Creator, q int) (model.Booking, error) {
	w.mu.Lock()
	if w.state != QuantitySelection && w.state != SubmissionFailed {
		st := w.state
		w.mu.Unlock()
		return model.Booking{}, IllegalTransitionError{From: st, Action: "submit"}
	}
	if err := w.Affordance().err(); err != nil {
		w.mu.Unlock()
		return model.Booking{}, err
	}
	if q < 1 || q > w.ticket.Quantity {
		w.mu.Unlock()
		return model.Booking{}, apperr.ValidationError{
			Field: "quantity",
			Msg:   fmt.Sprintf("must be between 1 and %d", w.ticket.Quantity),
		}
	}
	w.quantity = q
	w.state = Submitting
	req := w.request()
	w.mu.Unlock()

	b, err := backend.CreateBooking(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = SubmissionFailed
		return model.Booking{}, err
	}
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	if b.TicketID == "" {
		b.TicketID = req.TicketID
	}
	if b.Quantity == 0 {
		b.Quantity = req.Quantity
		b.TotalPrice = req.TotalPrice
	}
	w.state = Submitted
	w.booking = b
	return b, nil
}

func (w *Workflow) request() model.BookingRequest {
	name := strings.TrimSpace(w.rider.DisplayName)
	if name == "" {
		name = AnonymousRider
	}
	return model.BookingRequest{
		TicketID:    w.ticket.ID,
		TicketTitle: w.ticket.Title,
		Quantity:    w.quantity,
		TotalPrice:  Total(w.ticket.Price, w.quantity),
		UserName:    name,
		UserEmail:   w.rider.Email,
	}
}

// Booking returns the submitted booking, if any.
func (w *Workflow) Booking() (model.Booking, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.booking, w.state == Submitted
}
