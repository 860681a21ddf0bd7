package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// Currency of every ticket price.
const Currency = "bdt"

// PaymentState of one payment screen.
type PaymentState int

const (
	PaymentPending PaymentState = iota
	TokenizingCard
	Confirming
	Paid
	PaymentFailed
)

var paymentStateNames = [...]string{"payment-pending", "tokenizing-card", "confirming", "paid", "payment-failed"}

func (s PaymentState) String() string {
	if int(s) < len(paymentStateNames) {
		return paymentStateNames[s]
	}
	return fmt.Sprintf("payment-state(%d)", int(s))
}

// CardInput is what the rider typed into the card form.  It is handed to
// the Tokenizer and never to the backend.
type CardInput struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
	CVC      string `json:"cvc"`
	Name     string `json:"name,omitempty"`
}

// Validate checks presence only; the processor validates the card itself.
func (c CardInput) Validate() error {
	switch {
	case strings.TrimSpace(c.Number) == "":
		return apperr.ValidationError{Field: "card.number", Msg: "is required"}
	case c.ExpMonth < 1 || c.ExpMonth > 12:
		return apperr.ValidationError{Field: "card.expMonth", Msg: "must be between 1 and 12"}
	case c.ExpYear < 1:
		return apperr.ValidationError{Field: "card.expYear", Msg: "is required"}
	case strings.TrimSpace(c.CVC) == "":
		return apperr.ValidationError{Field: "card.cvc", Msg: "is required"}
	}
	return nil
}

// Token is the processor's stand-in for a card.
type Token struct {
	ID    string
	Brand string
	Last4 string
}

// Tokenizer exchanges card data for a processor token.
type Tokenizer interface {
	Tokenize(ctx context.Context, card CardInput) (Token, error)
}

// Confirmer is the backend call that settles a tokenized payment.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, bookingID string, details model.PaymentDetails) error
}

// Payment drives one accepted booking to paid.
type Payment struct {
	tokenizer Tokenizer
	confirmer Confirmer
	role      role.Role
	departure time.Time
	clock     countdown.Clock

	mu      sync.Mutex
	state   PaymentState
	booking model.Booking
}

// NewPayment opens the payment step for b.  It fails with ErrNotEligible
// unless b is accepted, its ticket has not departed and r may book.
func NewPayment(b model.Booking, departure time.Time, r role.Role, tk Tokenizer, c Confirmer, clock countdown.Clock) (*Payment, error) {
	if clock == nil {
		clock = time.Now
	}
	if err := PaymentEligibility(r, b, departure, clock()).err(); err != nil {
		return nil, err
	}
	return &Payment{tokenizer: tk, confirmer: c, role: r, departure: departure, clock: clock, booking: b}, nil
}

func (p *Payment) State() PaymentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Booking returns the booking as it stands after the last attempt.
func (p *Payment) Booking() model.Booking {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.booking
}

// DownloadAvailable reports whether the ticket can be downloaded.
func (p *Payment) DownloadAvailable() bool { return p.State() == Paid }

// Pay tokenizes card and confirms the payment with the backend.  Either
// failure ends the attempt in PaymentFailed with a PaymentError; the
// booking stays accepted and Pay may be called again.
func (p *Payment) Pay(ctx context.Context, card CardInput) (model.Booking, error) {
	p.mu.Lock()
	if p.state != PaymentPending && p.state != PaymentFailed {
		st := p.state
		p.mu.Unlock()
		return model.Booking{}, IllegalTransitionError{From: st, Action: "pay"}
	}
	if err := PaymentEligibility(p.role, p.booking, p.departure, p.clock()).err(); err != nil {
		p.mu.Unlock()
		return model.Booking{}, err
	}
	if err := card.Validate(); err != nil {
		p.mu.Unlock()
		return model.Booking{}, err
	}
	p.state = TokenizingCard
	b := p.booking
	p.mu.Unlock()

	tok, err := p.tokenizer.Tokenize(ctx, card)
	if err == nil && tok.ID == "" {
		err = errors.New("processor returned an empty token")
	}
	if err != nil {
		return model.Booking{}, p.fail(apperr.StageTokenize, err)
	}

	p.setState(Confirming)
	details := model.PaymentDetails{
		Token:          tok.ID,
		Amount:         b.TotalPrice,
		Currency:       Currency,
		CardBrand:      tok.Brand,
		Last4:          tok.Last4,
		IdempotencyKey: uuid.NewString(),
	}
	if err := p.confirmer.ConfirmPayment(ctx, b.ID, details); err != nil {
		return model.Booking{}, p.fail(apperr.StageConfirm, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Paid
	p.booking.Status = model.BookingPaid
	return p.booking, nil
}

func (p *Payment) setState(s PaymentState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Payment) fail(stage string, err error) error {
	p.setState(PaymentFailed)
	return apperr.PaymentError{Stage: stage, Err: err}
}
