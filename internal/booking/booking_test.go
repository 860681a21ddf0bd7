package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

var (
	now   = time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	clock = func() time.Time { return now }
	rider = model.Principal{ID: "p1", DisplayName: "Rafi", Email: "rafi@example.com"}
)

func bus(remaining int, price model.Amount) model.Ticket {
	return model.Ticket{
		ID: "t1", Title: "Dhaka Express", From: "Dhaka", To: "Sylhet", TransportType: model.Bus,
		Price: price, Quantity: remaining, DepartureAt: model.Departure{Time: now.Add(48 * time.Hour)},
		VerificationStatus: model.VerificationApproved,
	}
}

func TestTotalIsExactForEveryValidQuantity(t *testing.T) {
	const remaining = 25
	for q := 1; q <= remaining; q++ {
		w := NewWorkflow(bus(remaining, 730), rider, role.Rider, clock)
		require.NoError(t, w.Open())
		quote, err := w.SelectQuantity(q)
		require.NoError(t, err)
		assert.Equal(t, q, quote.Quantity)
		assert.Equal(t, model.Amount(730*q), quote.Total)
	}
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, ClampQuantity(0, 5))
	assert.Equal(t, 1, ClampQuantity(-3, 5))
	assert.Equal(t, 5, ClampQuantity(9, 5))
	assert.Equal(t, 3, ClampQuantity(3, 5))
	assert.Equal(t, 0, ClampQuantity(1, 0))
}

type creatorMock struct{ mock.Mock }

func (m *creatorMock) CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Booking), args.Error(1)
}

func TestOutOfRangeQuantityIsBlockedBeforeSubmission(t *testing.T) {
	backend := new(creatorMock)
	w := NewWorkflow(bus(4, 500), rider, role.Rider, clock)
	require.NoError(t, w.Open())
	for _, q := range []int{0, -1, 5, 100} {
		_, err := w.Submit(context.Background(), backend, q)
		assert.ErrorAs(t, err, new(apperr.ValidationError), "quantity %d", q)
	}
	backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	assert.Equal(t, QuantitySelection, w.State())
}

func TestVendorsAndAdminsCanNeverBook(t *testing.T) {
	tickets := []model.Ticket{bus(10, 500), bus(0, 500), {Quantity: 3, DepartureAt: model.Departure{Time: now.Add(-time.Hour)}}}
	for _, r := range []role.Role{role.Vendor, role.Administrator} {
		for _, tk := range tickets {
			a := Eligibility(r, tk, now)
			assert.False(t, a.Allowed)
			assert.Equal(t, ReasonRole, a.Reason)
		}
		err := NewWorkflow(bus(10, 500), rider, r, clock).Open()
		assert.ErrorIs(t, err, ErrNotEligible)

		_, err = NewPayment(model.Booking{ID: "b1", Status: model.BookingAccepted}, now.Add(time.Hour), r, nil, nil, clock)
		assert.ErrorIs(t, err, ErrNotEligible)
	}
}

func TestDepartedTicketIsNeverBookable(t *testing.T) {
	tk := bus(10, 500)
	tk.DepartureAt = model.Departure{Time: now}
	assert.Equal(t, Affordance{Reason: ReasonDeparted}, Eligibility(role.Rider, tk, now))

	_, err := NewPayment(model.Booking{ID: "b1", Status: model.BookingAccepted}, now, role.Rider, nil, nil, clock)
	assert.ErrorIs(t, err, ErrNotEligible)

	// Eligible when opened, departed by submission time.
	at := now.Add(-time.Minute)
	tk.DepartureAt = model.Departure{Time: now}
	w := NewWorkflow(tk, rider, role.Rider, func() time.Time { return at })
	require.NoError(t, w.Open())
	at = now
	_, err = w.Submit(context.Background(), new(creatorMock), 1)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestOtherIneligibleTickets(t *testing.T) {
	soldOut := bus(0, 500)
	assert.Equal(t, ReasonSoldOut, Eligibility(role.Rider, soldOut, now).Reason)
	pending := bus(5, 500)
	pending.VerificationStatus = model.VerificationPending
	assert.Equal(t, ReasonNotApproved, Eligibility(role.Rider, pending, now).Reason)
}

func TestSubmitRejectionSurfacesServerMessage(t *testing.T) {
	backend := new(creatorMock)
	backend.On("CreateBooking", mock.Anything, mock.Anything).
		Return(model.Booking{}, apperr.RemoteError{Status: 400, Message: "insufficient inventory"}).Once()
	w := NewWorkflow(bus(4, 500), rider, role.Rider, clock)
	require.NoError(t, w.Open())

	_, err := w.Submit(context.Background(), backend, 2)
	require.Error(t, err)
	assert.Equal(t, "insufficient inventory", err.Error())
	assert.Equal(t, SubmissionFailed, w.State())
	backend.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestSubmitAnonymousRider(t *testing.T) {
	backend := new(creatorMock)
	backend.On("CreateBooking", mock.Anything, model.BookingRequest{
		TicketID: "t1", TicketTitle: "Dhaka Express", Quantity: 1, TotalPrice: 500,
		UserName: AnonymousRider, UserEmail: "x@example.com",
	}).Return(model.Booking{ID: "b9"}, nil)
	w := NewWorkflow(bus(4, 500), model.Principal{Email: "x@example.com"}, role.Rider, clock)
	require.NoError(t, w.Open())
	b, err := w.Submit(context.Background(), backend, 1)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	backend.AssertExpectations(t)
}

type tokenizerMock struct{ mock.Mock }

func (m *tokenizerMock) Tokenize(ctx context.Context, card CardInput) (Token, error) {
	args := m.Called(ctx, card)
	return args.Get(0).(Token), args.Error(1)
}

type confirmerMock struct{ mock.Mock }

func (m *confirmerMock) ConfirmPayment(ctx context.Context, id string, d model.PaymentDetails) error {
	return m.Called(ctx, id, d).Error(0)
}

var card = CardInput{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2034, CVC: "123"}

func TestPaymentFailuresKeepBookingAccepted(t *testing.T) {
	accepted := model.Booking{ID: "b1", Status: model.BookingAccepted, TotalPrice: 1000}

	t.Run("tokenize", func(t *testing.T) {
		tk := new(tokenizerMock)
		tk.On("Tokenize", mock.Anything, card).Return(Token{}, errors.New("card declined"))
		conf := new(confirmerMock)
		p, err := NewPayment(accepted, now.Add(time.Hour), role.Rider, tk, conf, clock)
		require.NoError(t, err)

		_, err = p.Pay(context.Background(), card)
		var pe apperr.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, apperr.StageTokenize, pe.Stage)
		assert.Equal(t, "card declined", err.Error())
		assert.Equal(t, PaymentFailed, p.State())
		assert.Equal(t, model.BookingAccepted, p.Booking().Status)
		conf.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirm then retry", func(t *testing.T) {
		tk := new(tokenizerMock)
		tk.On("Tokenize", mock.Anything, card).Return(Token{ID: "tok_1", Brand: "visa", Last4: "4242"}, nil)
		conf := new(confirmerMock)
		conf.On("ConfirmPayment", mock.Anything, "b1", mock.Anything).Return(apperr.RemoteError{Status: 502}).Once()
		conf.On("ConfirmPayment", mock.Anything, "b1", mock.MatchedBy(func(d model.PaymentDetails) bool {
			return d.Token == "tok_1" && d.Amount == 1000 && d.Currency == Currency && d.IdempotencyKey != ""
		})).Return(nil).Once()
		p, err := NewPayment(accepted, now.Add(time.Hour), role.Rider, tk, conf, clock)
		require.NoError(t, err)

		_, err = p.Pay(context.Background(), card)
		var pe apperr.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, apperr.StageConfirm, pe.Stage)
		assert.Equal(t, model.BookingAccepted, p.Booking().Status)
		assert.False(t, p.DownloadAvailable())

		b, err := p.Pay(context.Background(), card)
		require.NoError(t, err)
		assert.Equal(t, model.BookingPaid, b.Status)
		assert.True(t, p.DownloadAvailable())

		_, err = p.Pay(context.Background(), card)
		assert.Error(t, err, "already paid")
	})
}

func TestPaymentRequiresAcceptedBooking(t *testing.T) {
	for _, st := range []string{model.BookingPending, model.BookingRejected, model.BookingPaid} {
		_, err := NewPayment(model.Booking{ID: "b1", Status: st}, now.Add(time.Hour), role.Rider, nil, nil, clock)
		assert.ErrorIs(t, err, ErrNotEligible, st)
	}
}

// marketplace is an in-memory stand-in for the REST backend used by the
// end-to-end scenario.
type marketplace struct {
	mu       sync.Mutex
	ticket   model.Ticket
	bookings map[string]*model.Booking
}

func (m *marketplace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/tickets/"+m.ticket.ID:
		_ = json.NewEncoder(w).Encode(m.ticket)
	case r.Method == http.MethodPost && r.URL.Path == "/bookings":
		var req model.BookingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b := &model.Booking{ID: "b1", TicketID: req.TicketID, TicketTitle: req.TicketTitle, UserName: req.UserName,
			UserEmail: req.UserEmail, Quantity: req.Quantity, TotalPrice: req.TotalPrice, Status: model.BookingPending}
		m.bookings[b.ID] = b
		_ = json.NewEncoder(w).Encode(b)
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/vendor/bookings/"):
		var body struct{ Status string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		m.bookings[strings.TrimPrefix(r.URL.Path, "/vendor/bookings/")].Status = body.Status
	case r.Method == http.MethodPost && r.URL.Path == "/payments":
		var body struct {
			BookingID      string               `json:"bookingId"`
			PaymentDetails model.PaymentDetails `json:"paymentDetails"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b := m.bookings[body.BookingID]
		if b == nil || b.Status != model.BookingAccepted || body.PaymentDetails.Token == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.Status = model.BookingPaid
		m.ticket.Quantity -= b.Quantity
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestBookAcceptPayScenario(t *testing.T) {
	mk := &marketplace{ticket: bus(10, 500), bookings: map[string]*model.Booking{}}
	srv := httptest.NewServer(mk)
	defer srv.Close()
	backend := api.New(srv.URL, 0).WithBearer("rider-token")
	ctx := context.Background()

	tk, err := backend.GetTicket(ctx, "t1")
	require.NoError(t, err)
	w := NewWorkflow(tk, rider, role.Rider, clock)
	require.NoError(t, w.Open())
	quote, err := w.SelectQuantity(2)
	require.NoError(t, err)
	assert.Equal(t, model.Amount(1000), quote.Total)

	b, err := w.Submit(ctx, backend, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Amount(1000), b.TotalPrice)
	assert.Equal(t, model.BookingPending, b.Status)

	require.NoError(t, api.New(srv.URL, 0).WithBearer("vendor-token").UpdateBookingStatus(ctx, b.ID, model.BookingAccepted))
	b.Status = mk.bookings[b.ID].Status
	require.Equal(t, model.BookingAccepted, b.Status)

	tokz := new(tokenizerMock)
	tokz.On("Tokenize", mock.Anything, card).Return(Token{ID: "tok_ok"}, nil)
	p, err := NewPayment(b, tk.DepartureAt.Time, role.Rider, tokz, backend, clock)
	require.NoError(t, err)
	paid, err := p.Pay(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, paid.Status)
	assert.True(t, p.DownloadAvailable())

	again, err := backend.GetTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 8, again.Quantity)
}
