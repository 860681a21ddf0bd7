package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/booking"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/dashboard"
	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/queue"
	"github.com/iliyamo/ticketbari-web/internal/ticketpdf"
)

// PaidPublisher announces settled payments.  *service.Publisher implements
// it.
type PaidPublisher interface {
	PublishBookingPaid(ctx context.Context, ev queue.BookingPaidEvent) error
}

// BookingHandler drives the rider's booking and payment flow.
type BookingHandler struct {
	Backend   *api.Client
	Tokenizer booking.Tokenizer
	Events    PaidPublisher
	Now       countdown.Clock
}

func NewBookingHandler(backend *api.Client, tk booking.Tokenizer, events PaidPublisher, now countdown.Clock) *BookingHandler {
	if now == nil {
		now = time.Now
	}
	return &BookingHandler{Backend: backend, Tokenizer: tk, Events: events, Now: now}
}

type quantityReq struct {
	Quantity int `json:"quantity" form:"quantity"`
}

// open loads the ticket and enters quantity selection.
func (h *BookingHandler) open(c echo.Context) (*booking.Workflow, *api.Client, error) {
	s := middleware.CurrentSession(c)
	p, _ := s.Principal()
	r, _ := s.Role()
	backend := h.Backend.WithBearer(s.Credential())
	t, err := backend.GetTicket(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, nil, err
	}
	w := booking.NewWorkflow(t, p, r, h.Now)
	if err := w.Open(); err != nil {
		return nil, nil, err
	}
	return w, backend, nil
}

// Quote prices the requested quantity, clamped to what remains.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w, _, err := h.open(c)
	if err != nil {
		return respondError(c, err)
	}
	q, err := w.SelectQuantity(req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Create submits a booking request.  It starts out pending until the
// vendor decides.
func (h *BookingHandler) Create(c echo.Context) error {
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w, backend, err := h.open(c)
	if err != nil {
		return respondError(c, err)
	}
	b, err := w.Submit(c.Request().Context(), backend, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": b, "state": w.State().String()})
}

// withTicket makes sure b carries its ticket details.
func withTicket(ctx context.Context, backend *api.Client, b model.Booking) (model.Booking, error) {
	if b.Ticket != nil {
		return b, nil
	}
	t, err := backend.GetTicket(ctx, b.TicketID)
	if err != nil {
		return b, err
	}
	b.Ticket = &t
	return b, nil
}

// Pay tokenizes the card and settles an accepted booking.
func (h *BookingHandler) Pay(c echo.Context) error {
	var card booking.CardInput
	if err := c.Bind(&card); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	s := middleware.CurrentSession(c)
	r, _ := s.Role()
	backend := h.Backend.WithBearer(s.Credential())

	b, err := dashboard.NewRider(backend, h.Now).Booking(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if b, err = withTicket(ctx, backend, b); err != nil {
		return respondError(c, err)
	}
	pay, err := booking.NewPayment(b, b.Ticket.DepartureAt.Time, r, h.Tokenizer, backend, h.Now)
	if err != nil {
		return respondError(c, err)
	}
	paid, err := pay.Pay(ctx, card)
	if err != nil {
		return respondError(c, err)
	}
	h.announce(ctx, c, paid)
	return c.JSON(http.StatusOK, echo.Map{
		"booking":     paid,
		"state":       pay.State().String(),
		"download":    pay.DownloadAvailable(),
		"downloadUrl": fmt.Sprintf("/dashboard/user/bookings/%s/ticket.pdf", paid.ID),
	})
}

// announce publishes the payment event.  Failures are logged only; the
// payment already went through.
func (h *BookingHandler) announce(ctx context.Context, c echo.Context, b model.Booking) {
	if h.Events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := h.Events.PublishBookingPaid(pctx, queue.NewBookingPaidEvent(b, booking.Currency, h.Now())); err != nil {
		c.Logger().Warnf("booking %s paid but event not published: %v", b.ID, err)
	}
}

// TicketPDF downloads the e-ticket of a paid booking.
func (h *BookingHandler) TicketPDF(c echo.Context) error {
	ctx := c.Request().Context()
	s := middleware.CurrentSession(c)
	backend := h.Backend.WithBearer(s.Credential())
	b, err := dashboard.NewRider(backend, h.Now).Booking(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if b.Status != model.BookingPaid {
		return respondError(c, ticketpdf.ErrNotPaid)
	}
	if b, err = withTicket(ctx, backend, b); err != nil {
		return respondError(c, err)
	}
	pdf, name, err := ticketpdf.Render(b)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
