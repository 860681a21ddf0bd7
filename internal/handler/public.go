package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/booking"
	"github.com/iliyamo/ticketbari-web/internal/catalog"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// PublicHandler serves the catalog, the home page strips and the ticket
// details page.
type PublicHandler struct {
	Backend    *api.Client
	Workspaces *Workspaces
	Now        countdown.Clock
}

func NewPublicHandler(backend *api.Client, ws *Workspaces, now countdown.Clock) *PublicHandler {
	if now == nil {
		now = time.Now
	}
	return &PublicHandler{Backend: backend, Workspaces: ws, Now: now}
}

// Tickets renders one catalog page.  Filters come from the query string;
// a filter change puts the view back on page 1 and the page parameter is
// only honored while the filters stay the same.
func (h *PublicHandler) Tickets(c echo.Context) error {
	f, err := catalog.Filters{
		From:          c.QueryParam("from"),
		To:            c.QueryParam("to"),
		TransportType: c.QueryParam("transportType"),
		SortByPrice:   c.QueryParam("sort"),
	}.Normalize()
	if err != nil {
		return respondError(c, err)
	}
	page := 0
	if p := c.QueryParam("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "page must be a positive number", "field": "page"})
		}
		page = n
	}
	s := middleware.CurrentSession(c)
	view := h.Workspaces.Catalog(s.ID, h.Backend)
	res, err := view.Navigate(c.Request().Context(), f, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Latest is the "latest tickets" strip of the home page.
func (h *PublicHandler) Latest(c echo.Context) error {
	ts, err := catalog.Latest(c.Request().Context(), h.Backend)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

// Advertised is the advertisement strip of the home page.
func (h *PublicHandler) Advertised(c echo.Context) error {
	ts, err := catalog.Advertised(c.Request().Context(), h.Backend)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

type ticketDetail struct {
	Ticket    model.Ticket       `json:"ticket"`
	Countdown countdown.View     `json:"countdown"`
	Book      booking.Affordance `json:"book"`
	Role      role.Role          `json:"role"`
	Degraded  bool               `json:"degraded"`
}

// Ticket is the details page.  The book button is described by Book; it is
// disabled for vendors, administrators and departed or sold out tickets.
func (h *PublicHandler) Ticket(c echo.Context) error {
	s := middleware.CurrentSession(c)
	t, err := h.Backend.WithBearer(s.Credential()).GetTicket(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	res, _ := s.Resolution()
	now := h.Now()
	return c.JSON(http.StatusOK, ticketDetail{
		Ticket:    t,
		Countdown: countdown.Countdown{Departure: t.DepartureAt.Time, Now: now}.View(),
		Book:      booking.Eligibility(res.Role, t, now),
		Role:      res.Role,
		Degraded:  res.Degraded(),
	})
}
