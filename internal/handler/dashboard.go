package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/countdown"
	"github.com/iliyamo/ticketbari-web/internal/dashboard"
	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// CachePurger drops cached public responses.  *middleware.ResponseCache
// implements it.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// DashboardHandler serves the rider, vendor and administrator dashboards.
// Every mutation answers with the freshly re-fetched list.
type DashboardHandler struct {
	Backend    *api.Client
	Workspaces *Workspaces
	Cache      CachePurger
	Now        countdown.Clock
}

func NewDashboardHandler(backend *api.Client, ws *Workspaces, cache CachePurger, now countdown.Clock) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{Backend: backend, Workspaces: ws, Cache: cache, Now: now}
}

func (h *DashboardHandler) backend(c echo.Context) *api.Client {
	return h.Backend.WithBearer(middleware.CurrentSession(c).Credential())
}

// purge is called after admin changes that alter the home page strips.
func (h *DashboardHandler) purge(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(c.Request().Context()); err != nil {
		c.Logger().Warnf("dashboard: purge response cache: %v", err)
	}
}

// ----- shared -----

// Home sends the principal to the landing page of their role.
func (h *DashboardHandler) Home(c echo.Context) error {
	r, _ := middleware.CurrentSession(c).Role()
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.Redirect(http.StatusSeeOther, r.Landing())
	}
	return c.JSON(http.StatusOK, echo.Map{"redirect": r.Landing()})
}

// Menu lists the dashboard menu for the principal's role.
func (h *DashboardHandler) Menu(c echo.Context) error {
	res, _ := middleware.CurrentSession(c).Resolution()
	return c.JSON(http.StatusOK, echo.Map{
		"role":     res.Role,
		"degraded": res.Degraded(),
		"items":    dashboard.Menu(res.Role),
	})
}

// Profile is shared by the three profile pages.  The account record is
// read fresh on every load so a fraud flag shows up at once.
func (h *DashboardHandler) Profile(c echo.Context) error {
	s := middleware.CurrentSession(c)
	p, _ := s.Principal()
	res, _ := s.Resolution()
	return c.JSON(http.StatusOK, dashboard.Profile(c.Request().Context(), h.backend(c), p, res))
}

// ----- rider -----

func (h *DashboardHandler) RiderBookings(c echo.Context) error {
	bs, err := dashboard.NewRider(h.backend(c), h.Now).Bookings(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bs})
}

func (h *DashboardHandler) RiderTransactions(c echo.Context) error {
	ts, err := dashboard.NewRider(h.backend(c), h.Now).Transactions(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": ts})
}

// ----- vendor -----

// ticketReq accepts perks either as a list or as the comma separated text
// of the form field.
type ticketReq struct {
	model.TicketInput
	PerksText string `json:"perksText"`
}

func (r ticketReq) input() model.TicketInput {
	in := r.TicketInput
	if len(in.Perks) == 0 && r.PerksText != "" {
		in.Perks = dashboard.SplitPerks(r.PerksText)
	}
	return in
}

func (h *DashboardHandler) vendor(c echo.Context) *dashboard.Vendor {
	p, _ := middleware.CurrentSession(c).Principal()
	return dashboard.NewVendor(h.backend(c), p, h.Now)
}

func (h *DashboardHandler) VendorTickets(c echo.Context) error {
	ts, err := h.vendor(c).Tickets(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

// TicketForm lists the choices of the add-ticket form.
func (h *DashboardHandler) TicketForm(c echo.Context) error {
	return c.JSON(http.StatusOK, dashboard.NewTicketForm())
}

func (h *DashboardHandler) AddTicket(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ts, err := h.vendor(c).AddTicket(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": ts})
}

func (h *DashboardHandler) UpdateTicket(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ts, err := h.vendor(c).UpdateTicket(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

// DeleteTicket needs ?confirm=true; without it the answer is 428 with the
// prompt to show.
func (h *DashboardHandler) DeleteTicket(c echo.Context) error {
	ts, err := h.vendor(c).DeleteTicket(c.Request().Context(), c.Param("id"), confirmed(c, false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

func (h *DashboardHandler) VendorBookings(c echo.Context) error {
	bs, err := h.vendor(c).Bookings(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bs})
}

type statusReq struct {
	Status string `json:"status" form:"status"`
}

func (h *DashboardHandler) DecideBooking(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	bs, err := h.vendor(c).DecideBooking(c.Request().Context(), c.Param("id"), strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bs})
}

func (h *DashboardHandler) VendorRevenue(c echo.Context) error {
	rv, err := h.vendor(c).Revenue(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rv)
}

// ----- admin -----

func (h *DashboardHandler) admin(c echo.Context) *dashboard.Admin {
	return dashboard.NewAdmin(h.backend(c))
}

func (h *DashboardHandler) AdminTickets(c echo.Context) error {
	ts, err := h.admin(c).Tickets(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

type verifyReq struct {
	Status string `json:"verificationStatus" form:"verificationStatus"`
}

func (h *DashboardHandler) VerifyTicket(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ts, err := h.admin(c).Verify(c.Request().Context(), c.Param("id"), strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	if _, err := h.board(c).Refresh(c.Request().Context()); err != nil {
		c.Logger().Warnf("dashboard: refresh advertise board: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": ts})
}

func (h *DashboardHandler) board(c echo.Context) *dashboard.AdvertiseBoard {
	return h.Workspaces.Board(middleware.CurrentSession(c).ID, h.backend(c))
}

// Advertise shows the advertise board, reloaded from the backend on every
// page load.  The kept snapshot only backs the limit check in
// ToggleAdvertise.
func (h *DashboardHandler) Advertise(c echo.Context) error {
	sum, err := h.board(c).Refresh(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

type advertiseReq struct {
	Advertised bool `json:"advertised" form:"advertised"`
}

// ToggleAdvertise flips a ticket's advertised flag.  The seventh
// advertisement is refused with 409 before anything reaches the backend.
func (h *DashboardHandler) ToggleAdvertise(c echo.Context) error {
	var req advertiseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sum, err := h.board(c).Toggle(c.Request().Context(), c.Param("id"), req.Advertised)
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, sum)
}

func (h *DashboardHandler) AdminUsers(c echo.Context) error {
	us, err := h.admin(c).Users(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": us})
}

type roleReq struct {
	Role    string `json:"role" form:"role"`
	Confirm bool   `json:"confirm" form:"confirm"`
}

// SetUserRole needs confirm=true; without it the answer is 428 with the
// prompt to show.
func (h *DashboardHandler) SetUserRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	to, ok := role.Parse(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user, vendor or admin", "field": "role"})
	}
	us, err := h.admin(c).SetRole(c.Request().Context(), c.Param("id"), to, req.Confirm || confirmed(c, false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": us})
}

type confirmReq struct {
	Confirm bool `json:"confirm" form:"confirm"`
}

func (h *DashboardHandler) MarkFraud(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	us, err := h.admin(c).MarkFraud(c.Request().Context(), c.Param("id"), req.Confirm || confirmed(c, false))
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, echo.Map{"users": us})
}

// confirmed reads the confirm query parameter.
func confirmed(c echo.Context, def bool) bool {
	v := c.QueryParam("confirm")
	if v == "" {
		return def
	}
	return confirmedParam(v)
}

func confirmedParam(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
