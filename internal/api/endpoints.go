package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/ticketbari-web/internal/model"
)

// ---- Session ----

// IssueToken exchanges an authenticated email for a bearer credential
// (POST /jwt).
func (c *Client) IssueToken(ctx context.Context, email string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/jwt", nil, map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// GetUser loads the backend user record for email (GET /users/{email}).
func (c *Client) GetUser(ctx context.Context, email string) (model.UserRecord, error) {
	var out model.UserRecord
	err := c.do(ctx, http.MethodGet, "/users/"+escape(email), nil, nil, &out)
	return out, err
}

// ---- Public catalog ----

// TicketQuery carries the server-side catalog filters.  Empty fields are
// omitted from the query string.
type TicketQuery struct {
	Page          int
	Limit         int
	From          string
	To            string
	TransportType string
	SortBy        string // "", "price_asc" or "price_desc"
}

func (q TicketQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if q.TransportType != "" {
		v.Set("transportType", q.TransportType)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	return v
}

// ListTickets fetches one catalog page (GET /tickets).
func (c *Client) ListTickets(ctx context.Context, q TicketQuery) (model.TicketPage, error) {
	var out model.TicketPage
	err := c.do(ctx, http.MethodGet, "/tickets", q.values(), nil, &out)
	return out, err
}

// GetTicket fetches a single ticket (GET /tickets/{id}).
func (c *Client) GetTicket(ctx context.Context, id string) (model.Ticket, error) {
	var out model.Ticket
	err := c.do(ctx, http.MethodGet, "/tickets/"+escape(id), nil, nil, &out)
	return out, err
}

// LatestTickets fetches the home page "latest" strip.
func (c *Client) LatestTickets(ctx context.Context) ([]model.Ticket, error) {
	var out []model.Ticket
	err := c.do(ctx, http.MethodGet, "/tickets/latest/all", nil, nil, &out)
	return out, err
}

// AdvertisedTickets fetches the home page advertisement strip.
func (c *Client) AdvertisedTickets(ctx context.Context) ([]model.Ticket, error) {
	var out []model.Ticket
	err := c.do(ctx, http.MethodGet, "/tickets/advertised/all", nil, nil, &out)
	return out, err
}

// ---- Rider ----

// CreateBooking submits a booking request (POST /bookings).  The backend
// answers either with the stored booking or with a bare insert result.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	var out struct {
		model.Booking
		InsertedID string `json:"insertedId"`
	}
	if err := c.do(ctx, http.MethodPost, "/bookings", nil, req, &out); err != nil {
		return model.Booking{}, err
	}
	b := out.Booking
	if b.ID == "" {
		b.ID = out.InsertedID
	}
	return b, nil
}

// UserBookings lists the signed-in rider's bookings (GET /bookings/user).
func (c *Client) UserBookings(ctx context.Context) ([]model.Booking, error) {
	var out []model.Booking
	err := c.do(ctx, http.MethodGet, "/bookings/user", nil, nil, &out)
	return out, err
}

// ConfirmPayment posts a tokenized payment for bookingID (POST /payments).
func (c *Client) ConfirmPayment(ctx context.Context, bookingID string, details model.PaymentDetails) error {
	body := struct {
		BookingID      string               `json:"bookingId"`
		PaymentDetails model.PaymentDetails `json:"paymentDetails"`
	}{bookingID, details}
	return c.do(ctx, http.MethodPost, "/payments", nil, body, nil)
}

// UserTransactions lists the rider's payment records (GET /payments/user).
func (c *Client) UserTransactions(ctx context.Context) ([]model.Transaction, error) {
	var out []model.Transaction
	err := c.do(ctx, http.MethodGet, "/payments/user", nil, nil, &out)
	return out, err
}

// ---- Vendor ----

func (c *Client) VendorTickets(ctx context.Context) ([]model.Ticket, error) {
	var out []model.Ticket
	err := c.do(ctx, http.MethodGet, "/vendor/tickets", nil, nil, &out)
	return out, err
}

func (c *Client) CreateVendorTicket(ctx context.Context, in model.TicketInput) error {
	return c.do(ctx, http.MethodPost, "/vendor/tickets", nil, in, nil)
}

func (c *Client) UpdateVendorTicket(ctx context.Context, id string, in model.TicketInput) error {
	return c.do(ctx, http.MethodPut, "/vendor/tickets/"+escape(id), nil, in, nil)
}

func (c *Client) DeleteVendorTicket(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/vendor/tickets/"+escape(id), nil, nil, nil)
}

func (c *Client) VendorBookings(ctx context.Context) ([]model.Booking, error) {
	var out []model.Booking
	err := c.do(ctx, http.MethodGet, "/vendor/bookings", nil, nil, &out)
	return out, err
}

// UpdateBookingStatus records the vendor's accept/reject decision.
func (c *Client) UpdateBookingStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPatch, "/vendor/bookings/"+escape(id), nil, map[string]string{"status": status}, nil)
}

func (c *Client) VendorRevenue(ctx context.Context) (model.Revenue, error) {
	var out model.Revenue
	err := c.do(ctx, http.MethodGet, "/vendor/revenue", nil, nil, &out)
	return out, err
}

// ---- Admin ----

func (c *Client) AdminTickets(ctx context.Context) ([]model.Ticket, error) {
	var out []model.Ticket
	err := c.do(ctx, http.MethodGet, "/admin/tickets", nil, nil, &out)
	return out, err
}

func (c *Client) VerifyTicket(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPatch, "/admin/tickets/"+escape(id)+"/verify", nil,
		map[string]string{"verificationStatus": status}, nil)
}

func (c *Client) AdvertiseTicket(ctx context.Context, id string, advertised bool) error {
	return c.do(ctx, http.MethodPatch, "/admin/tickets/"+escape(id)+"/advertise", nil,
		map[string]bool{"isAdvertised": advertised}, nil)
}

func (c *Client) AdminUsers(ctx context.Context) ([]model.UserRecord, error) {
	var out []model.UserRecord
	err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &out)
	return out, err
}

// UpdateUserRole sends the backend wire role string ("user", "vendor", "admin").
func (c *Client) UpdateUserRole(ctx context.Context, id, wireRole string) error {
	return c.do(ctx, http.MethodPatch, "/admin/users/"+escape(id)+"/role", nil,
		map[string]string{"role": wireRole}, nil)
}

func (c *Client) MarkFraud(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/vendors/"+escape(id)+"/fraud", nil, struct{}{}, nil)
}
