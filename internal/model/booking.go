package model

import "time"

// Booking statuses.  Pending moves to accepted or rejected on the vendor's
// decision; accepted moves to paid once the rider pays.
const (
	BookingPending  = "pending"
	BookingAccepted = "accepted"
	BookingRejected = "rejected"
	BookingPaid     = "paid"
)

// Booking records a rider's reservation against a ticket.
//
// Fields:
//
//	ID          – backend identifier (_id).
//	TicketID    – referenced ticket.
//	TicketTitle – copied from the ticket at submission.
//	UserName    – rider display name.
//	UserEmail   – rider email.
//	Quantity    – bookingQuantity.
//	TotalPrice  – unit price × quantity, computed before submission.
//	Status      – pending, accepted, rejected or paid.
//	Ticket      – ticketDetails embedded by the backend, if any.
type Booking struct {
	ID          string  `json:"_id"`
	TicketID    string  `json:"ticketId"`
	TicketTitle string  `json:"ticketTitle"`
	UserName    string  `json:"userName"`
	UserEmail   string  `json:"userEmail"`
	Quantity    int     `json:"bookingQuantity"`
	TotalPrice  Amount  `json:"totalPrice"`
	Status      string  `json:"status"`
	Ticket      *Ticket `json:"ticketDetails,omitempty"`
}

// BookingRequest is the body posted to create a booking.
type BookingRequest struct {
	TicketID    string `json:"ticketId"`
	TicketTitle string `json:"ticketTitle"`
	Quantity    int    `json:"bookingQuantity"`
	TotalPrice  Amount `json:"totalPrice"`
	UserName    string `json:"userName"`
	UserEmail   string `json:"userEmail"`
}

// PaymentDetails accompanies a payment confirmation.  Only the processor
// token is sent; raw card data never leaves the tokenizer.
type PaymentDetails struct {
	Token          string `json:"token"`
	Amount         Amount `json:"amount"`
	Currency       string `json:"currency"`
	CardBrand      string `json:"cardBrand,omitempty"`
	Last4          string `json:"last4,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Transaction is created by the backend as a side effect of a successful
// payment.  The client only reads it.
type Transaction struct {
	TransactionID string    `json:"transactionId"`
	BookingID     string    `json:"bookingId,omitempty"`
	TicketTitle   string    `json:"ticketTitle"`
	Amount        Amount    `json:"amount"`
	PaidAt        time.Time `json:"paymentDate"`
}

// Revenue summarizes a vendor's sales.
type Revenue struct {
	TotalRevenue      Amount `json:"totalRevenue"`
	TotalTicketsSold  int    `json:"totalTicketsSold"`
	TotalTicketsAdded int    `json:"totalTicketsAdded"`
}

// Available is the number of added tickets not yet sold.
func (r Revenue) Available() int {
	if n := r.TotalTicketsAdded - r.TotalTicketsSold; n > 0 {
		return n
	}
	return 0
}
