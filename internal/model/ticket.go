package model

import (
	"strings"
	"time"
)

// TransportType is the mode of travel a ticket is sold for.
type TransportType string

const (
	Bus    TransportType = "bus"
	Train  TransportType = "train"
	Launch TransportType = "launch"
	Plane  TransportType = "plane"
)

// TransportTypes lists the accepted modes in display order.
var TransportTypes = []TransportType{Bus, Train, Launch, Plane}

// ParseTransportType normalizes s and reports whether it names a known mode.
func ParseTransportType(s string) (TransportType, bool) {
	t := TransportType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TransportTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Verification statuses assigned by an administrator.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// MaxAdvertised is the number of tickets that may be advertised at once.
const MaxAdvertised = 6

// KnownPerks are offered as suggestions on the ticket form.  Vendors may
// enter any other perk as free text.
var KnownPerks = []string{"AC", "WiFi", "Breakfast", "Snacks", "Water", "Charging Port", "Blanket", "TV"}

// Ticket is a vendor-posted travel offering as returned by the backend.
//
// Fields:
//
//	ID                 – backend identifier (_id).
//	Title              – ticketTitle.
//	From, To           – fromLocation and toLocation.
//	TransportType      – bus, train, launch or plane.
//	Price              – unit price; fractional taka are allowed.
//	Quantity           – remaining quantity (ticketQuantity).
//	DepartureAt        – departureDateTime.
//	Perks              – ordered list of perk names.
//	ImageURL           – hosted image.
//	VendorName/Email   – owning vendor identity.
//	VerificationStatus – pending, approved or rejected.
//	IsAdvertised       – shown on the home page when true.
type Ticket struct {
	ID                 string        `json:"_id"`
	Title              string        `json:"ticketTitle"`
	From               string        `json:"fromLocation"`
	To                 string        `json:"toLocation"`
	TransportType      TransportType `json:"transportType"`
	Price              Amount        `json:"price"`
	Quantity           int           `json:"ticketQuantity"`
	DepartureAt        Departure     `json:"departureDateTime"`
	Perks              []string      `json:"perks,omitempty"`
	ImageURL           string        `json:"image,omitempty"`
	VendorName         string        `json:"vendorName,omitempty"`
	VendorEmail        string        `json:"vendorEmail,omitempty"`
	VerificationStatus string        `json:"verificationStatus,omitempty"`
	IsAdvertised       bool          `json:"isAdvertised"`
}

// Departed reports whether the departure time is at or before now.
func (t Ticket) Departed(now time.Time) bool {
	return !now.Before(t.DepartureAt.Time)
}

// Approved reports whether an administrator has approved the ticket.
func (t Ticket) Approved() bool { return t.VerificationStatus == VerificationApproved }

// Rejected reports whether an administrator has rejected the ticket.
func (t Ticket) Rejected() bool { return t.VerificationStatus == VerificationRejected }

// Listed reports whether the ticket may be shown to riders.  Public
// endpoints omit the status because they only return approved tickets.
func (t Ticket) Listed() bool { return t.VerificationStatus == "" || t.Approved() }

// TicketPage is one page of the public catalog.
type TicketPage struct {
	Tickets    []Ticket `json:"tickets"`
	TotalPages int      `json:"totalPages"`
}

// TicketInput is the body a vendor sends to create or edit a ticket.
type TicketInput struct {
	Title         string        `json:"ticketTitle"`
	From          string        `json:"fromLocation"`
	To            string        `json:"toLocation"`
	TransportType TransportType `json:"transportType"`
	Price         Amount        `json:"price"`
	Quantity      int           `json:"ticketQuantity"`
	DepartureAt   Departure     `json:"departureDateTime"`
	Perks         []string      `json:"perks"`
	ImageURL      string        `json:"image"`
	VendorName    string        `json:"vendorName,omitempty"`
	VendorEmail   string        `json:"vendorEmail,omitempty"`
}
