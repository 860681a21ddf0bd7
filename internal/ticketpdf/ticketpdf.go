// Package ticketpdf renders the downloadable e-ticket of a paid booking.
package ticketpdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/ticketbari-web/internal/model"
)

// ErrNotPaid is returned for bookings that have not been paid yet.
var ErrNotPaid = errors.New("ticketpdf: booking is not paid")

// Render builds an A4 e-ticket for b and returns the PDF bytes and a file
// name.  The core PDF fonts have no taka sign, so amounts print as BDT.
func Render(b model.Booking) ([]byte, string, error) {
	if b.Status != model.BookingPaid {
		return nil, "", ErrNotPaid
	}
	t := model.Ticket{Title: b.TicketTitle}
	if b.Ticket != nil {
		t = *b.Ticket
		if t.Title == "" {
			t.Title = b.TicketTitle
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TicketBari E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	departure := "-"
	if !t.DepartureAt.IsZero() {
		departure = t.DepartureAt.In(model.Dhaka).Format("02 Jan 2006 15:04")
	}
	lines := []string{
		fmt.Sprintf("Ticket       : %s", safe(t.Title)),
		fmt.Sprintf("Route        : %s -> %s", safe(t.From), safe(t.To)),
		fmt.Sprintf("Transport    : %s", safe(capitalize(string(t.TransportType)))),
		fmt.Sprintf("Departure    : %s", departure),
		fmt.Sprintf("Passenger    : %s", safe(b.UserName)),
		fmt.Sprintf("Email        : %s", safe(b.UserEmail)),
		fmt.Sprintf("Quantity     : %d", b.Quantity),
		fmt.Sprintf("Total paid   : BDT %s", b.TotalPrice),
		fmt.Sprintf("Booking code : %s", Code(b)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	if len(t.Perks) > 0 {
		pdf.Cell(0, 7, "Perks        : "+strings.Join(t.Perks, ", "))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please show this ticket at boarding. It is valid for the quantity shown above.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", filenamePart(Code(b))), nil
}

// Code is the booking reference printed on the ticket.
func Code(b model.Booking) string {
	id := b.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "TB-" + strings.ToUpper(safe(id))
}

func safe(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func filenamePart(s string) string { return unsafeName.ReplaceAllString(s, "_") }
