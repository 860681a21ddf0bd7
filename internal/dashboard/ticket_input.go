package dashboard

import (
	"strings"
	"time"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/model"
)

// canonicalPerk maps a lower-cased suggested perk onto its display form.
var canonicalPerk = func() map[string]string {
	m := make(map[string]string, len(model.KnownPerks))
	for _, p := range model.KnownPerks {
		m[strings.ToLower(p)] = p
	}
	return m
}()

// normalizePerks trims perks, drops empty and case-insensitive duplicates
// and keeps first-seen order.  Perks are free text; the suggested ones are
// spelled the way the form offers them.
func normalizePerks(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, p := range in {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" || seen[key] {
			continue
		}
		seen[key] = true
		if c, ok := canonicalPerk[key]; ok {
			p = c
		}
		out = append(out, p)
	}
	return out
}

// SplitPerks turns the comma separated form field into a list.
func SplitPerks(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateTicket checks a vendor's ticket form before it is submitted and
// returns the normalized input.  Departure must lie after now.
func ValidateTicket(in model.TicketInput, now time.Time) (model.TicketInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.From = strings.TrimSpace(in.From)
	in.To = strings.TrimSpace(in.To)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	switch {
	case in.Title == "":
		return in, apperr.ValidationError{Field: "ticketTitle", Msg: "is required"}
	case in.From == "":
		return in, apperr.ValidationError{Field: "fromLocation", Msg: "is required"}
	case in.To == "":
		return in, apperr.ValidationError{Field: "toLocation", Msg: "is required"}
	case strings.EqualFold(in.From, in.To):
		return in, apperr.ValidationError{Field: "toLocation", Msg: "must differ from the origin"}
	}
	tt, ok := model.ParseTransportType(string(in.TransportType))
	if !ok {
		return in, apperr.ValidationError{Field: "transportType", Msg: "must be bus, train, launch or plane"}
	}
	in.TransportType = tt
	if in.Price <= 0 {
		return in, apperr.ValidationError{Field: "price", Msg: "must be greater than zero"}
	}
	if in.Quantity <= 0 {
		return in, apperr.ValidationError{Field: "ticketQuantity", Msg: "must be greater than zero"}
	}
	if in.DepartureAt.IsZero() {
		return in, apperr.ValidationError{Field: "departureDateTime", Msg: "is required"}
	}
	if !in.DepartureAt.After(now) {
		return in, apperr.ValidationError{Field: "departureDateTime", Msg: "must be in the future"}
	}
	if in.ImageURL == "" {
		return in, apperr.ValidationError{Field: "image", Msg: "please upload an image"}
	}
	in.Perks = normalizePerks(in.Perks)
	return in, nil
}

// TicketForm describes the choices offered by the add-ticket form.  Perks
// are suggestions only.
type TicketForm struct {
	TransportTypes []model.TransportType `json:"transportTypes"`
	Perks          []string              `json:"perks"`
}

func NewTicketForm() TicketForm {
	return TicketForm{TransportTypes: model.TransportTypes, Perks: model.KnownPerks}
}
