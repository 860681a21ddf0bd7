package catalog

import (
	"context"

	"github.com/iliyamo/ticketbari-web/internal/model"
)

// HomeSource is the backend surface behind the home page strips.
type HomeSource interface {
	LatestTickets(ctx context.Context) ([]model.Ticket, error)
	AdvertisedTickets(ctx context.Context) ([]model.Ticket, error)
}

// Latest returns the newest approved tickets.
func Latest(ctx context.Context, src HomeSource) ([]model.Ticket, error) {
	ts, err := src.LatestTickets(ctx)
	return visible(ts), err
}

// Advertised returns the tickets an administrator promoted, at most
// model.MaxAdvertised of them.
func Advertised(ctx context.Context, src HomeSource) ([]model.Ticket, error) {
	ts, err := src.AdvertisedTickets(ctx)
	ts = visible(ts)
	if len(ts) > model.MaxAdvertised {
		ts = ts[:model.MaxAdvertised]
	}
	return ts, err
}

// visible drops anything the backend returned that has not been approved.
func visible(ts []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0, len(ts))
	for _, t := range ts {
		if t.Listed() {
			out = append(out, t)
		}
	}
	return out
}
