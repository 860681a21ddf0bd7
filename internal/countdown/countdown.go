// Package countdown computes the time left before a ticket departs.  It is
// the gate for every booking and payment affordance: once a countdown has
// expired those actions are disabled.
package countdown

import (
	"fmt"
	"time"
)

// Clock returns the current time.  Tests pass a fixed clock.
type Clock func() time.Time

// Countdown is evaluated at Now.
type Countdown struct {
	Departure time.Time
	Now       time.Time
}

// At builds a countdown for departure evaluated at clock().  A nil clock
// means time.Now.
func At(departure time.Time, clock Clock) Countdown {
	if clock == nil {
		clock = time.Now
	}
	return Countdown{Departure: departure, Now: clock()}
}

// Remaining is the time until departure, never negative.
func (c Countdown) Remaining() time.Duration {
	if d := c.Departure.Sub(c.Now); d > 0 {
		return d
	}
	return 0
}

// Expired reports whether departure is at or before Now.
func (c Countdown) Expired() bool { return !c.Now.Before(c.Departure) }

// Parts splits the remaining time into whole days, hours, minutes and
// seconds.
type Parts struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func (c Countdown) Parts() Parts {
	secs := int64(c.Remaining() / time.Second)
	return Parts{
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}

// String renders "{d}d {h}h {m}m".
func (c Countdown) String() string {
	p := c.Parts()
	return fmt.Sprintf("%dd %dh %dm", p.Days, p.Hours, p.Minutes)
}

// View is the JSON shape attached to ticket and booking views.
type View struct {
	Expired bool   `json:"expired"`
	Display string `json:"display"`
	Parts   Parts  `json:"parts"`
}

func (c Countdown) View() View {
	return View{Expired: c.Expired(), Display: c.String(), Parts: c.Parts()}
}
