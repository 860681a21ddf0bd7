package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Dhaka is the marketplace's local zone.  Bangladesh keeps no daylight
// saving, so a fixed offset is exact.
var Dhaka = time.FixedZone("BST", 6*60*60)

// Zoneless layouts produced by a datetime-local input.
var localLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02 15:04:05"}

// Departure is a ticket's departure time.  It decodes RFC 3339 as well as
// the zoneless "2030-01-01T10:30" form vendors' browsers submit; zoneless
// values are read in Dhaka.  It always encodes as RFC 3339.
type Departure struct {
	time.Time
}

// ParseDeparture parses s in any of the accepted forms.
func ParseDeparture(s string) (Departure, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Departure{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Departure{Time: t}, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, Dhaka); err == nil {
			return Departure{Time: t}, nil
		}
	}
	return Departure{}, fmt.Errorf("departure %q: want RFC 3339 or YYYY-MM-DDTHH:MM", s)
}

func (d Departure) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

func (d *Departure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*d = Departure{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("departure: %w", err)
	}
	v, err := ParseDeparture(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// UnmarshalParam lets echo bind form fields into a Departure.
func (d *Departure) UnmarshalParam(s string) error {
	v, err := ParseDeparture(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
