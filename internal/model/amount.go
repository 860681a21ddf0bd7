package model

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a price in paisa, the minor unit of the taka.  On the wire it is
// a taka number that may carry a fraction ("price": 499.5); decoding is
// exact, and anything finer than a paisa is rounded half away from zero.
type Amount int64

// Times multiplies a unit price by a quantity.
func (a Amount) Times(q int) Amount { return a * Amount(q) }

func (a Amount) decimal() decimal.Decimal { return decimal.New(int64(a), -2) }

// String renders taka with two decimals, e.g. "499.50".
func (a Amount) String() string { return a.decimal().StringFixed(2) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted number.  null leaves zero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	return a.parse(string(bytes.Trim(b, `"`)))
}

// UnmarshalParam lets echo bind form fields into an Amount.
func (a *Amount) UnmarshalParam(s string) error { return a.parse(s) }

func (a *Amount) parse(s string) error {
	if s == "" {
		*a = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*a = Amount(d.Shift(2).Round(0).IntPart())
	return nil
}
