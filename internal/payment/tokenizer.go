// Package payment adapts the card processor's tokenization API.  Card data
// goes to the processor only; the backend receives the resulting token.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/ticketbari-web/internal/booking"
)

// DefaultURL is the processor's public API.
const DefaultURL = "https://api.stripe.com"

// CardTokenizer creates single-use card tokens with a publishable key.
type CardTokenizer struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
}

func NewCardTokenizer(baseURL, publishableKey string) *CardTokenizer {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &CardTokenizer{BaseURL: strings.TrimRight(baseURL, "/"), Key: publishableKey, HTTP: &http.Client{}}
}

// DeclineError is the processor's refusal, e.g. an invalid card number.
type DeclineError struct {
	Code    string
	Message string
}

func (e DeclineError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "card was declined"
}

type tokenResp struct {
	ID   string `json:"id"`
	Card struct {
		Brand string `json:"brand"`
		Last4 string `json:"last4"`
	} `json:"card"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Tokenize implements booking.Tokenizer.
func (t *CardTokenizer) Tokenize(ctx context.Context, card booking.CardInput) (booking.Token, error) {
	if t.Key == "" {
		return booking.Token{}, errors.New("payment: no publishable key configured")
	}
	form := url.Values{
		"card[number]":    {strings.ReplaceAll(card.Number, " ", "")},
		"card[exp_month]": {strconv.Itoa(card.ExpMonth)},
		"card[exp_year]":  {strconv.Itoa(card.ExpYear)},
		"card[cvc]":       {card.CVC},
	}
	if card.Name != "" {
		form.Set("card[name]", card.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/v1/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return booking.Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+t.Key)
	resp, err := t.HTTP.Do(req)
	if err != nil {
		return booking.Token{}, fmt.Errorf("payment: tokenize: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return booking.Token{}, err
	}
	var out tokenResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return booking.Token{}, fmt.Errorf("payment: decode token (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != nil {
		if out.Error != nil {
			return booking.Token{}, DeclineError{Code: out.Error.Code, Message: out.Error.Message}
		}
		return booking.Token{}, fmt.Errorf("payment: tokenize: status %d", resp.StatusCode)
	}
	return booking.Token{ID: out.ID, Brand: out.Card.Brand, Last4: out.Card.Last4}, nil
}
