// Package handler exposes the HTTP surface of the web client: sign-in,
// the public catalog, booking and payment, and the three role dashboards.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/booking"
	"github.com/iliyamo/ticketbari-web/internal/catalog"
	"github.com/iliyamo/ticketbari-web/internal/dashboard"
	"github.com/iliyamo/ticketbari-web/internal/ticketpdf"
)

// respondError translates the error taxonomy into a JSON answer.  Backend
// and processor messages are passed through verbatim.
func respondError(c echo.Context, err error) error {
	var (
		valErr  apperr.ValidationError
		authErr apperr.AuthenticationError
		azErr   apperr.AuthorizationError
		payErr  apperr.PaymentError
		remErr  apperr.RemoteError
		confirm *dashboard.ConfirmationRequired
		notElig *booking.NotEligibleError
		illegal booking.IllegalTransitionError
	)
	switch {
	case errors.As(err, &confirm):
		return c.JSON(http.StatusPreconditionRequired, echo.Map{
			"error":  "confirmation required",
			"action": confirm.Action,
			"prompt": confirm.Prompt,
		})
	case errors.As(err, &valErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": valErr.Error(), "field": valErr.Field})
	case errors.As(err, &authErr):
		return c.JSON(authStatus(authErr), echo.Map{"error": authErr.Error()})
	case errors.As(err, &azErr):
		return c.JSON(http.StatusForbidden, echo.Map{"error": azErr.Error()})
	case errors.As(err, &payErr):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": payErr.Error(), "stage": payErr.Stage})
	case errors.As(err, &notElig):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not available", "reason": notElig.Reason})
	case errors.As(err, &illegal):
		return c.JSON(http.StatusConflict, echo.Map{"error": illegal.Error()})
	case errors.Is(err, catalog.ErrStale):
		return c.JSON(http.StatusConflict, echo.Map{"error": "superseded by a newer request", "stale": true})
	case errors.Is(err, dashboard.ErrAdvertiseLimit),
		errors.Is(err, dashboard.ErrTicketRejected),
		errors.Is(err, dashboard.ErrBookingDecided),
		errors.Is(err, dashboard.ErrAlreadyFraud),
		errors.Is(err, ticketpdf.ErrNotPaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, dashboard.ErrNotVendor):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, dashboard.ErrTicketNotFound),
		errors.Is(err, dashboard.ErrBookingNotFound),
		errors.Is(err, dashboard.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.As(err, &remErr):
		return c.JSON(remoteStatus(remErr.Status), echo.Map{"error": remErr.Error()})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func authStatus(err apperr.AuthenticationError) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrWeakPassword):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrProviderCancelled):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// remoteStatus keeps the backend's client errors and reports its server
// errors as a bad gateway.
func remoteStatus(status int) int {
	if status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}
