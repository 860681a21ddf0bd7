package dashboard

import (
	"context"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

// RestrictedNotice is shown on the profile of a vendor flagged as fraud.
const RestrictedNotice = "Your account has been restricted. Please contact support for more information."

// UserLookup reads the principal's own account record.
type UserLookup interface {
	GetUser(ctx context.Context, email string) (model.UserRecord, error)
}

// ProfileView is what the three profile pages show.  AccountUnavailable is
// set when the account record could not be read; IsFraud is then unknown
// and reported false.
type ProfileView struct {
	Principal          model.Principal `json:"principal"`
	Role               role.Role       `json:"role"`
	Degraded           bool            `json:"degraded"`
	IsFraud            bool            `json:"isFraud"`
	Status             string          `json:"status"`
	Restricted         string          `json:"restricted,omitempty"`
	AccountUnavailable bool            `json:"accountUnavailable,omitempty"`
}

// Profile fetches the principal's account record and builds the page.
func Profile(ctx context.Context, users UserLookup, p model.Principal, res role.Resolution) ProfileView {
	v := ProfileView{Principal: p, Role: res.Role, Degraded: res.Degraded(), Status: "Active"}
	u, err := users.GetUser(ctx, p.Email)
	if err != nil {
		log.Warnf("dashboard: account record for %s: %v", p.Email, err)
		v.AccountUnavailable = true
		return v
	}
	if u.IsFraud {
		v.IsFraud = true
		v.Status = "Restricted"
		v.Restricted = RestrictedNotice
	}
	return v
}
