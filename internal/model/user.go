package model

// Principal is an identity issued by the authentication provider.  It is
// held by the session for the lifetime of the browser tab and cleared on
// sign-out.
//
// Fields:
//
//	ID          – provider-assigned unique id.
//	DisplayName – name shown in the dashboard.
//	Email       – key used for the credential exchange and role lookup.
//	AvatarURL   – optional photo.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// UserRecord is the backend-owned user row.  Role is kept as the raw wire
// string here; the role package validates it.
type UserRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsFraud  bool   `json:"isFraud"`
	PhotoURL string `json:"photoURL,omitempty"`
}
