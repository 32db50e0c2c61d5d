package model

// Caller is the identity making a request. The zero value is anonymous.
type Caller struct {
	UserID string
}

// Anonymous returns a caller with no identity.
func Anonymous() Caller {
	return Caller{}
}

// Authenticated returns a caller for the given user ID.
func Authenticated(userID string) Caller {
	return Caller{UserID: userID}
}

// IsAuthenticated reports whether the caller carries a user identity.
func (c Caller) IsAuthenticated() bool {
	return c.UserID != ""
}

// Is reports whether the caller is the given user.
func (c Caller) Is(userID string) bool {
	return c.IsAuthenticated() && c.UserID == userID
}
