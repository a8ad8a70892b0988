package services

// Identity is the per-request authentication result produced by the identity
// gate. An unauthenticated request still carries an Identity; operations that
// need one check Authenticated and fail themselves.
type Identity struct {
	UserID        uint
	Authenticated bool
}

// Authenticated builds an identity for the given user id.
func Authenticated(userID uint) Identity {
	return Identity{UserID: userID, Authenticated: true}
}

// Anonymous is the unauthenticated marker.
func Anonymous() Identity {
	return Identity{}
}
