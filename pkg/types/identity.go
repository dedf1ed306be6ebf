package types

import "github.com/google/uuid"

// IdentityKind distinguishes authenticated users from anonymous sessions.
type IdentityKind string

const (
	IdentityUser    IdentityKind = "user"
	IdentitySession IdentityKind = "session"
)

// Identity is the cart-ownership key: a durable user id or an ephemeral
// anonymous session id, never both.
type Identity struct {
	Kind      IdentityKind
	UserID    uuid.UUID
	SessionID string
}

// UserIdentity builds an identity for an authenticated user.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{Kind: IdentityUser, UserID: userID}
}

// SessionIdentity builds an identity for an anonymous session.
func SessionIdentity(sessionID string) Identity {
	return Identity{Kind: IdentitySession, SessionID: sessionID}
}

// IsUser reports whether the identity belongs to an authenticated user.
func (i Identity) IsUser() bool {
	return i.Kind == IdentityUser
}

// Valid reports whether the identity carries a usable owner key.
func (i Identity) Valid() bool {
	switch i.Kind {
	case IdentityUser:
		return i.UserID != uuid.Nil
	case IdentitySession:
		return i.SessionID != ""
	}
	return false
}
