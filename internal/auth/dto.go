package auth

import (
	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/enums"
)

// LoginInput carries the credentials presented at login.
type LoginInput struct {
	Email    string
	Password string
}

// TokenPair is the session material returned to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Session describes the authenticated account alongside its tokens.
type Session struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   enums.Role
	Tokens TokenPair
}

// RefreshInput rotates a session: the access token may be expired, the
// refresh token must match the stored one.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}
