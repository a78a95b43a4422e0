package auth

import (
	"errors"
	"strconv"

	"github.com/angelmondragon/partshop-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uint
	Email  string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims is the JWT body issued at login. The user id travels
// both as "id" and as the standard subject.
type AccessTokenClaims struct {
	UserID uint           `json:"id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered-claims checks during parsing.
func (c AccessTokenClaims) Validate() error {
	if c.UserID == 0 {
		return errors.New("token carries no user id")
	}
	if c.Subject != "" && c.Subject != strconv.FormatUint(uint64(c.UserID), 10) {
		return errors.New("token subject does not match user id")
	}
	if !c.Role.IsValid() {
		return errors.New("token carries an unknown role")
	}
	return nil
}

// Actor returns the caller described by the claims.
func (c AccessTokenClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}
