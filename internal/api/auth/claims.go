package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims carried by caller tokens.
//
// Callers are other services, not people: the subject names the calling
// service and there is no refresh flow. Tokens are minted out of band with
// the token command and rotated by redeploying the caller.
type Claims struct {
	jwt.RegisteredClaims

	// Service is the name of the calling service.
	Service string `json:"service"`
}
