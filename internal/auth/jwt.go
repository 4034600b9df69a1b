// Package auth issues and verifies the bearer tokens that gate the operator
// surface.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer tags every token this service mints; verification rejects tokens
// minted by anything else sharing the secret.
const Issuer = "intake-api"

// OperatorClaims is the token payload: the operator id rides in the standard
// subject claim.
type OperatorClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 token for one operator, valid for ttl.
func GenerateToken(secret string, ttl time.Duration, operatorID, email string) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken verifies signature, expiry and issuer, returning the claims.
func ValidateToken(secret, tokenStr string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &OperatorClaims{},
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
