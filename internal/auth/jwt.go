// Package auth implements JWT access tokens for the HTTP API.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ritvika/paintshop/internal/common"
)

// Claims carries the registered claims plus the authenticated user's id and
// admin flag.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string
	IsAdmin bool
}

func GenerateToken(userID string, isAdmin bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:  userID,
		IsAdmin: isAdmin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
