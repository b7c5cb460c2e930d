package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated username as the token subject plus the
// authorities granted to the credential.
type Claims struct {
	jwt.RegisteredClaims
	Authorities []string `json:"authorities,omitempty"`
}

// HasAuthority reports whether the token grants authority a.
func (c *Claims) HasAuthority(a string) bool {
	return slices.Contains(c.Authorities, a)
}

func GenerateToken(userName string, authorities []string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Authorities: authorities,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates signature and expiry. Expired tokens yield
// common.ErrTokenExpired, everything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
