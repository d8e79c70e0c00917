package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

// Claims identify the signed-in user. Subject is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) GenerateToken(userID, email string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := Claims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNoSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
