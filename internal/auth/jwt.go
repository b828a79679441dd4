package auth

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidJWTToken = errors.New("invalid JWT token")
	ErrExpiredJWTToken = errors.New("expired JWT token")
)

// AccessTokenClaims are the claims the external identity provider puts into
// the access tokens it issues. Subject carries the provider's user id.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.StandardClaims
}

type JWTManager struct {
	secretKey []byte
}

func NewJWTManager() *JWTManager {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatalf("JWT_SECRET is not set")
	}
	return &JWTManager{secretKey: []byte(secret)}
}

// ValidateAccessToken verifies the provider-issued token and returns its claims.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredJWTToken
		}
		return nil, ErrInvalidJWTToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidJWTToken
	}
	return claims, nil
}
