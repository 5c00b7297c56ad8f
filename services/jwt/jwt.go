package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const AccessTokenValidity = 24 * time.Hour

// GenerateToken signs an HS256 access token carrying the user id, email and role.
func GenerateToken(email, secret string, userID uint, roleName string) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret key is missing")
	}
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"role":  roleName,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(AccessTokenValidity).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims verifies signature and expiry and returns the claims.
func ValidateAndGetClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
