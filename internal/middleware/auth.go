package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminSubject = "admin"
	tokenTTL     = 24 * time.Hour
)

// IssueAdminToken signs a 24h HS256 token for the admin session.
func IssueAdminToken(secret []byte, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("JWT secret not set")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	return token.SignedString(secret)
}

// HasAdminToken reports whether r carries a valid admin bearer token.
func HasAdminToken(secret []byte, r *http.Request) bool {
	if len(secret) == 0 {
		return false
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "bearer ") {
		return false
	}
	tokenStr := strings.TrimSpace(authHeader[7:])

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	return err == nil && token.Valid && claims.Subject == adminSubject
}

// AdminAuth admits requests carrying a valid admin bearer token.
func AdminAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				http.Error(w, "server auth misconfigured", http.StatusInternalServerError)
				return
			}
			if !HasAdminToken(secret, r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
