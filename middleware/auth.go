package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reviewshare/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// UserIDKey is the context key under which Auth and OptionalAuth store the
// token subject.
const UserIDKey contextKey = "userID"

var (
	errNoToken      = errors.New("Unauthorized: No token provided")
	errInvalidToken = errors.New("Unauthorized: Invalid or expired token")
	errNoSubject    = errors.New("Unauthorized: User ID (sub) claim is missing or invalid")
)

// UserIDFromContext returns the authenticated subject set by Auth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// Auth returns middleware that requires an HS256 bearer token signed with
// secret and stores its "sub" claim in the request context.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Read and verify the token; any failure stops the request here.
			userID, err := subject(r, secret)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			// 2. The subject travels in the context so handlers can compare it
			// with the userId they were asked about.
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth is Auth for routes that also serve anonymous callers. A
// request without a token passes through with no subject; a request with a
// bad token is still rejected.
func OptionalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := subject(r, secret)
			if errors.Is(err, errNoToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func subject(r *http.Request, secret []byte) (string, error) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString == "" {
		// Browsers cannot set headers on websocket upgrades.
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		return "", errNoToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(secret) == 0 {
			return nil, fmt.Errorf("server is not configured to validate JWTs")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		logger.Sugar.Warnf("Invalid token: %v", err)
		return "", errInvalidToken
	}

	userID, err := token.Claims.GetSubject()
	if err != nil || userID == "" {
		return "", errNoSubject
	}
	return userID, nil
}
