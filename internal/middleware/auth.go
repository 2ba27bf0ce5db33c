package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from the access token.
// Handlers trust it as-is and never re-derive who is calling.
type Identity struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Username  string
}

// FromContext returns the caller identity placed by Auth.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// Auth verifies the Bearer access token and injects the caller identity
// into the request context.
func Auth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "Invalid authorization header format")
				return
			}

			identity, err := validateToken(parts[1], secret)
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateToken(tokenString, secret string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, stderrors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, stderrors.New("invalid claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}

	accountIDRaw, ok := claims["account_id"].(string)
	if !ok {
		return nil, stderrors.New("missing account_id claim")
	}
	accountID, err := uuid.Parse(accountIDRaw)
	if err != nil {
		return nil, err
	}

	username, _ := claims["username"].(string)

	return &Identity{
		UserID:    userID,
		AccountID: accountID,
		Username:  username,
	}, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"unauthorized","message":"` + message + `"}}`))
}
