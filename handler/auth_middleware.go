package handler

import (
	"context"
	"net/http"
	"noxa-api/common"
	"noxa-api/model"
	"strings"
)

type contextKey string

const PrincipalIDKey contextKey = "principalID"

// TokenVerifier checks a token of the expected kind and returns its subject.
type TokenVerifier interface {
	Verify(token string, expected model.TokenKind) (string, error)
}

// AuthMiddleware admits requests carrying a valid access token and stores the principal ID in the context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				err := common.NewAppError(http.StatusUnauthorized, "Authorization token is required", nil)
				err.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" || headerParts[1] == "" {
				err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				err.Send(w)
				return
			}

			principalID, err := verifier.Verify(headerParts[1], model.TokenKindAccess)
			if err != nil {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalIDKey, principalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFrom(r *http.Request) (string, *common.AppError) {
	id, ok := r.Context().Value(PrincipalIDKey).(string)
	if !ok || id == "" {
		return "", common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}
	return id, nil
}
