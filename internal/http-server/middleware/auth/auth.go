// Package auth resolves the bearer token of a request to its user.
//
// New verifies the token signature and expiry with jwtauth, then checks that
// the token row still exists. On success the user and the token id are put
// into the request context; otherwise the request ends with 401.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"blog-api/internal/domain/models"
	resp "blog-api/internal/lib/api/response"
	"blog-api/internal/lib/jwt"
	"blog-api/internal/lib/logger/sl"
	"blog-api/internal/service/user"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type ctxKey string

const (
	userKey    ctxKey = "user"
	tokenIDKey ctxKey = "token_id"
)

const msgUnauthenticated = "Unauthenticated."

type Authenticator interface {
	Authenticate(ctx context.Context, userID, tokenID string) (models.User, error)
}

func New(log *slog.Logger, secret string, authenticator Authenticator) func(http.Handler) http.Handler {
	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)
	verifier := jwtauth.Verifier(tokenAuth)

	return func(next http.Handler) http.Handler {
		return verifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.auth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userID, tokenID, err := jwt.Claims(r.Context())
			if err != nil {
				log.Debug("bearer token rejected", sl.Error(err))
				resp.Fail(w, r, http.StatusUnauthorized, msgUnauthenticated)
				return
			}

			u, err := authenticator.Authenticate(r.Context(), userID, tokenID)
			if err != nil {
				if errors.Is(err, user.ErrUnauthenticated) {
					log.Debug("token revoked or expired")
					resp.Fail(w, r, http.StatusUnauthorized, msgUnauthenticated)
					return
				}
				log.Error("failed to authenticate", sl.Error(err))
				resp.Fail(w, r, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u, tokenID)))
		}))
	}
}

// UserFromContext returns the authenticated user of the request.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// TokenIDFromContext returns the id of the token the request was made with.
func TokenIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tokenIDKey).(string)
	return id, ok && id != ""
}

// WithUser stores an authenticated user and token id in ctx.
func WithUser(ctx context.Context, u models.User, tokenID string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, tokenIDKey, tokenID)
}
