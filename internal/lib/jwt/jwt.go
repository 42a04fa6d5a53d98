package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/domain/models"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimUserID  = "uid"
	ClaimTokenID = "jti"
)

var ErrInvalidClaims = errors.New("invalid token claims")

// NewToken signs a bearer token for the user. The token id must match a
// persisted token row; a zero duration produces a token without expiry.
func NewToken(user models.User, tokenID string, duration time.Duration, secret string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		ClaimUserID:  user.ID,
		ClaimTokenID: tokenID,
		"iat":        now.Unix(),
	}
	if duration != 0 {
		claims["exp"] = now.Add(duration).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Claims returns the user and token ids of the token verified by
// jwtauth.Verifier earlier in the chain.
func Claims(ctx context.Context) (userID, tokenID string, err error) {
	const op = "lib.jwt.Claims"

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	userID, _ = claims[ClaimUserID].(string)
	tokenID, _ = claims[ClaimTokenID].(string)

	if userID == "" || tokenID == "" {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidClaims)
	}

	return userID, tokenID, nil
}
