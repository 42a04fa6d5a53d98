package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/domain/models"
	"blog-api/internal/storage"
)

func (s *Storage) SaveToken(ctx context.Context, token models.Token) error {
	const op = "storage.sqlite.SaveToken"

	var expiresAt sql.NullTime
	if token.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *token.ExpiresAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personal_access_tokens (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token.ID, token.UserID, token.CreatedAt, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Token(ctx context.Context, id string) (models.Token, error) {
	const op = "storage.sqlite.Token"

	var (
		token     models.Token
		expiresAt sql.NullTime
		lastUsed  sql.NullTime
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at, last_used_at FROM personal_access_tokens WHERE id = ?`, id,
	).Scan(&token.ID, &token.UserID, &token.CreatedAt, &expiresAt, &lastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Token{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.Token{}, fmt.Errorf("%s: %w", op, err)
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		token.ExpiresAt = &t
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		token.LastUsedAt = &t
	}

	return token, nil
}

func (s *Storage) TouchToken(ctx context.Context, id string, usedAt time.Time) error {
	const op = "storage.sqlite.TouchToken"

	res, err := s.db.ExecContext(ctx, `UPDATE personal_access_tokens SET last_used_at = ? WHERE id = ?`, usedAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return checkAffected(op, res, storage.ErrTokenNotFound)
}

func (s *Storage) DeleteToken(ctx context.Context, id string) error {
	const op = "storage.sqlite.DeleteToken"

	res, err := s.db.ExecContext(ctx, `DELETE FROM personal_access_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return checkAffected(op, res, storage.ErrTokenNotFound)
}
