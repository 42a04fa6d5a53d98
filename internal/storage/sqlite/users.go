package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain/models"
	"blog-api/internal/storage"
)

const userColumns = `u.id, u.fullname, u.email, u.datebirthday, u.gender, u.linkphoto, u.role,
	u.pass_hash, u.email_verified_at, u.created_at, u.updated_at`

func scanUser(row scanner, user *models.User) error {
	var (
		photo    sql.NullString
		verified sql.NullTime
	)

	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.BirthDate, &user.Gender, &photo, &user.Role,
		&user.PassHash, &verified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	user.LinkPhoto = stringPtr(photo)
	if verified.Valid {
		t := verified.Time
		user.EmailVerifiedAt = &t
	}

	return nil
}

func (s *Storage) SaveUser(ctx context.Context, user models.User) error {
	const op = "storage.sqlite.SaveUser"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, fullname, email, datebirthday, gender, linkphoto, role, pass_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FullName, user.Email, user.BirthDate, user.Gender, nullString(user.LinkPhoto),
		user.Role, user.PassHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.sqlite.UserByID"

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)

	var user models.User
	if err := scanUser(row, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.sqlite.UserByEmail"

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = ?`, email)

	var user models.User
	if err := scanUser(row, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.sqlite.UpdateUser"

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET fullname = ?, email = ?, datebirthday = ?, gender = ?, linkphoto = ?, updated_at = ?
		WHERE id = ?`,
		user.FullName, user.Email, user.BirthDate, user.Gender, nullString(user.LinkPhoto), user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return checkAffected(op, res, storage.ErrUserNotFound)
}

// DeleteUser removes the user; tokens, articles and comments go with it via
// ON DELETE CASCADE inside the same transaction.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.sqlite.DeleteUser"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := checkAffected(op, res, storage.ErrUserNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func checkAffected(op string, res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
