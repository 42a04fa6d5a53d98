package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain/models"
	"blog-api/internal/storage"
)

const commentColumns = `c.id, c.content, c.user_id, c.article_id, c.created_at, c.updated_at`

func scanComment(row scanner, c *models.Comment) error {
	var (
		author models.User
		photo  sql.NullString
		verif  sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.Content, &c.UserID, &c.ArticleID, &c.CreatedAt, &c.UpdatedAt,
		&author.ID, &author.FullName, &author.Email, &author.BirthDate, &author.Gender, &photo, &author.Role,
		&author.PassHash, &verif, &author.CreatedAt, &author.UpdatedAt,
	)
	if err != nil {
		return err
	}

	author.LinkPhoto = stringPtr(photo)
	if verif.Valid {
		t := verif.Time
		author.EmailVerifiedAt = &t
	}
	c.Author = &author

	return nil
}

// SaveComment inserts a comment, checking within the same transaction that
// the article still exists.
func (s *Storage) SaveComment(ctx context.Context, c models.Comment) (int64, error) {
	const op = "storage.sqlite.SaveComment"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE id = ?`, c.ArticleID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrArticleNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO comments (content, user_id, article_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Content, c.UserID, c.ArticleID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) Comment(ctx context.Context, id int64) (models.Comment, error) {
	const op = "storage.sqlite.Comment"

	row := s.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+`, `+userColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = ?`, id)

	var c models.Comment
	if err := scanComment(row, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comment{}, fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
		}
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// CommentsByArticle returns an article's comments, oldest first.
func (s *Storage) CommentsByArticle(ctx context.Context, articleID int64) ([]models.Comment, error) {
	const op = "storage.sqlite.CommentsByArticle"

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`, `+userColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.article_id = ?
		ORDER BY c.created_at ASC, c.id ASC`, articleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := scanComment(rows, &c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}
