package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain/models"
	"blog-api/internal/storage"
)

const articleColumns = `a.id, a.title, a.category, a.content, a.link_picture, a.status, a.user_id,
	a.created_at, a.updated_at`

func scanArticle(row scanner, art *models.Article) error {
	var (
		picture sql.NullString
		author  models.User
		photo   sql.NullString
		verif   sql.NullTime
	)

	err := row.Scan(
		&art.ID, &art.Title, &art.Category, &art.Content, &picture, &art.Status, &art.UserID,
		&art.CreatedAt, &art.UpdatedAt,
		&author.ID, &author.FullName, &author.Email, &author.BirthDate, &author.Gender, &photo, &author.Role,
		&author.PassHash, &verif, &author.CreatedAt, &author.UpdatedAt,
	)
	if err != nil {
		return err
	}

	art.LinkPicture = stringPtr(picture)
	author.LinkPhoto = stringPtr(photo)
	if verif.Valid {
		t := verif.Time
		author.EmailVerifiedAt = &t
	}
	art.Author = &author

	return nil
}

func (s *Storage) SaveArticle(ctx context.Context, art models.Article) (int64, error) {
	const op = "storage.sqlite.SaveArticle"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (title, category, content, link_picture, status, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		art.Title, art.Category, art.Content, nullString(art.LinkPicture), art.Status, art.UserID,
		art.CreatedAt, art.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// Articles returns every article, newest first, with its author.
func (s *Storage) Articles(ctx context.Context) ([]models.Article, error) {
	const op = "storage.sqlite.Articles"

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+articleColumns+`, `+userColumns+`
		FROM articles a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC, a.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	arts := make([]models.Article, 0)
	for rows.Next() {
		var art models.Article
		if err := scanArticle(rows, &art); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		arts = append(arts, art)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return arts, nil
}

func (s *Storage) Article(ctx context.Context, id int64) (models.Article, error) {
	const op = "storage.sqlite.Article"

	row := s.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`, `+userColumns+`
		FROM articles a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = ?`, id)

	var art models.Article
	if err := scanArticle(row, &art); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Article{}, fmt.Errorf("%s: %w", op, storage.ErrArticleNotFound)
		}
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	return art, nil
}

// UpdateArticle overwrites the mutable fields. The owner is part of the
// predicate, so a row owned by someone else is reported as not found.
func (s *Storage) UpdateArticle(ctx context.Context, art models.Article) error {
	const op = "storage.sqlite.UpdateArticle"

	res, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET title = ?, category = ?, content = ?, link_picture = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		art.Title, art.Category, art.Content, nullString(art.LinkPicture), art.Status, art.UpdatedAt,
		art.ID, art.UserID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return checkAffected(op, res, storage.ErrArticleNotFound)
}

// DeleteArticle removes the article and, through ON DELETE CASCADE, its
// comments in one transaction.
func (s *Storage) DeleteArticle(ctx context.Context, id int64) error {
	const op = "storage.sqlite.DeleteArticle"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := checkAffected(op, res, storage.ErrArticleNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
