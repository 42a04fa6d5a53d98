package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/logger/sl"
	"blog-api/internal/storage"
)

var ErrArticleNotFound = errors.New("article not found")

type Storage interface {
	Article(ctx context.Context, id int64) (models.Article, error)
	SaveComment(ctx context.Context, c models.Comment) (int64, error)
	Comment(ctx context.Context, id int64) (models.Comment, error)
	CommentsByArticle(ctx context.Context, articleID int64) ([]models.Comment, error)
}

// Service manages comments. Comments cannot be edited or deleted once posted;
// they disappear only with their article or author.
type Service struct {
	log     *slog.Logger
	storage Storage
	now     func() time.Time
}

func New(log *slog.Logger, storage Storage) *Service {
	return &Service{
		log:     log,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, articleID int64, content string) (models.Comment, error) {
	const op = "service.comment.Create"

	log := s.log.With(slog.String("op", op))

	now := s.now()

	id, err := s.storage.SaveComment(ctx, models.Comment{
		Content:   content,
		UserID:    ownerID,
		ArticleID: articleID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			return models.Comment{}, fmt.Errorf("%s: %w", op, ErrArticleNotFound)
		}
		log.Error("failed to create comment", sl.Error(err))
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.storage.Comment(ctx, id)
	if err != nil {
		log.Error("failed to load created comment", sl.Error(err))
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Service) ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error) {
	const op = "service.comment.ListByArticle"

	log := s.log.With(slog.String("op", op))

	if _, err := s.storage.Article(ctx, articleID); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrArticleNotFound)
		}
		log.Error("failed to get article", sl.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comments, err := s.storage.CommentsByArticle(ctx, articleID)
	if err != nil {
		log.Error("failed to get comments", sl.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}
