package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/access"
	"blog-api/internal/lib/logger/sl"
	"blog-api/internal/storage"
)

var ErrArticleNotFound = errors.New("article not found")

type Storage interface {
	SaveArticle(ctx context.Context, art models.Article) (int64, error)
	Articles(ctx context.Context) ([]models.Article, error)
	Article(ctx context.Context, id int64) (models.Article, error)
	UpdateArticle(ctx context.Context, art models.Article) error
	DeleteArticle(ctx context.Context, id int64) error
}

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

// Create stores art under ownerID and returns it with id, timestamps and author.
func (s *Service) Create(ctx context.Context, ownerID string, art models.Article) (models.Article, error) {
	const op = "service.article.Create"

	log := s.log.With(slog.String("op", op))

	now := s.now()

	art.UserID = ownerID
	art.CreatedAt = now
	art.UpdatedAt = now
	if art.Status == "" {
		art.Status = models.StatusDraft
	}

	// Send to storage layer
	id, err := s.storage.SaveArticle(ctx, art)
	if err != nil {
		log.Error("failed to create article", sl.Error(err))
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("article created", slog.Int64("article_id", id))

	return s.Get(ctx, id)
}

func (s *Service) GetAll(ctx context.Context) ([]models.Article, error) {
	const op = "service.article.GetAll"

	log := s.log.With(slog.String("op", op))

	// Send to storage layer
	arts, err := s.storage.Articles(ctx)
	if err != nil {
		log.Error("failed to get all articles", sl.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return arts, nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Article, error) {
	const op = "service.article.Get"

	log := s.log.With(slog.String("op", op))

	// Send to storage layer
	art, err := s.storage.Article(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			return models.Article{}, fmt.Errorf("%s: %w", op, ErrArticleNotFound)
		}
		log.Error("failed to get article", sl.Error(err))
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	return art, nil
}

// Editable returns the article if requesterID may mutate it.
func (s *Service) Editable(ctx context.Context, requesterID string, id int64) (models.Article, error) {
	const op = "service.article.Editable"

	art, err := s.Get(ctx, id)
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := access.Check(requesterID, art); err != nil {
		s.log.Info("article mutation refused",
			slog.String("op", op),
			slog.Int64("article_id", id),
			slog.String("requester_id", requesterID),
		)
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	return art, nil
}

// Update applies only the fields present in patch.
func (s *Service) Update(ctx context.Context, requesterID string, id int64, patch models.ArticlePatch) (models.Article, error) {
	const op = "service.article.Update"

	log := s.log.With(slog.String("op", op))

	art, err := s.Editable(ctx, requesterID, id)
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	patch.Apply(&art)
	art.UpdatedAt = s.now()

	// Send to storage layer
	if err := s.storage.UpdateArticle(ctx, art); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			return models.Article{}, fmt.Errorf("%s: %w", op, ErrArticleNotFound)
		}
		log.Error("failed to update article", sl.Error(err))
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.Get(ctx, id)
}

// Remove deletes the article and its comments.
func (s *Service) Remove(ctx context.Context, requesterID string, id int64) error {
	const op = "service.article.Remove"

	log := s.log.With(slog.String("op", op))

	if _, err := s.Editable(ctx, requesterID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Send to storage layer
	if err := s.storage.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			return fmt.Errorf("%s: %w", op, ErrArticleNotFound)
		}
		log.Error("failed to remove article", sl.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("article removed", slog.Int64("article_id", id))

	return nil
}
