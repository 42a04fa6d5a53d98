package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/access"
	"blog-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) SaveArticle(ctx context.Context, art models.Article) (int64, error) {
	args := m.Called(ctx, art)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) Articles(ctx context.Context) ([]models.Article, error) {
	args := m.Called(ctx)
	arts, _ := args.Get(0).([]models.Article)
	return arts, args.Error(1)
}

func (m *StorageMock) Article(ctx context.Context, id int64) (models.Article, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Article), args.Error(1)
}

func (m *StorageMock) UpdateArticle(ctx context.Context, art models.Article) error {
	return m.Called(ctx, art).Error(0)
}

func (m *StorageMock) DeleteArticle(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(st Storage) *Service {
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)), st)
	s.now = func() time.Time { return now }
	return s
}

func notFound() error {
	return fmt.Errorf("storage.sqlite.Article: %w", storage.ErrArticleNotFound)
}

func ptr(s string) *string { return &s }

func existing() models.Article {
	return models.Article{
		ID:       1,
		Title:    "Hi",
		Category: "Tech",
		Content:  "Body",
		Status:   models.StatusDraft,
		UserID:   "owner",
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("SaveArticle", ctx, models.Article{
		Title:     "Hi",
		Category:  "Tech",
		Content:   "Body",
		Status:    models.StatusDraft,
		UserID:    "owner",
		CreatedAt: now,
		UpdatedAt: now,
	}).Return(int64(1), nil).Once()
	st.On("Article", ctx, int64(1)).Return(existing(), nil).Once()

	art, err := newService(st).Create(ctx, "owner", models.Article{Title: "Hi", Category: "Tech", Content: "Body"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), art.ID)
	assert.Equal(t, models.StatusDraft, art.Status)

	st.AssertExpectations(t)
}

func TestCreate_StorageError(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("SaveArticle", ctx, mock.Anything).Return(int64(0), errors.New("disk full"))

	_, err := newService(st).Create(ctx, "owner", models.Article{Title: "Hi"})
	assert.Error(t, err)
}

func TestGetAll(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("Articles", ctx).Return([]models.Article{existing()}, nil)

	arts, err := newService(st).GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, arts, 1)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("Article", ctx, int64(9)).Return(models.Article{}, notFound())

	_, err := newService(st).Get(ctx, 9)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestUpdate_PartialPayload(t *testing.T) {
	ctx := context.Background()

	updated := existing()
	updated.Status = models.StatusPublished
	updated.UpdatedAt = now

	st := new(StorageMock)
	st.On("Article", ctx, int64(1)).Return(existing(), nil).Once()
	st.On("UpdateArticle", ctx, updated).Return(nil).Once()
	st.On("Article", ctx, int64(1)).Return(updated, nil).Once()

	art, err := newService(st).Update(ctx, "owner", 1, models.ArticlePatch{Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, art.Status)
	assert.Equal(t, "Hi", art.Title)
	assert.Equal(t, "Tech", art.Category)
	assert.Equal(t, "Body", art.Content)

	st.AssertExpectations(t)
}

func TestUpdate_Forbidden(t *testing.T) {
	ctx := context.Background()

	patches := []models.ArticlePatch{
		{Status: ptr(models.StatusPublished)},
		{Title: ptr("")},
		{},
	}

	for _, patch := range patches {
		st := new(StorageMock)
		st.On("Article", ctx, int64(1)).Return(existing(), nil)

		_, err := newService(st).Update(ctx, "intruder", 1, patch)
		assert.ErrorIs(t, err, access.ErrForbidden)
		st.AssertNotCalled(t, "UpdateArticle", mock.Anything, mock.Anything)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("Article", ctx, int64(9)).Return(models.Article{}, notFound())

	_, err := newService(st).Update(ctx, "owner", 9, models.ArticlePatch{})
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestUpdate_LostRace(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("Article", ctx, int64(1)).Return(existing(), nil)
	st.On("UpdateArticle", ctx, mock.Anything).Return(fmt.Errorf("op: %w", storage.ErrArticleNotFound))

	_, err := newService(st).Update(ctx, "owner", 1, models.ArticlePatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		st := new(StorageMock)
		st.On("Article", ctx, int64(1)).Return(existing(), nil)
		st.On("DeleteArticle", ctx, int64(1)).Return(nil).Once()

		require.NoError(t, newService(st).Remove(ctx, "owner", 1))
		st.AssertExpectations(t)
	})

	t.Run("stranger", func(t *testing.T) {
		st := new(StorageMock)
		st.On("Article", ctx, int64(1)).Return(existing(), nil)

		err := newService(st).Remove(ctx, "intruder", 1)
		assert.ErrorIs(t, err, access.ErrForbidden)
		st.AssertNotCalled(t, "DeleteArticle", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		st := new(StorageMock)
		st.On("Article", ctx, int64(9)).Return(models.Article{}, notFound())

		err := newService(st).Remove(ctx, "owner", 9)
		assert.ErrorIs(t, err, ErrArticleNotFound)
	})
}
