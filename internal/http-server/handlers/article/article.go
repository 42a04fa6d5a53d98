package article

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"blog-api/internal/domain/models"
	"blog-api/internal/http-server/middleware/auth"
	"blog-api/internal/lib/access"
	req "blog-api/internal/lib/api/request"
	resp "blog-api/internal/lib/api/response"
	"blog-api/internal/lib/api/validate"
	"blog-api/internal/lib/logger/sl"
	"blog-api/internal/service/article"
	"blog-api/internal/service/comment"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Service interface {
	Create(ctx context.Context, ownerID string, art models.Article) (models.Article, error)
	GetAll(ctx context.Context) ([]models.Article, error)
	Get(ctx context.Context, id int64) (models.Article, error)
	Editable(ctx context.Context, requesterID string, id int64) (models.Article, error)
	Update(ctx context.Context, requesterID string, id int64, patch models.ArticlePatch) (models.Article, error)
	Remove(ctx context.Context, requesterID string, id int64) error
}

type CommentService interface {
	Create(ctx context.Context, ownerID string, articleID int64, content string) (models.Comment, error)
	ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error)
}

type Article struct {
	log       *slog.Logger
	service   Service
	comments  CommentService
	validator *validate.Validator
	auth      func(http.Handler) http.Handler
}

func New(log *slog.Logger, service Service, comments CommentService, authMW func(http.Handler) http.Handler) *Article {
	return &Article{
		log:       log,
		service:   service,
		comments:  comments,
		validator: validate.New(),
		auth:      authMW,
	}
}

func (a *Article) Register() func(r chi.Router) {
	return func(r chi.Router) {
		// Public routes
		r.Get("/", a.getAll)
		r.Get("/{id}", a.getByID)
		r.Get("/{id}/comments", a.getComments)

		// Require auth
		r.Group(func(r chi.Router) {
			r.Use(a.auth)

			r.Post("/", a.create)
			r.Put("/{id}", a.update)
			r.Delete("/{id}", a.remove)
			r.Post("/{id}/comments", a.createComment)
		})
	}
}

func (a *Article) getAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.getAll"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Send to service layer
	arts, err := a.service.GetAll(r.Context())
	if err != nil {
		log.Error("failed to get articles", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if arts == nil {
		arts = []models.Article{}
	}

	render.JSON(w, r, arts)
}

func (a *Article) getByID(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.getByID"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	// Send to service layer
	art, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, log, err)
		return
	}

	render.JSON(w, r, art)
}

func (a *Article) create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.create"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	var in req.CreateArticle
	if err := req.Decode(r, &in); err != nil {
		log.Info("failed to decode request", sl.Error(err))
		resp.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Normalize()

	// Validation
	if fields := a.validator.Struct(in); fields != nil {
		resp.Invalid(w, r, fields)
		return
	}

	// Send to service layer
	art, err := a.service.Create(r.Context(), me.ID, in.Article())
	if err != nil {
		a.fail(w, r, log, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, art)
}

// update checks ownership before looking at the payload, so a stranger gets
// 403 whatever they send.
func (a *Article) update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.update"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	// Checking user permission
	if _, err := a.service.Editable(r.Context(), me.ID, id); err != nil {
		a.fail(w, r, log, err)
		return
	}

	var upd req.UpdateArticle
	if err := req.Decode(r, &upd); err != nil {
		log.Info("failed to decode request", sl.Error(err))
		resp.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	upd.Normalize()

	// Validation
	if fields := a.validator.Sometimes(upd.Fields()...); fields != nil {
		resp.Invalid(w, r, fields)
		return
	}

	// Send to service layer
	art, err := a.service.Update(r.Context(), me.ID, id, upd.Patch())
	if err != nil {
		a.fail(w, r, log, err)
		return
	}

	render.JSON(w, r, art)
}

func (a *Article) remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.remove"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	// Send to service layer
	if err := a.service.Remove(r.Context(), me.ID, id); err != nil {
		a.fail(w, r, log, err)
		return
	}

	resp.NoContent(w, r)
}

func (a *Article) getComments(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.getComments"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	// Send to service layer
	comments, err := a.comments.ListByArticle(r.Context(), id)
	if err != nil {
		a.fail(w, r, log, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	render.JSON(w, r, comments)
}

func (a *Article) createComment(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.createComment"

	log := a.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	var in req.CreateComment
	if err := req.Decode(r, &in); err != nil {
		log.Info("failed to decode request", sl.Error(err))
		resp.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Normalize()

	// Validation
	if fields := a.validator.Struct(in); fields != nil {
		resp.Invalid(w, r, fields)
		return
	}

	// Send to service layer
	c, err := a.comments.Create(r.Context(), me.ID, id, in.Content)
	if err != nil {
		a.fail(w, r, log, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c)
}

// fail maps service errors onto status codes.
func (a *Article) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, article.ErrArticleNotFound), errors.Is(err, comment.ErrArticleNotFound):
		resp.Fail(w, r, http.StatusNotFound, "article not found")
	case errors.Is(err, access.ErrForbidden):
		resp.Fail(w, r, http.StatusForbidden, "This action is unauthorized.")
	default:
		log.Error("request failed", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
	}
}

// articleID parses the {id} url param. A malformed id cannot name an
// article, so it answers 404.
func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		resp.Fail(w, r, http.StatusNotFound, "article not found")
		return 0, false
	}

	return id, true
}
