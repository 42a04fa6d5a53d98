package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"blog-api/internal/domain/models"
	"blog-api/internal/http-server/middleware/auth"
	req "blog-api/internal/lib/api/request"
	resp "blog-api/internal/lib/api/response"
	"blog-api/internal/lib/api/validate"
	"blog-api/internal/lib/logger/sl"
	"blog-api/internal/service/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Service interface {
	Register(ctx context.Context, user models.User, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Logout(ctx context.Context, tokenID string) error
	UserByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	Remove(ctx context.Context, id string) error
}

type User struct {
	log       *slog.Logger
	service   Service
	validator *validate.Validator
	auth      func(http.Handler) http.Handler
	limit     func(http.Handler) http.Handler
}

// New builds the user handlers. authMW guards the routes of the current
// user; limitMW throttles register and login.
func New(log *slog.Logger, service Service, authMW, limitMW func(http.Handler) http.Handler) *User {
	return &User{
		log:       log,
		service:   service,
		validator: validate.New(),
		auth:      authMW,
		limit:     limitMW,
	}
}

func (u *User) Register() func(r chi.Router) {
	return func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(u.limit)

			r.Post("/register", u.register)
			r.Post("/login", u.login)
		})
		r.Get("/users/{id}", u.getByID)

		// Require auth
		r.Group(func(r chi.Router) {
			r.Use(u.auth)

			r.Get("/user", u.current)
			r.Put("/user", u.update)
			r.Delete("/user", u.remove)
			r.Post("/logout", u.logout)
		})
	}
}

func (u *User) register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.register"

	log := u.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var in req.Register
	if err := req.Decode(r, &in); err != nil {
		log.Info("failed to decode request", sl.Error(err))
		resp.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Normalize()

	// Validation
	if fields := u.validator.Struct(in); fields != nil {
		log.Info("invalid register payload")
		resp.Invalid(w, r, fields)
		return
	}

	// Send to service layer
	usr, token, err := u.service.Register(r.Context(), models.User{
		FullName:  in.FullName,
		Email:     in.Email,
		BirthDate: in.BirthDate,
		Gender:    in.Gender,
		LinkPhoto: in.LinkPhoto,
		Role:      in.Role,
	}, in.Password)
	if err != nil {
		if errors.Is(err, user.ErrUserExists) {
			resp.Invalid(w, r, validate.Fields{"email": "The email has already been taken."})
			return
		}
		log.Error("failed to register user", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	// Write response
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp.Auth{User: usr, Token: token})
}

func (u *User) login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.login"

	log := u.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var cred req.Credentials
	if err := req.Decode(r, &cred); err != nil {
		log.Info("failed to decode request", sl.Error(err))
		resp.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	cred.Normalize()

	// Validate user creds
	if fields := u.validator.Struct(cred); fields != nil {
		resp.Invalid(w, r, fields)
		return
	}

	// Send to service layer
	usr, token, err := u.service.Login(r.Context(), cred.Email, cred.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			resp.Invalid(w, r, validate.Fields{"email": user.ErrInvalidCredentials.Error()})
			return
		}
		log.Error("failed to login", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	// Write response
	render.JSON(w, r, resp.Auth{User: usr, Token: token})
}

func (u *User) current(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	render.JSON(w, r, usr)
}

func (u *User) logout(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.logout"

	log := u.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokenID, ok := auth.TokenIDFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	// Send to service layer
	if err := u.service.Logout(r.Context(), tokenID); err != nil {
		if errors.Is(err, user.ErrUnauthenticated) {
			resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		log.Error("failed to logout", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	render.JSON(w, r, resp.OK("Successfully logged out."))
}

func (u *User) getByID(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.getByID"

	log := u.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Send to service layer
	usr, err := u.service.UserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			resp.Fail(w, r, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to get user by id", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	// Write to response
	render.JSON(w, r, usr)
}

func (u *User) update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.update"

	log := u.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	var upd req.UpdateUser
	if err := req.Decode(r, &upd); err != nil {
		log.Info("failed to decode request", sl.Error(err))
		resp.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	upd.Normalize()

	// Validation
	if fields := u.validator.Sometimes(upd.Fields()...); fields != nil {
		resp.Invalid(w, r, fields)
		return
	}

	// Send to service layer
	usr, err := u.service.Update(r.Context(), me.ID, upd.Patch())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserExists):
			resp.Invalid(w, r, validate.Fields{"email": "The email has already been taken."})
		case errors.Is(err, user.ErrUserNotFound):
			resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		default:
			log.Error("failed to update user", sl.Error(err))
			resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	// Write to response
	render.JSON(w, r, usr)
}

func (u *User) remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.remove"

	log := u.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	// Send to service layer
	if err := u.service.Remove(r.Context(), me.ID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			resp.Fail(w, r, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		log.Error("failed to remove user", sl.Error(err))
		resp.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp.NoContent(w, r)
}
