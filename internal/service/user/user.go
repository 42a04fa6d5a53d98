package user

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/jwt"
	"blog-api/internal/lib/logger/sl"
	"blog-api/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("the email has already been taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

type Storage interface {
	SaveUser(ctx context.Context, user models.User) error
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id string) error

	SaveToken(ctx context.Context, token models.Token) error
	Token(ctx context.Context, id string) (models.Token, error)
	TouchToken(ctx context.Context, id string, usedAt time.Time) error
	DeleteToken(ctx context.Context, id string) error
}

type Service struct {
	log        *slog.Logger
	storage    Storage
	secret     string
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time

	// compared against on unknown emails
	dummyHash []byte
}

func New(log *slog.Logger, storage Storage, secret string, ttl time.Duration, bcryptCost int) *Service {
	dummyHash, err := bcrypt.GenerateFromPassword(digest("dummy-password"), bcryptCost)
	if err != nil {
		log.Error("failed to generate dummy hash", sl.Error(err))
	}

	return &Service{
		log:        log,
		storage:    storage,
		secret:     secret,
		tokenTTL:   ttl,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
		dummyHash:  dummyHash,
	}
}

// digest folds a password of any length into bcrypt's 72-byte input limit.
func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// Register persists a new user under a random UUID and issues its first token.
func (s *Service) Register(ctx context.Context, user models.User, password string) (models.User, string, error) {
	const op = "service.user.Register"

	log := s.log.With(slog.String("op", op))

	// Hashing password
	passHash, err := bcrypt.GenerateFromPassword(digest(password), s.bcryptCost)
	if err != nil {
		log.Error("failed to generate hash from password", sl.Error(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()

	user.ID = uuid.NewString()
	user.PassHash = passHash
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.LinkPhoto != nil && *user.LinkPhoto == "" {
		user.LinkPhoto = nil
	}

	// Send to data layer
	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Info("email already taken")
			return models.User{}, "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		log.Error("failed to register user", sl.Error(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		log.Error("failed to issue token", sl.Error(err))
		// drop the user so that the email stays free for a retry
		if derr := s.storage.DeleteUser(ctx, user.ID); derr != nil {
			log.Error("failed to roll back registration", sl.Error(derr))
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", user.ID))

	return user, token, nil
}

// Login checks the credentials and issues an additional token. Unknown email
// and wrong password fail with the same error.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	const op = "service.user.Login"

	log := s.log.With(slog.String("op", op))

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// keep timing close to the wrong-password path
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, digest(password))
			log.Info("login with unknown email")
			return models.User{}, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user by email", sl.Error(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	// Checking if password correct
	if err := bcrypt.CompareHashAndPassword(user.PassHash, digest(password)); err != nil {
		log.Info("incorrect password", slog.String("user_id", user.ID))
		return models.User{}, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		log.Error("failed to issue token", sl.Error(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

// Authenticate resolves a verified token's claims to the owning user. The
// token row must exist, belong to userID and not be expired.
func (s *Service) Authenticate(ctx context.Context, userID, tokenID string) (models.User, error) {
	const op = "service.user.Authenticate"

	log := s.log.With(slog.String("op", op))

	token, err := s.storage.Token(ctx, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		log.Error("failed to get token", sl.Error(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()

	if token.UserID != userID || token.Expired(now) {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	user, err := s.storage.UserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		log.Error("failed to get user", sl.Error(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.TouchToken(ctx, token.ID, now); err != nil {
		log.Warn("failed to record token usage", sl.Error(err))
	}

	return user, nil
}

// Logout revokes exactly the given token.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	const op = "service.user.Logout"

	log := s.log.With(slog.String("op", op))

	if err := s.storage.DeleteToken(ctx, tokenID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		log.Error("failed to revoke token", sl.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "service.user.UserByID"

	log := s.log.With(slog.String("op", op))

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		log.Error("failed to get user", sl.Error(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Service) Update(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	const op = "service.user.Update"

	log := s.log.With(slog.String("op", op))

	user, err := s.UserByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	patch.Apply(&user)
	user.UpdatedAt = s.now()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserExists):
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		case errors.Is(err, storage.ErrUserNotFound):
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		log.Error("failed to update user", sl.Error(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Remove deletes the user together with their tokens, articles and comments.
func (s *Service) Remove(ctx context.Context, id string) error {
	const op = "service.user.Remove"

	log := s.log.With(slog.String("op", op))

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		log.Error("failed to remove user", sl.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user removed", slog.String("user_id", id))

	return nil
}

func (s *Service) issueToken(ctx context.Context, user models.User) (string, error) {
	now := s.now()

	token := models.Token{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
	}
	if s.tokenTTL > 0 {
		exp := now.Add(s.tokenTTL)
		token.ExpiresAt = &exp
	}

	if err := s.storage.SaveToken(ctx, token); err != nil {
		return "", err
	}

	return jwt.NewToken(user, token.ID, s.tokenTTL, s.secret)
}
