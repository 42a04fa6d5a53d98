package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/jwt"
	"blog-api/internal/storage"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret"

type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) SaveUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *StorageMock) UserByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) UserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *StorageMock) UpdateUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *StorageMock) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *StorageMock) SaveToken(ctx context.Context, token models.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *StorageMock) Token(ctx context.Context, id string) (models.Token, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Token), args.Error(1)
}

func (m *StorageMock) TouchToken(ctx context.Context, id string, usedAt time.Time) error {
	return m.Called(ctx, id, usedAt).Error(0)
}

func (m *StorageMock) DeleteToken(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(st Storage) *Service {
	return New(newNoopLogger(), st, secret, time.Hour, bcrypt.MinCost)
}

func hash(t *testing.T, password string) []byte {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword(digest(password), bcrypt.MinCost)
	require.NoError(t, err)

	return h
}

func tokenID(t *testing.T, token string) string {
	t.Helper()

	tok, err := jwtauth.VerifyToken(jwtauth.New("HS256", []byte(secret), nil), token)
	require.NoError(t, err)

	_, id, err := jwt.Claims(jwtauth.NewContext(context.Background(), tok, nil))
	require.NoError(t, err)

	return id
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	empty := ""

	st := new(StorageMock)
	st.On("SaveUser", ctx, mock.MatchedBy(func(u models.User) bool {
		return u.ID != "" &&
			u.Email == "jane@x.com" &&
			u.LinkPhoto == nil &&
			bcrypt.CompareHashAndPassword(u.PassHash, digest("password1")) == nil
	})).Return(nil).Once()
	st.On("SaveToken", ctx, mock.AnythingOfType("models.Token")).Return(nil).Once()

	user, token, err := newService(st).Register(ctx, models.User{
		FullName:  "Jane",
		Email:     "jane@x.com",
		BirthDate: "1990-01-01",
		Gender:    "female",
		LinkPhoto: &empty,
		Role:      models.RoleUser,
	}, "password1")
	require.NoError(t, err)

	assert.Len(t, user.ID, 36)
	assert.NotEmpty(t, token)
	assert.False(t, user.CreatedAt.IsZero())

	saved := st.Calls[1].Arguments.Get(1).(models.Token)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, saved.ID, tokenID(t, token))
	require.NotNil(t, saved.ExpiresAt)

	st.AssertExpectations(t)
}

func TestRegister_IDsAreRandom(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("SaveUser", ctx, mock.Anything).Return(nil)
	st.On("SaveToken", ctx, mock.Anything).Return(nil)

	svc := newService(st)

	a, _, err := svc.Register(ctx, models.User{Email: "a@x.com"}, "password1")
	require.NoError(t, err)
	b, _, err := svc.Register(ctx, models.User{Email: "b@x.com"}, "password1")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("SaveUser", ctx, mock.Anything).Return(wrap(storage.ErrUserExists)).Once()

	_, _, err := newService(st).Register(ctx, models.User{Email: "jane@x.com"}, "password1")
	assert.ErrorIs(t, err, ErrUserExists)
	st.AssertNotCalled(t, "SaveToken", mock.Anything, mock.Anything)
}

func TestRegister_TokenFailureRemovesUser(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("SaveUser", ctx, mock.Anything).Return(nil).Once()
	st.On("SaveToken", ctx, mock.Anything).Return(errors.New("disk")).Once()
	st.On("DeleteUser", ctx, mock.AnythingOfType("string")).Return(nil).Once()

	_, _, err := newService(st).Register(ctx, models.User{Email: "jane@x.com"}, "password1")
	require.Error(t, err)

	saved := st.Calls[0].Arguments.Get(1).(models.User)
	st.AssertCalled(t, "DeleteUser", ctx, saved.ID)
	st.AssertExpectations(t)
}

func TestRegister_LongPassword(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	var saved models.User
	st := new(StorageMock)
	st.On("SaveUser", ctx, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(models.User)
	}).Return(nil).Once()
	st.On("SaveToken", ctx, mock.Anything).Return(nil)

	svc := newService(st)

	_, _, err := svc.Register(ctx, models.User{Email: "jane@x.com"}, long)
	require.NoError(t, err)

	st.On("UserByEmail", ctx, "jane@x.com").Return(saved, nil)

	_, _, err = svc.Login(ctx, "jane@x.com", long)
	require.NoError(t, err)

	// bytes past the 72nd still count
	_, _, err = svc.Login(ctx, "jane@x.com", long[:79]+"q")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNew_PrecomputesDummyHash(t *testing.T) {
	svc := newService(new(StorageMock))

	require.NotEmpty(t, svc.dummyHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(svc.dummyHash, digest("dummy-password")))
}

func wrap(err error) error {
	return errors.Join(errors.New("storage"), err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: "user-1", Email: "jane@x.com", PassHash: hash(t, "password1")}

	t.Run("success issues an additional token", func(t *testing.T) {
		st := new(StorageMock)
		st.On("UserByEmail", ctx, "jane@x.com").Return(user, nil)
		st.On("SaveToken", ctx, mock.MatchedBy(func(tok models.Token) bool { return tok.UserID == "user-1" })).Return(nil).Twice()

		svc := newService(st)

		got, first, err := svc.Login(ctx, "jane@x.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.ID)

		_, second, err := svc.Login(ctx, "jane@x.com", "password1")
		require.NoError(t, err)
		assert.NotEqual(t, tokenID(t, first), tokenID(t, second))

		st.AssertNotCalled(t, "DeleteToken", mock.Anything, mock.Anything)
		st.AssertExpectations(t)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		st := new(StorageMock)
		st.On("UserByEmail", ctx, "jane@x.com").Return(user, nil)
		st.On("UserByEmail", ctx, "ghost@x.com").Return(models.User{}, wrap(storage.ErrUserNotFound))

		svc := newService(st)

		_, _, wrongPass := svc.Login(ctx, "jane@x.com", "password2")
		_, _, unknown := svc.Login(ctx, "ghost@x.com", "password1")

		assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, ErrInvalidCredentials)
		assert.Equal(t, wrongPass.Error(), unknown.Error())
		st.AssertNotCalled(t, "SaveToken", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		st := new(StorageMock)
		st.On("UserByEmail", ctx, "jane@x.com").Return(models.User{}, errors.New("disk"))

		_, _, err := newService(st).Login(ctx, "jane@x.com", "password1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	user := models.User{ID: "user-1"}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		userID  string
		token   models.Token
		tokErr  error
		wantErr error
	}{
		{
			name:   "valid",
			userID: "user-1",
			token:  models.Token{ID: "t", UserID: "user-1", ExpiresAt: &future},
		},
		{
			name:   "never expires",
			userID: "user-1",
			token:  models.Token{ID: "t", UserID: "user-1"},
		},
		{
			name:    "revoked",
			userID:  "user-1",
			tokErr:  wrap(storage.ErrTokenNotFound),
			wantErr: ErrUnauthenticated,
		},
		{
			name:    "expired",
			userID:  "user-1",
			token:   models.Token{ID: "t", UserID: "user-1", ExpiresAt: &past},
			wantErr: ErrUnauthenticated,
		},
		{
			name:    "claims for another user",
			userID:  "user-2",
			token:   models.Token{ID: "t", UserID: "user-1"},
			wantErr: ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(StorageMock)
			st.On("Token", ctx, "t").Return(tt.token, tt.tokErr)
			st.On("UserByID", ctx, "user-1").Return(user, nil)
			st.On("TouchToken", ctx, "t", now).Return(nil)

			svc := newService(st)
			svc.now = func() time.Time { return now }

			got, err := svc.Authenticate(ctx, tt.userID, "t")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				st.AssertNotCalled(t, "TouchToken", mock.Anything, mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user, got)
			st.AssertCalled(t, "TouchToken", ctx, "t", now)
		})
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("DeleteToken", ctx, "t1").Return(nil).Once()
	st.On("DeleteToken", ctx, "gone").Return(wrap(storage.ErrTokenNotFound)).Once()

	svc := newService(st)

	assert.NoError(t, svc.Logout(ctx, "t1"))
	assert.ErrorIs(t, svc.Logout(ctx, "gone"), ErrUnauthenticated)
	st.AssertExpectations(t)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	name := "Jane Doe"
	email := "john@x.com"
	user := models.User{ID: "user-1", FullName: "Jane", Email: "jane@x.com", Gender: "female"}

	t.Run("applies only present fields", func(t *testing.T) {
		st := new(StorageMock)
		st.On("UserByID", ctx, "user-1").Return(user, nil)
		st.On("UpdateUser", ctx, mock.MatchedBy(func(u models.User) bool {
			return u.FullName == name && u.Email == "jane@x.com" && u.Gender == "female"
		})).Return(nil).Once()

		got, err := newService(st).Update(ctx, "user-1", models.UserPatch{FullName: &name})
		require.NoError(t, err)
		assert.Equal(t, name, got.FullName)
		st.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		st := new(StorageMock)
		st.On("UserByID", ctx, "user-1").Return(user, nil)
		st.On("UpdateUser", ctx, mock.Anything).Return(wrap(storage.ErrUserExists))

		_, err := newService(st).Update(ctx, "user-1", models.UserPatch{Email: &email})
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		st := new(StorageMock)
		st.On("UserByID", ctx, "ghost").Return(models.User{}, wrap(storage.ErrUserNotFound))

		_, err := newService(st).Update(ctx, "ghost", models.UserPatch{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	st := new(StorageMock)
	st.On("DeleteUser", ctx, "user-1").Return(nil).Once()
	st.On("DeleteUser", ctx, "ghost").Return(wrap(storage.ErrUserNotFound)).Once()

	svc := newService(st)

	assert.NoError(t, svc.Remove(ctx, "user-1"))
	assert.ErrorIs(t, svc.Remove(ctx, "ghost"), ErrUserNotFound)
}
