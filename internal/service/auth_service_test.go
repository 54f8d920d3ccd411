package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	createFn     func(ctx context.Context, user *models.User) error
	findByNameFn func(ctx context.Context, username string) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.createFn(ctx, user)
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findByNameFn(ctx, username)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return nil, errors.New("not used")
}

func TestRegister_CreatesRegularUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), logger.Discard())
	ctx := context.Background()

	user, err := svc.Register(ctx, " user9 ", "secret1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user9", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)

	_, err = svc.Register(ctx, "user9", "secret1", "secret1")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	logged, err := svc.Login(ctx, "user9", "secret1", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, logger.Discard())

	_, err := svc.Register(context.Background(), "", "12345", "54321")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "username")
	assert.Contains(t, ve.Fields, "password")
	assert.Contains(t, ve.Fields, "confirm_password")
}

func TestRegister_PasswordBeyondBcryptLimit(t *testing.T) {
	created := 0
	repo := &mockUserRepo{createFn: func(ctx context.Context, user *models.User) error {
		created++
		return nil
	}}
	svc := NewAuthService(repo, logger.Discard())
	ctx := context.Background()

	long := strings.Repeat("a", 80)
	_, err := svc.Register(ctx, "longpw", long, long)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be at most 72 bytes", ve.Fields["password"])
	assert.Zero(t, created)

	limit := strings.Repeat("a", 72)
	user, err := svc.Register(ctx, "longpw", limit, limit)
	require.NoError(t, err)
	assert.NoError(t, user.CheckPassword(limit))
	assert.Equal(t, 1, created)
}

func TestRegister_CountsUsernameInCharacters(t *testing.T) {
	repo := &mockUserRepo{createFn: func(ctx context.Context, user *models.User) error { return nil }}
	svc := NewAuthService(repo, logger.Discard())

	name := strings.Repeat("ก", maxUsernameLength)
	user, err := svc.Register(context.Background(), name, "secret1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, name, user.Username)

	_, err = svc.Register(context.Background(), name+"ก", "secret1", "secret1")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be at most 50 characters", ve.Fields["username"])
}

func TestLogin_FailuresLookAlike(t *testing.T) {
	admin := &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}
	require.NoError(t, admin.HashPassword("admin123"))

	repo := &mockUserRepo{findByNameFn: func(ctx context.Context, username string) (*models.User, error) {
		if username == "admin" {
			return admin, nil
		}
		return nil, gorm.ErrRecordNotFound
	}}
	svc := NewAuthService(repo, logger.Discard())
	ctx := context.Background()

	_, err := svc.Login(ctx, "nobody", "admin123", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "admin", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "admin", "admin123", models.RoleUser)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.Login(ctx, "admin", "admin123", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestLogin_StorageFailureIsNotACredentialError(t *testing.T) {
	repo := &mockUserRepo{findByNameFn: func(ctx context.Context, username string) (*models.User, error) {
		return nil, errors.New("connection refused")
	}}
	svc := NewAuthService(repo, logger.Discard())

	_, err := svc.Login(context.Background(), "admin", "admin123", "")

	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
