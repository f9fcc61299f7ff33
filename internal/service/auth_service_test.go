package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-hq/helpdesk/internal/config"
	"github.com/helpdesk-hq/helpdesk/internal/domain"
	"github.com/helpdesk-hq/helpdesk/internal/repository"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
	nextID int64
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*repository.PasswordResetToken{}, nextID: 1}
}

func (f *fakeResetRepo) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	token.ID = f.nextID
	f.nextID++
	copied := *token
	f.tokens[token.Token] = &copied
	return nil
}

func (f *fakeResetRepo) GetByToken(ctx context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := f.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (f *fakeResetRepo) MarkUsed(ctx context.Context, id int64) error {
	now := time.Now()
	for _, token := range f.tokens {
		if token.ID == id {
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newTestAuthService() (*AuthService, *fakeUserRepo, *fakeResetRepo) {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
	}
	return NewAuthService(cfg, AuthDependencies{UserRepo: users, PasswordResetRepo: resets}), users, resets
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()

	user, token, _, err := svc.RegisterUser(context.Background(), "Ada", "Ada@Example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, domain.UserRoleUser, user.Role)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	_, token, _, err = svc.LoginUser(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, _, err = svc.LoginUser(context.Background(), "ada@example.com", "wrong")
	assert.Error(t, err)

	_, _, _, err = svc.LoginUser(context.Background(), "nobody@example.com", "hunter2")
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicateAndBadEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, _, _, err := svc.RegisterUser(context.Background(), "Ada", "ada@example.com", "hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.RegisterUser(context.Background(), "Other", "ada@example.com", "different")
	assert.Error(t, err)

	_, _, _, err = svc.RegisterUser(context.Background(), "Bad", "not-an-email", "hunter2")
	assert.Error(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, _, _, err := svc.RegisterUser(context.Background(), "Ada", "ada@example.com", "hunter2")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), token.Token, "newpass"))

	_, _, _, err = svc.LoginUser(context.Background(), "ada@example.com", "newpass")
	assert.NoError(t, err)

	// Token is single-use.
	err = svc.ConfirmPasswordReset(context.Background(), token.Token, "another")
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestAuthService()

	user, _, _, err := svc.RegisterUser(context.Background(), "Ada", "ada@example.com", "hunter2")
	require.NoError(t, err)

	assert.Error(t, svc.ChangePassword(context.Background(), user.ID, "wrong", "newpass"))
	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "hunter2", "newpass"))

	_, _, _, err = svc.LoginUser(context.Background(), "ada@example.com", "newpass")
	assert.NoError(t, err)
}
