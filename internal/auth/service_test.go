package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/internal/users"
	pkgauth "github.com/havenandoak/storefront-backend/pkg/auth"
	"github.com/havenandoak/storefront-backend/pkg/auth/session"
	"github.com/havenandoak/storefront-backend/pkg/config"
	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
	"github.com/havenandoak/storefront-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) error {
	return nil
}

func (s *stubUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubUserRepo) CountByRole(ctx context.Context, role enums.Role) (int64, error) {
	var count int64
	for _, user := range s.byEmail {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

type stubSessions struct {
	tokens map[string]string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	s.tokens[newID] = token
	return newID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-test-secret-test",
		Issuer:                 "storefront",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newAuthFixture(t *testing.T, password string) (Service, *stubUserRepo, *stubSessions, *models.User) {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Name:         "Riley Stone",
		Email:        "riley@example.com",
		PasswordHash: hash,
		Role:         enums.RoleAdmin,
		Active:       true,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	sessions := newStubSessions()

	svc, err := NewService(repo, sessions, testJWTConfig(), nil)
	require.NoError(t, err)
	return svc, repo, sessions, user
}

func TestLoginSuccess(t *testing.T) {
	svc, _, sessions, user := newAuthFixture(t, "correct horse battery")

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "riley@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.UserID)
	require.Equal(t, enums.RoleAdmin, result.Role)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)
	require.Equal(t, 15*60, result.Tokens.ExpiresIn)
	require.Len(t, sessions.tokens, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, enums.RoleAdmin, claims.Role)
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t, "correct horse battery")

	_, wrongPass := authError(t, svc, "riley@example.com", "nope")
	_, unknown := authError(t, svc, "ghost@example.com", "nope")
	require.Equal(t, wrongPass, unknown)
}

func authError(t *testing.T, svc Service, email, password string) (*Session, string) {
	t.Helper()
	result, err := svc.Login(context.Background(), LoginInput{Email: email, Password: password})
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
	return result, domainErr.Message()
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo, _, user := newAuthFixture(t, "correct horse battery")
	repo.byEmail[user.Email].Active = false

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "riley@example.com",
		Password: "correct horse battery",
	})
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t, "correct horse battery")

	login, err := svc.Login(context.Background(), LoginInput{
		Email:    "riley@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.Tokens.AccessToken,
		RefreshToken: login.Tokens.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, login.Tokens.RefreshToken, pair.RefreshToken)

	// The old refresh token is gone after rotation.
	_, err = svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.Tokens.AccessToken,
		RefreshToken: login.Tokens.RefreshToken,
	})
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
	require.Len(t, sessions.tokens, 1)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t, "correct horse battery")

	login, err := svc.Login(context.Background(), LoginInput{
		Email:    "riley@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.Len(t, sessions.tokens, 1)

	require.NoError(t, svc.Logout(context.Background(), login.Tokens.AccessToken))
	require.Empty(t, sessions.tokens)
}
