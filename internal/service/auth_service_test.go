package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orkestre/orkestre-api/internal/models"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

type mockUserRepo struct {
	users         map[int64]models.User
	refreshTokens map[string]models.RefreshToken
	revokedAll    []int64
	lastLogin     map[int64]time.Time
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[int64]models.User)
	}
	if user.ID == 0 {
		user.ID = int64(len(m.users) + 1)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	if m.lastLogin == nil {
		m.lastLogin = make(map[int64]time.Time)
	}
	m.lastLogin[id] = ts
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]models.RefreshToken)
	}
	if token.ID == 0 {
		token.ID = int64(len(m.refreshTokens) + 1)
	}
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id int64, revokedAt time.Time) error {
	for value, t := range m.refreshTokens {
		if t.ID == id {
			t.RevokedAt = &revokedAt
			m.refreshTokens[value] = t
		}
	}
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	m.revokedAll = append(m.revokedAll, userID)
	now := time.Now().UTC()
	for value, t := range m.refreshTokens {
		if t.UserID == userID {
			t.RevokedAt = &now
			m.refreshTokens[value] = t
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo, *mockEstablishmentRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &mockUserRepo{users: map[int64]models.User{
		1: {ID: 1, Email: "owner@example.com", PasswordHash: string(hash), Active: true},
	}}
	ests := &mockEstablishmentRepo{establishments: map[int64]models.Establishment{
		1: {ID: 1, OwnerID: 1, Name: "Studio Bela", Timezone: "America/Sao_Paulo"},
	}}
	s := NewAuthService(users, ests, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "orkestre",
		DefaultTimezone:    "America/Sao_Paulo",
	})
	return s, users, ests
}

func TestRegisterCreatesUserAndEstablishment(t *testing.T) {
	s, users, ests := newAuthFixture(t)

	me, err := s.Register(context.Background(), models.RegisterRequest{
		Email:             "New@Example.com",
		Password:          "super-secret",
		EstablishmentName: "Barber Bros",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", me.Email)
	require.NotNil(t, me.Establishment)
	assert.Equal(t, "Barber Bros", me.Establishment.Name)
	assert.Equal(t, "America/Sao_Paulo", me.Establishment.Timezone)

	created, err := users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "super-secret", created.PasswordHash)
	_, err = ests.FindByOwner(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, _, _ := newAuthFixture(t)

	_, err := s.Register(context.Background(), models.RegisterRequest{
		Email:             "owner@example.com",
		Password:          "super-secret",
		EstablishmentName: "Copy Cat",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsUnknownTimezone(t *testing.T) {
	s, _, _ := newAuthFixture(t)

	_, err := s.Register(context.Background(), models.RegisterRequest{
		Email:             "tz@example.com",
		Password:          "super-secret",
		EstablishmentName: "Nowhere",
		Timezone:          "Mars/Olympus_Mons",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	s, users, _ := newAuthFixture(t)

	resp, err := s.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Contains(t, users.lastLogin, int64(1))

	claims, err := s.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	s, _, _ := newAuthFixture(t)

	_, err := s.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	s, _, _ := newAuthFixture(t)

	_, err := s.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "irrelevant1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	s, users, _ := newAuthFixture(t)

	login, err := s.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := s.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	used := users.refreshTokens[login.RefreshToken]
	assert.NotNil(t, used.RevokedAt)

	_, err = s.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	s, _, _ := newAuthFixture(t)

	login, err := s.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = s.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestMeIncludesEstablishment(t *testing.T) {
	s, _, _ := newAuthFixture(t)

	me, err := s.Me(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, me.Establishment)
	assert.Equal(t, "Studio Bela", me.Establishment.Name)
}
