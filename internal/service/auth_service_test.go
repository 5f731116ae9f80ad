package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type mockAuthRepo struct {
	users               map[string]*models.User
	refreshTokens       map[string]*models.RefreshToken
	createErr           error
	createRefreshErr    error
	revokeUserTokensErr error
	revokedAll          []string
	auditLogs           []*models.AuditLog
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return m.revokeUserTokensErr
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func hashedUser(t *testing.T, id, password string, role models.UserRole, academyID *string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: id, Name: id, PasswordHash: string(hash), Role: role, AcademyID: academyID}
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "academy-api",
	})
}

func TestSignupHashesPassword(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	user, err := svc.Signup(context.Background(), models.SignupRequest{ID: "teacher01", Password: "password123", Name: "Kim", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Nil(t, user.AcademyID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionSignup, repo.auditLogs[0].Action)
}

func TestSignupDuplicateID(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "teacher01", "password123", models.RoleTeacher, nil))
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{ID: "teacher01", Password: "password123", Name: "Kim", Role: models.RoleTeacher})
	requireAppError(t, err, appErrors.ErrDuplicate)

	repo = newMockAuthRepo()
	repo.createErr = &pq.Error{Code: "23505"}
	svc = newAuthService(repo)
	_, err = svc.Signup(context.Background(), models.SignupRequest{ID: "racer001", Password: "password123", Name: "Lee", Role: models.RoleStudent})
	requireAppError(t, err, appErrors.ErrDuplicate)
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())
	_, err := svc.Signup(context.Background(), models.SignupRequest{ID: "admin001", Password: "password123", Name: "X", Role: "ADMIN"})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestLoginIssuesTokensWithAcademy(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "student1", "password123", models.RoleStudent, strPtr("acad")))
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{ID: "student1", Password: "password123", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Contains(t, repo.refreshTokens, resp.RefreshToken)

	parsed, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "student1", parsed.UserID)
	assert.Equal(t, models.RoleStudent, parsed.Role)
	assert.Equal(t, "acad", parsed.AcademyID)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[len(repo.auditLogs)-1].Action)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "student1", "password123", models.RoleStudent, nil))
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{ID: "student1", Password: "wrong-pass"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{ID: "nobody", Password: "password123"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials)
	assert.Empty(t, repo.refreshTokens)
}

func TestRefreshTokenRotatesAndPicksUpAffiliation(t *testing.T) {
	chiefUser := hashedUser(t, "chief001", "password123", models.RoleChief, nil)
	repo := newMockAuthRepo(chiefUser)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{ID: "chief001", Password: "password123"})
	require.NoError(t, err)
	first, err := svc.ValidateToken(login.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, first.AcademyID)

	chiefUser.AcademyID = strPtr("acad")
	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	second, err := svc.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acad", second.AcademyID)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	requireAppError(t, err, appErrors.ErrUnauthorized)
}

func TestRefreshTokenExpired(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "student1", "password123", models.RoleStudent, nil))
	svc := newAuthService(repo)
	login, err := svc.Login(context.Background(), models.LoginRequest{ID: "student1", Password: "password123"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	requireAppError(t, err, appErrors.ErrUnauthorized)
}

func TestLogoutChecksOwnership(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "student1", "password123", models.RoleStudent, nil))
	svc := newAuthService(repo)
	login, err := svc.Login(context.Background(), models.LoginRequest{ID: "student1", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else")
	requireAppError(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "student1"))
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	err = svc.Logout(context.Background(), "missing", "student1")
	requireAppError(t, err, appErrors.ErrUnauthorized)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	user := hashedUser(t, "student1", "password123", models.RoleStudent, nil)
	repo := newMockAuthRepo(user)
	repo.revokeUserTokensErr = errors.New("revoke failed")
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "student1", models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newpassword1"})
	requireAppError(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.ChangePassword(context.Background(), "student1", models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword1")))
	assert.Equal(t, []string{"student1"}, repo.revokedAll)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)
	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other"})

	token, err := other.generateAccessToken(&models.User{ID: "x", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	requireAppError(t, err, appErrors.ErrUnauthorized)
}
