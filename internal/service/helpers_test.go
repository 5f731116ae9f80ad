package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

// newMockTx returns a sqlx handle whose transactions are scripted through mock.
func newMockTx(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func claims(userID string, role models.UserRole, academyID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role, AcademyID: academyID}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func requireAppError(t *testing.T, err error, sentinel *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, sentinel.Code, appErr.Code, appErr.Message)
	return appErr
}

// fakeUsers is an in-memory user table shared by the service tests.
type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User)}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) SetAcademy(ctx context.Context, exec sqlx.ExtContext, userIDs []string, academyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			u.AcademyID = strPtr(academyID)
		}
	}
	return nil
}

func (f *fakeUsers) ListChildren(ctx context.Context, parentID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		if u.ParentID != nil && *u.ParentID == parentID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func (f *fakeUsers) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.auditLogs))
	for _, log := range f.auditLogs {
		out = append(out, log.Action)
	}
	return out
}

// fakeLectures satisfies lectureFinder.
type fakeLectures map[int64]*models.Lecture

func (f fakeLectures) FindByID(ctx context.Context, id int64) (*models.Lecture, error) {
	if l, ok := f[id]; ok {
		copy := *l
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}
