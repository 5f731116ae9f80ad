package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type memoryAcademies struct {
	academies map[string]*models.Academy
	createErr error
	// headcounts is what RecountMembers derives from the user table.
	headcounts map[string][2]int
	recounts   []string
}

func newMemoryAcademies(academies ...models.Academy) *memoryAcademies {
	m := &memoryAcademies{academies: map[string]*models.Academy{}, headcounts: map[string][2]int{}}
	for i := range academies {
		a := academies[i]
		m.academies[a.ID] = &a
	}
	return m
}

func (m *memoryAcademies) Create(ctx context.Context, exec sqlx.ExtContext, academy *models.Academy) error {
	if m.createErr != nil {
		return m.createErr
	}
	stored := *academy
	m.academies[academy.ID] = &stored
	return nil
}

func (m *memoryAcademies) FindByID(ctx context.Context, id string) (*models.Academy, error) {
	if a, ok := m.academies[id]; ok {
		stored := *a
		return &stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryAcademies) Update(ctx context.Context, academy *models.Academy) error {
	stored := *academy
	m.academies[academy.ID] = &stored
	return nil
}

func (m *memoryAcademies) UpdateStatus(ctx context.Context, id string, status models.AcademyStatus) error {
	a, ok := m.academies[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	return nil
}

func (m *memoryAcademies) UpdateInviteKey(ctx context.Context, id, key string) error {
	a, ok := m.academies[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.InviteKey = key
	return nil
}

func (m *memoryAcademies) RecountMembers(ctx context.Context, exec sqlx.ExtContext, id string) error {
	a, ok := m.academies[id]
	if !ok {
		return sql.ErrNoRows
	}
	counts := m.headcounts[id]
	a.StudentCount, a.TeacherCount = counts[0], counts[1]
	m.recounts = append(m.recounts, id)
	return nil
}

func seededAcademy() models.Academy {
	return models.Academy{ID: "acad", Name: "Sunrise", Status: models.AcademyApproved, InviteKey: "OLDKEY2345", ChiefID: "boss", StudentCount: 9, TeacherCount: 4}
}

func TestAcademyCreate(t *testing.T) {
	db, mock := newMockTx(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	repo := newMemoryAcademies()
	users := newFakeUsers(models.User{ID: "newboss", Role: models.RoleChief})
	svc := NewAcademyService(repo, users, db, nil, nil, nil)

	academy, err := svc.Create(context.Background(), claims("newboss", models.RoleChief, ""), models.CreateAcademyRequest{ID: "sunrise", Name: "Sunrise"})
	require.NoError(t, err)
	assert.Equal(t, models.AcademyPending, academy.Status)
	assert.Len(t, academy.InviteKey, inviteKeyLength)
	assert.Equal(t, "newboss", academy.ChiefID)

	chief, err := users.FindByID(context.Background(), "newboss")
	require.NoError(t, err)
	assert.True(t, chief.BelongsTo("sunrise"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademyCreateRejectsAffiliatedChief(t *testing.T) {
	db, _ := newMockTx(t)
	repo := newMemoryAcademies(seededAcademy())
	users := newFakeUsers(models.User{ID: "boss", Role: models.RoleChief, AcademyID: strPtr("acad")})
	svc := NewAcademyService(repo, users, db, nil, nil, nil)

	_, err := svc.Create(context.Background(), chief(), models.CreateAcademyRequest{ID: "second", Name: "Second"})
	requireAppError(t, err, appErrors.ErrConflict)
	assert.Len(t, repo.academies, 1)
}

func TestAcademyCreateDuplicateID(t *testing.T) {
	db, mock := newMockTx(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	repo := newMemoryAcademies()
	repo.createErr = &pq.Error{Code: "23505"}
	users := newFakeUsers(models.User{ID: "newboss", Role: models.RoleChief})
	svc := NewAcademyService(repo, users, db, nil, nil, nil)

	_, err := svc.Create(context.Background(), claims("newboss", models.RoleChief, ""), models.CreateAcademyRequest{ID: "acad", Name: "Copy"})
	requireAppError(t, err, appErrors.ErrDuplicate)

	chief, err := users.FindByID(context.Background(), "newboss")
	require.NoError(t, err)
	assert.Nil(t, chief.AcademyID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademyCreateValidatesID(t *testing.T) {
	db, _ := newMockTx(t)
	users := newFakeUsers(models.User{ID: "newboss", Role: models.RoleChief})
	svc := NewAcademyService(newMemoryAcademies(), users, db, nil, nil, nil)

	_, err := svc.Create(context.Background(), claims("newboss", models.RoleChief, ""), models.CreateAcademyRequest{ID: "a b", Name: "Spaced"})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), claims("t1", models.RoleTeacher, ""), models.CreateAcademyRequest{ID: "sunrise", Name: "Sunrise"})
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestAcademyGetHidesInviteKeyFromMembers(t *testing.T) {
	svc := NewAcademyService(newMemoryAcademies(seededAcademy()), newFakeUsers(), nil, nil, nil, nil)

	academy, err := svc.Get(context.Background(), chief(), "acad")
	require.NoError(t, err)
	assert.Equal(t, "OLDKEY2345", academy.InviteKey)

	academy, err = svc.Get(context.Background(), teacher(), "acad")
	require.NoError(t, err)
	assert.Empty(t, academy.InviteKey)

	_, err = svc.Get(context.Background(), claims("x", models.RoleChief, "other"), "acad")
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestAcademyRotateInviteKey(t *testing.T) {
	repo := newMemoryAcademies(seededAcademy())
	svc := NewAcademyService(repo, newFakeUsers(), nil, nil, nil, nil)

	academy, err := svc.RotateInviteKey(context.Background(), chief(), "acad")
	require.NoError(t, err)
	assert.NotEqual(t, "OLDKEY2345", academy.InviteKey)
	assert.Len(t, academy.InviteKey, inviteKeyLength)
	for _, r := range academy.InviteKey {
		assert.True(t, strings.ContainsRune(inviteKeyAlphabet, r), "unexpected rune %q", r)
	}
	assert.Equal(t, academy.InviteKey, repo.academies["acad"].InviteKey)

	_, err = svc.RotateInviteKey(context.Background(), teacher(), "acad")
	requireAppError(t, err, appErrors.ErrForbidden)
	_, err = svc.RotateInviteKey(context.Background(), claims("x", models.RoleChief, "other"), "acad")
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestAcademyRecountRepairsHeadcounts(t *testing.T) {
	repo := newMemoryAcademies(seededAcademy())
	repo.headcounts["acad"] = [2]int{3, 1}
	svc := NewAcademyService(repo, newFakeUsers(), nil, nil, nil, nil)

	academy, err := svc.Recount(context.Background(), chief(), "acad")
	require.NoError(t, err)
	assert.Equal(t, 3, academy.StudentCount)
	assert.Equal(t, 1, academy.TeacherCount)
	assert.Equal(t, []string{"acad"}, repo.recounts)

	_, err = svc.Recount(context.Background(), teacher(), "acad")
	requireAppError(t, err, appErrors.ErrForbidden)
	assert.Len(t, repo.recounts, 1)
}

func TestAcademySetStatus(t *testing.T) {
	repo := newMemoryAcademies(models.Academy{ID: "acad", Status: models.AcademyPending})
	users := newFakeUsers()
	svc := NewAcademyService(repo, users, nil, nil, nil, []string{"root"})

	_, err := svc.SetStatus(context.Background(), chief(), "acad", models.UpdateAcademyStatusRequest{Status: models.AcademyApproved})
	requireAppError(t, err, appErrors.ErrForbidden)

	admin := claims("root", models.RoleChief, "")
	_, err = svc.SetStatus(context.Background(), admin, "acad", models.UpdateAcademyStatusRequest{Status: models.AcademyPending})
	requireAppError(t, err, appErrors.ErrValidation)

	academy, err := svc.SetStatus(context.Background(), admin, "acad", models.UpdateAcademyStatusRequest{Status: models.AcademyApproved})
	require.NoError(t, err)
	assert.Equal(t, models.AcademyApproved, academy.Status)
	assert.Equal(t, []string{models.AuditActionAcademyStatus}, users.actions())

	_, err = svc.SetStatus(context.Background(), admin, "missing", models.UpdateAcademyStatusRequest{Status: models.AcademyRejected})
	requireAppError(t, err, appErrors.ErrNotFound)
}
