package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type fakeRegistrations struct {
	rows   map[int64]*models.Registration
	nextID int64
	links  [][2]int64
}

func newFakeRegistrations(regs ...models.Registration) *fakeRegistrations {
	f := &fakeRegistrations{rows: map[int64]*models.Registration{}}
	for i := range regs {
		r := regs[i]
		f.rows[r.ID] = &r
		if r.ID > f.nextID {
			f.nextID = r.ID
		}
	}
	return f
}

func (f *fakeRegistrations) Create(ctx context.Context, exec sqlx.ExtContext, reg *models.Registration) error {
	f.nextID++
	reg.ID = f.nextID
	reg.Status = models.RegistrationPending
	copy := *reg
	f.rows[reg.ID] = &copy
	return nil
}

func (f *fakeRegistrations) FindPending(ctx context.Context, exec sqlx.ExtContext, academyID, userID string, role models.UserRole) (*models.Registration, error) {
	for _, r := range f.rows {
		if r.AcademyID == academyID && r.UserID == userID && r.Role == role && r.Status == models.RegistrationPending {
			copy := *r
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistrations) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Registration, error) {
	if r, ok := f.rows[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistrations) Link(ctx context.Context, exec sqlx.ExtContext, id, linkedID int64) error {
	f.rows[id].LinkedRegistrationID = &linkedID
	f.links = append(f.links, [2]int64{id, linkedID})
	return nil
}

func (f *fakeRegistrations) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status models.RegistrationStatus) error {
	r, ok := f.rows[id]
	if !ok || r.Status != models.RegistrationPending {
		return sql.ErrNoRows
	}
	r.Status = status
	return nil
}

func (f *fakeRegistrations) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	out := []models.Registration{}
	for _, r := range f.rows {
		if r.AcademyID == filter.AcademyID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeInviteAcademies struct {
	academy   *models.Academy
	recounted int
}

func (f *fakeInviteAcademies) FindByInviteKey(ctx context.Context, key string) (*models.Academy, error) {
	if f.academy == nil || f.academy.InviteKey != key {
		return nil, sql.ErrNoRows
	}
	copy := *f.academy
	return &copy, nil
}

func (f *fakeInviteAcademies) RecountMembers(ctx context.Context, exec sqlx.ExtContext, id string) error {
	f.recounted++
	return nil
}

func registrationUsers() *fakeUsers {
	return newFakeUsers(
		models.User{ID: "kid", Name: "Kid", Role: models.RoleStudent, ParentID: strPtr("mom")},
		models.User{ID: "mom", Name: "Mom", Role: models.RoleParent},
		models.User{ID: "solo", Name: "Solo", Role: models.RoleStudent},
	)
}

func approvedAcademy() *fakeInviteAcademies {
	return &fakeInviteAcademies{academy: &models.Academy{ID: "acad", InviteKey: "KEY", Status: models.AcademyApproved}}
}

func TestRegistrationCreateLinksStudentAndParent(t *testing.T) {
	db, mock := newMockTx(t)
	regs := newFakeRegistrations()
	svc := NewRegistrationService(regs, approvedAcademy(), registrationUsers(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	reg, err := svc.Create(context.Background(), claims("kid", models.RoleStudent, ""), models.CreateRegistrationRequest{InviteKey: "KEY", Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, reg.LinkedRegistrationID)

	parent := regs.rows[*reg.LinkedRegistrationID]
	assert.Equal(t, "mom", parent.UserID)
	assert.Equal(t, models.RoleParent, parent.Role)
	require.NotNil(t, parent.LinkedRegistrationID)
	assert.Equal(t, reg.ID, *parent.LinkedRegistrationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCreateReusesPendingParentRequest(t *testing.T) {
	db, mock := newMockTx(t)
	regs := newFakeRegistrations(models.Registration{ID: 5, AcademyID: "acad", UserID: "mom", Role: models.RoleParent, Status: models.RegistrationPending})
	svc := NewRegistrationService(regs, approvedAcademy(), registrationUsers(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	reg, err := svc.Create(context.Background(), claims("kid", models.RoleStudent, ""), models.CreateRegistrationRequest{InviteKey: "KEY", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, int64(5), *reg.LinkedRegistrationID)
	assert.Len(t, regs.rows, 2)
}

func TestRegistrationCreateKeepsSiblingParentLink(t *testing.T) {
	db, mock := newMockTx(t)
	student, parent := int64(4), int64(5)
	regs := newFakeRegistrations(
		models.Registration{ID: 4, AcademyID: "acad", UserID: "kid", Role: models.RoleStudent, Status: models.RegistrationPending, LinkedRegistrationID: &parent},
		models.Registration{ID: 5, AcademyID: "acad", UserID: "mom", Role: models.RoleParent, Status: models.RegistrationPending, LinkedRegistrationID: &student},
	)
	users := registrationUsers()
	users.users["kid2"] = &models.User{ID: "kid2", Name: "Kid Two", Role: models.RoleStudent, ParentID: strPtr("mom")}
	svc := NewRegistrationService(regs, approvedAcademy(), users, db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	reg, err := svc.Create(context.Background(), claims("kid2", models.RoleStudent, ""), models.CreateRegistrationRequest{InviteKey: "KEY", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, int64(5), *reg.LinkedRegistrationID)
	assert.Equal(t, int64(4), *regs.rows[5].LinkedRegistrationID)
	assert.Equal(t, [][2]int64{{reg.ID, 5}}, regs.links)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCreateRejections(t *testing.T) {
	cases := []struct {
		name     string
		academy  *fakeInviteAcademies
		req      models.CreateRegistrationRequest
		pending  bool
		sentinel *appErrors.Error
	}{
		{name: "unknown key", academy: approvedAcademy(), req: models.CreateRegistrationRequest{InviteKey: "NOPE", Role: models.RoleStudent}, sentinel: appErrors.ErrNotFound},
		{name: "role mismatch", academy: approvedAcademy(), req: models.CreateRegistrationRequest{InviteKey: "KEY", Role: models.RoleTeacher}, sentinel: appErrors.ErrNotFound},
		{name: "academy pending", academy: &fakeInviteAcademies{academy: &models.Academy{ID: "acad", InviteKey: "KEY", Status: models.AcademyPending}}, req: models.CreateRegistrationRequest{InviteKey: "KEY", Role: models.RoleStudent}, sentinel: appErrors.ErrConflict},
		{name: "already pending", academy: approvedAcademy(), req: models.CreateRegistrationRequest{InviteKey: "KEY", Role: models.RoleStudent}, pending: true, sentinel: appErrors.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockTx(t)
			regs := newFakeRegistrations()
			if tc.pending {
				regs = newFakeRegistrations(models.Registration{ID: 1, AcademyID: "acad", UserID: "solo", Role: models.RoleStudent, Status: models.RegistrationPending})
				mock.ExpectBegin()
				mock.ExpectRollback()
			}
			svc := NewRegistrationService(regs, tc.academy, registrationUsers(), db, nil, nil)
			_, err := svc.Create(context.Background(), claims("solo", models.RoleStudent, ""), tc.req)
			requireAppError(t, err, tc.sentinel)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func linkedPair() *fakeRegistrations {
	student, parent := int64(1), int64(2)
	return newFakeRegistrations(
		models.Registration{ID: 1, AcademyID: "acad", UserID: "kid", Role: models.RoleStudent, Status: models.RegistrationPending, LinkedRegistrationID: &parent},
		models.Registration{ID: 2, AcademyID: "acad", UserID: "mom", Role: models.RoleParent, Status: models.RegistrationPending, LinkedRegistrationID: &student},
	)
}

func TestDecideApprovesLinkedPairTogether(t *testing.T) {
	db, mock := newMockTx(t)
	regs := linkedPair()
	academies := approvedAcademy()
	users := registrationUsers()
	svc := NewRegistrationService(regs, academies, users, db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	changed, err := svc.Decide(context.Background(), claims("boss", models.RoleChief, "acad"), 2, models.DecideRegistrationRequest{Status: models.RegistrationApproved})
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, models.RegistrationApproved, regs.rows[1].Status)
	assert.Equal(t, models.RegistrationApproved, regs.rows[2].Status)

	kid, _ := users.FindByID(context.Background(), "kid")
	mom, _ := users.FindByID(context.Background(), "mom")
	assert.True(t, kid.BelongsTo("acad"))
	assert.True(t, mom.BelongsTo("acad"))
	assert.Equal(t, 1, academies.recounted)
	assert.Contains(t, users.actions(), models.AuditActionRegistrationDecide)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectsLinkedPairWithoutAffiliation(t *testing.T) {
	db, mock := newMockTx(t)
	regs := linkedPair()
	academies := approvedAcademy()
	users := registrationUsers()
	svc := NewRegistrationService(regs, academies, users, db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Decide(context.Background(), claims("boss", models.RoleChief, "acad"), 1, models.DecideRegistrationRequest{Status: models.RegistrationRejected})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, regs.rows[1].Status)
	assert.Equal(t, models.RegistrationRejected, regs.rows[2].Status)
	kid, _ := users.FindByID(context.Background(), "kid")
	assert.Nil(t, kid.AcademyID)
	assert.Zero(t, academies.recounted)
}

func TestDecideSkipsSettledSecondary(t *testing.T) {
	db, mock := newMockTx(t)
	regs := linkedPair()
	regs.rows[2].Status = models.RegistrationRejected
	svc := NewRegistrationService(regs, approvedAcademy(), registrationUsers(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	changed, err := svc.Decide(context.Background(), claims("boss", models.RoleChief, "acad"), 1, models.DecideRegistrationRequest{Status: models.RegistrationApproved})
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, models.RegistrationRejected, regs.rows[2].Status)
}

func TestDecideTwiceConflicts(t *testing.T) {
	db, mock := newMockTx(t)
	regs := linkedPair()
	regs.rows[1].Status = models.RegistrationApproved
	svc := NewRegistrationService(regs, approvedAcademy(), registrationUsers(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Decide(context.Background(), claims("boss", models.RoleChief, "acad"), 1, models.DecideRegistrationRequest{Status: models.RegistrationRejected})
	requireAppError(t, err, appErrors.ErrConflict)
	assert.Equal(t, models.RegistrationPending, regs.rows[2].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideOtherAcademyForbidden(t *testing.T) {
	db, mock := newMockTx(t)
	svc := NewRegistrationService(linkedPair(), approvedAcademy(), registrationUsers(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Decide(context.Background(), claims("boss", models.RoleChief, "elsewhere"), 1, models.DecideRegistrationRequest{Status: models.RegistrationApproved})
	requireAppError(t, err, appErrors.ErrForbidden)
}
