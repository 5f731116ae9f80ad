package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
)

func TestCreateRegistrationReturnsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("INSERT INTO academy_user_registrations").
		WithArgs("acad1", "kim01", "STUDENT", "PENDING", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	reg := &models.Registration{AcademyID: "acad1", UserID: "kim01", Role: models.RoleStudent}
	require.NoError(t, repo.Create(context.Background(), nil, reg))
	assert.Equal(t, int64(11), reg.ID)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRegistrationStatusOnlyFromPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = 'PENDING'")).
		WithArgs(int64(11), "APPROVED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), nil, 11, models.RegistrationApproved)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRegistrationsByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	cols := []string{"id", "academy_id", "user_id", "user_name", "role", "status", "linked_registration_id", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.academy_id = $1 AND r.status = $2")).
		WithArgs("acad1", "PENDING").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(11, "acad1", "kim01", "Kim", "STUDENT", "PENDING", 12, time.Now(), time.Now()))

	status := models.RegistrationPending
	regs, err := repo.List(context.Background(), models.RegistrationFilter{AcademyID: "acad1", Status: &status})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	require.NotNil(t, regs[0].LinkedRegistrationID)
	assert.Equal(t, int64(12), *regs[0].LinkedRegistrationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
