package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

// memoryExams enforces the (academy_id, name) uniqueness and the exam type
// foreign key the way the exam tables do.
type memoryExams struct {
	types  map[int64]*models.ExamType
	exams  map[int64]*models.Exam
	nextID int64
}

func newMemoryExams() *memoryExams {
	return &memoryExams{types: map[int64]*models.ExamType{}, exams: map[int64]*models.Exam{}}
}

func (m *memoryExams) CreateType(ctx context.Context, examType *models.ExamType) error {
	for _, t := range m.types {
		if t.AcademyID == examType.AcademyID && t.Name == examType.Name {
			return &pq.Error{Code: "23505"}
		}
	}
	m.nextID++
	examType.ID = m.nextID
	stored := *examType
	m.types[examType.ID] = &stored
	return nil
}

func (m *memoryExams) EnsureType(ctx context.Context, exec sqlx.ExtContext, academyID, name string) (*models.ExamType, error) {
	for _, t := range m.types {
		if t.AcademyID == academyID && t.Name == name {
			return t, nil
		}
	}
	examType := &models.ExamType{AcademyID: academyID, Name: name}
	return examType, m.CreateType(ctx, examType)
}

func (m *memoryExams) FindType(ctx context.Context, id int64) (*models.ExamType, error) {
	if t, ok := m.types[id]; ok {
		stored := *t
		return &stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryExams) ListTypes(ctx context.Context, academyID string) ([]models.ExamType, error) {
	out := []models.ExamType{}
	for _, t := range m.types {
		if t.AcademyID == academyID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryExams) DeleteType(ctx context.Context, academyID string, id int64) error {
	t, ok := m.types[id]
	if !ok || t.AcademyID != academyID {
		return sql.ErrNoRows
	}
	for _, e := range m.exams {
		if e.ExamTypeID == id {
			return &pq.Error{Code: "23503"}
		}
	}
	delete(m.types, id)
	return nil
}

func (m *memoryExams) Create(ctx context.Context, exec sqlx.ExtContext, exam *models.Exam) error {
	m.nextID++
	exam.ID = m.nextID
	stored := *exam
	m.exams[exam.ID] = &stored
	return nil
}

func (m *memoryExams) FindByID(ctx context.Context, id int64) (*models.Exam, error) {
	if e, ok := m.exams[id]; ok {
		stored := *e
		return &stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryExams) ListByLecture(ctx context.Context, lectureID int64) ([]models.Exam, error) {
	out := []models.Exam{}
	for _, e := range m.exams {
		if e.LectureID == lectureID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memoryExams) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, ok := m.exams[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.exams, id)
	return nil
}

func examLectures() fakeLectures {
	return fakeLectures{
		3: {ID: 3, AcademyID: "acad", TeacherID: "t1"},
		4: {ID: 4, AcademyID: "acad", TeacherID: "t1"},
		9: {ID: 9, AcademyID: "other", TeacherID: "x"},
	}
}

func TestExamTypeDuplicateConflicts(t *testing.T) {
	repo := newMemoryExams()
	svc := NewExamService(repo, examLectures(), nil, nil)

	first, err := svc.CreateType(context.Background(), teacher(), "acad", models.CreateExamTypeRequest{Name: "Midterm"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = svc.CreateType(context.Background(), chief(), "acad", models.CreateExamTypeRequest{Name: "Midterm"})
	appErr := requireAppError(t, err, appErrors.ErrDuplicate)
	assert.Equal(t, http.StatusConflict, appErr.Status)

	// The same name in another academy is independent.
	_, err = svc.CreateType(context.Background(), claims("x", models.RoleTeacher, "other"), "other", models.CreateExamTypeRequest{Name: "Midterm"})
	require.NoError(t, err)
}

func TestExamTypeAccess(t *testing.T) {
	svc := NewExamService(newMemoryExams(), examLectures(), nil, nil)

	_, err := svc.CreateType(context.Background(), claims("kid", models.RoleStudent, "acad"), "acad", models.CreateExamTypeRequest{Name: "Quiz"})
	requireAppError(t, err, appErrors.ErrForbidden)
	_, err = svc.CreateType(context.Background(), claims("x", models.RoleTeacher, "other"), "acad", models.CreateExamTypeRequest{Name: "Quiz"})
	requireAppError(t, err, appErrors.ErrForbidden)
	_, err = svc.CreateType(context.Background(), teacher(), "acad", models.CreateExamTypeRequest{})
	requireAppError(t, err, appErrors.ErrValidation)
	_, err = svc.ListTypes(context.Background(), claims("x", models.RoleTeacher, "other"), "acad")
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestExamTypeDeleteInUse(t *testing.T) {
	repo := newMemoryExams()
	svc := NewExamService(repo, examLectures(), nil, nil)
	examType, err := svc.CreateType(context.Background(), teacher(), "acad", models.CreateExamTypeRequest{Name: "Final"})
	require.NoError(t, err)
	exam, err := svc.Create(context.Background(), teacher(), 3, models.CreateExamRequest{ExamTypeID: examType.ID, Name: "Final 1", ExamDate: "2026-06-30"})
	require.NoError(t, err)

	err = svc.DeleteType(context.Background(), teacher(), "acad", examType.ID)
	requireAppError(t, err, appErrors.ErrConflict)

	require.NoError(t, svc.Delete(context.Background(), teacher(), 3, exam.ID))
	require.NoError(t, svc.DeleteType(context.Background(), teacher(), "acad", examType.ID))
	err = svc.DeleteType(context.Background(), teacher(), "acad", examType.ID)
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestExamCreate(t *testing.T) {
	repo := newMemoryExams()
	svc := NewExamService(repo, examLectures(), nil, nil)
	examType, err := svc.CreateType(context.Background(), teacher(), "acad", models.CreateExamTypeRequest{Name: "Weekly"})
	require.NoError(t, err)
	foreign, err := svc.CreateType(context.Background(), claims("x", models.RoleTeacher, "other"), "other", models.CreateExamTypeRequest{Name: "Weekly"})
	require.NoError(t, err)

	exam, err := svc.Create(context.Background(), teacher(), 3, models.CreateExamRequest{ExamTypeID: examType.ID, Name: "Week 1", ExamDate: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), exam.LectureID)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), exam.ExamDate)

	_, err = svc.Create(context.Background(), teacher(), 3, models.CreateExamRequest{ExamTypeID: examType.ID, Name: "Week 2", ExamDate: "03/09/2026"})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), teacher(), 3, models.CreateExamRequest{ExamTypeID: foreign.ID, Name: "Week 2", ExamDate: "2026-03-09"})
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), teacher(), 9, models.CreateExamRequest{ExamTypeID: examType.ID, Name: "Week 2", ExamDate: "2026-03-09"})
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(context.Background(), claims("kid", models.RoleStudent, "acad"), 3, models.CreateExamRequest{ExamTypeID: examType.ID, Name: "Week 2", ExamDate: "2026-03-09"})
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestExamGetChecksLecture(t *testing.T) {
	repo := newMemoryExams()
	svc := NewExamService(repo, examLectures(), nil, nil)
	examType, err := svc.CreateType(context.Background(), teacher(), "acad", models.CreateExamTypeRequest{Name: "Weekly"})
	require.NoError(t, err)
	exam, err := svc.Create(context.Background(), teacher(), 3, models.CreateExamRequest{ExamTypeID: examType.ID, Name: "Week 1", ExamDate: "2026-03-02"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), claims("kid", models.RoleStudent, "acad"), 3, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, "Week 1", got.Name)

	// Addressed through a sibling lecture of the same academy.
	_, err = svc.Get(context.Background(), teacher(), 4, exam.ID)
	requireAppError(t, err, appErrors.ErrNotFound)
	err = svc.Delete(context.Background(), teacher(), 4, exam.ID)
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = svc.List(context.Background(), claims("x", models.RoleTeacher, "other"), 3)
	requireAppError(t, err, appErrors.ErrForbidden)

	exams, err := svc.List(context.Background(), teacher(), 3)
	require.NoError(t, err)
	assert.Len(t, exams, 1)
}
