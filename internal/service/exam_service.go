package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type examRepository interface {
	CreateType(ctx context.Context, examType *models.ExamType) error
	EnsureType(ctx context.Context, exec sqlx.ExtContext, academyID, name string) (*models.ExamType, error)
	FindType(ctx context.Context, id int64) (*models.ExamType, error)
	ListTypes(ctx context.Context, academyID string) ([]models.ExamType, error)
	DeleteType(ctx context.Context, academyID string, id int64) error
	Create(ctx context.Context, exec sqlx.ExtContext, exam *models.Exam) error
	FindByID(ctx context.Context, id int64) (*models.Exam, error)
	ListByLecture(ctx context.Context, lectureID int64) ([]models.Exam, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

// ExamService manages exam types and exams.
type ExamService struct {
	exams     examRepository
	lectures  lectureFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(exams examRepository, lectures lectureFinder, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExamService{exams: exams, lectures: lectures, validator: validate, logger: logger}
}

// CreateType adds an exam type to an academy.
func (s *ExamService) CreateType(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateExamTypeRequest) (*models.ExamType, error) {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := requireAcademy(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam type payload")
	}
	examType := &models.ExamType{AcademyID: academyID, Name: req.Name}
	if err := s.exams.CreateType(ctx, examType); err != nil {
		return nil, appErrors.FromPostgres(err, "exam type already exists")
	}
	return examType, nil
}

// ListTypes returns the exam types of an academy.
func (s *ExamService) ListTypes(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.ExamType, error) {
	if err := requireAcademy(actor, academyID); err != nil {
		return nil, err
	}
	types, err := s.exams.ListTypes(ctx, academyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam types")
	}
	return types, nil
}

// DeleteType removes an unused exam type.
func (s *ExamService) DeleteType(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) error {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return err
	}
	if err := requireAcademy(actor, academyID); err != nil {
		return err
	}
	if err := s.exams.DeleteType(ctx, academyID, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "exam type not found")
		case appErrors.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "exam type is used by exams")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam type")
	}
	return nil
}

// Create adds an exam to a lecture.
func (s *ExamService) Create(ctx context.Context, actor *models.JWTClaims, lectureID int64, req models.CreateExamRequest) (*models.Exam, error) {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return nil, err
	}
	lecture, err := accessibleLecture(ctx, s.lectures, actor, lectureID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	examDate, err := time.Parse(models.ExamDateLayout, req.ExamDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam_date must be YYYY-MM-DD")
	}
	examType, err := s.exams.FindType(ctx, req.ExamTypeID)
	if err != nil || examType.AcademyID != lecture.AcademyID {
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam type")
	}

	exam := &models.Exam{LectureID: lecture.ID, ExamTypeID: examType.ID, Name: req.Name, ExamDate: examDate}
	if err := s.exams.Create(ctx, nil, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return exam, nil
}

// List returns the exams of a lecture.
func (s *ExamService) List(ctx context.Context, actor *models.JWTClaims, lectureID int64) ([]models.Exam, error) {
	if _, err := accessibleLecture(ctx, s.lectures, actor, lectureID); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByLecture(ctx, lectureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// Get returns one exam of a lecture.
func (s *ExamService) Get(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.Exam, error) {
	if _, err := accessibleLecture(ctx, s.lectures, actor, lectureID); err != nil {
		return nil, err
	}
	return lectureExam(ctx, s.exams, lectureID, examID)
}

// Delete removes an exam and its scores.
func (s *ExamService) Delete(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) error {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return err
	}
	if _, err := accessibleLecture(ctx, s.lectures, actor, lectureID); err != nil {
		return err
	}
	if _, err := lectureExam(ctx, s.exams, lectureID, examID); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, nil, examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	return nil
}

type examFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Exam, error)
}

// lectureExam loads an exam and checks it belongs to lectureID.
func lectureExam(ctx context.Context, exams examFinder, lectureID, examID int64) (*models.Exam, error) {
	exam, err := exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if exam.LectureID != lectureID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	return exam, nil
}
