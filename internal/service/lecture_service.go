package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type lectureRepository interface {
	Create(ctx context.Context, lecture *models.Lecture) error
	FindByID(ctx context.Context, id int64) (*models.Lecture, error)
	ListByAcademy(ctx context.Context, academyID string) ([]models.Lecture, error)
	Update(ctx context.Context, lecture *models.Lecture) error
	Delete(ctx context.Context, id int64) error
	AddParticipants(ctx context.Context, lectureID int64, userIDs []string) error
	RemoveParticipant(ctx context.Context, lectureID int64, userID string) error
	ListParticipants(ctx context.Context, lectureID int64) ([]string, error)
}

type lectureUserRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// LectureService manages lectures and their rosters.
type LectureService struct {
	lectures  lectureRepository
	users     lectureUserRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLectureService constructs a LectureService. cache may be nil.
func NewLectureService(lectures lectureRepository, users lectureUserRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LectureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LectureService{lectures: lectures, users: users, cache: cache, validator: validate, logger: logger}
}

// Create opens a lecture in academyID.
func (s *LectureService) Create(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateLectureRequest) (*models.Lecture, error) {
	if err := s.requireStaff(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture payload")
	}
	if err := validateLectureTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.requireMembers(ctx, academyID, []string{req.TeacherID}, models.RoleTeacher, models.RoleChief); err != nil {
		return nil, err
	}

	lecture := &models.Lecture{
		AcademyID: academyID,
		TeacherID: req.TeacherID,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Days:      req.Days,
	}
	if err := s.lectures.Create(ctx, lecture); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecture")
	}
	s.cache.Invalidate(ctx, lectureListKey(academyID))
	return lecture, nil
}

// List returns the lectures of an academy. hit reports a cache hit.
func (s *LectureService) List(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.Lecture, bool, error) {
	if err := requireAcademy(actor, academyID); err != nil {
		return nil, false, err
	}
	lectures, hit, err := cached(ctx, s.cache, lectureListKey(academyID), func() ([]models.Lecture, error) {
		return s.lectures.ListByAcademy(ctx, academyID)
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lectures")
	}
	return lectures, hit, nil
}

// Get returns a lecture with its roster.
func (s *LectureService) Get(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) (*models.Lecture, error) {
	lecture, err := s.load(ctx, actor, academyID, id)
	if err != nil {
		return nil, err
	}
	participants, err := s.lectures.ListParticipants(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	lecture.Participants = participants
	return lecture, nil
}

// Update edits a lecture.
func (s *LectureService) Update(ctx context.Context, actor *models.JWTClaims, academyID string, id int64, req models.UpdateLectureRequest) (*models.Lecture, error) {
	if err := s.requireStaff(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture payload")
	}
	lecture, err := s.load(ctx, actor, academyID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		lecture.Name = *req.Name
	}
	if req.TeacherID != nil && *req.TeacherID != lecture.TeacherID {
		if err := s.requireMembers(ctx, academyID, []string{*req.TeacherID}, models.RoleTeacher, models.RoleChief); err != nil {
			return nil, err
		}
		lecture.TeacherID = *req.TeacherID
	}
	if req.StartTime != nil {
		lecture.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		lecture.EndTime = *req.EndTime
	}
	if req.Days != nil {
		lecture.Days = *req.Days
	}
	if err := validateLectureTimes(lecture.StartTime, lecture.EndTime); err != nil {
		return nil, err
	}
	if err := s.lectures.Update(ctx, lecture); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecture")
	}
	s.cache.Invalidate(ctx, lectureListKey(academyID))
	return lecture, nil
}

// Delete removes a lecture with its exams and roster.
func (s *LectureService) Delete(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) error {
	if err := s.requireStaff(actor, academyID); err != nil {
		return err
	}
	if _, err := s.load(ctx, actor, academyID, id); err != nil {
		return err
	}
	if err := s.lectures.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecture")
	}
	s.cache.Invalidate(ctx, lectureListKey(academyID))
	return nil
}

// AddParticipants enrols academy members in a lecture.
func (s *LectureService) AddParticipants(ctx context.Context, actor *models.JWTClaims, academyID string, id int64, req models.ParticipantsRequest) ([]string, error) {
	if err := s.requireStaff(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participants payload")
	}
	if _, err := s.load(ctx, actor, academyID, id); err != nil {
		return nil, err
	}
	if err := s.requireMembers(ctx, academyID, req.UserIDs, models.RoleStudent, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.lectures.AddParticipants(ctx, id, req.UserIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add participants")
	}
	participants, err := s.lectures.ListParticipants(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	return participants, nil
}

// RemoveParticipant drops a user from the roster.
func (s *LectureService) RemoveParticipant(ctx context.Context, actor *models.JWTClaims, academyID string, id int64, userID string) error {
	if err := s.requireStaff(actor, academyID); err != nil {
		return err
	}
	if _, err := s.load(ctx, actor, academyID, id); err != nil {
		return err
	}
	if err := s.lectures.RemoveParticipant(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove participant")
	}
	return nil
}

func (s *LectureService) requireStaff(actor *models.JWTClaims, academyID string) error {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return err
	}
	return requireAcademy(actor, academyID)
}

func (s *LectureService) load(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) (*models.Lecture, error) {
	lecture, err := accessibleLecture(ctx, s.lectures, actor, id)
	if err != nil {
		return nil, err
	}
	if lecture.AcademyID != academyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
	}
	return lecture, nil
}

// requireMembers checks that every id is a user of academyID holding one of roles.
func (s *LectureService) requireMembers(ctx context.Context, academyID string, ids []string, roles ...models.UserRole) error {
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	found := make(map[string]models.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	for _, id := range ids {
		u, ok := found[id]
		if !ok || !u.BelongsTo(academyID) {
			return appErrors.Clone(appErrors.ErrNotFound, "user "+id+" not found in academy")
		}
		if !hasRole(u.Role, roles) {
			return appErrors.Clone(appErrors.ErrValidation, "user "+id+" has role "+string(u.Role))
		}
	}
	return nil
}

func hasRole(role models.UserRole, roles []models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func validateLectureTimes(start, end string) error {
	startAt, err := time.Parse(models.LectureTimeLayout, start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM")
	}
	endAt, err := time.Parse(models.LectureTimeLayout, end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if !endAt.After(startAt) {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return nil
}
