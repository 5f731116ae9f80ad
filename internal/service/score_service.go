package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type scoreRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Exam, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Exam, error)
	UpdateStats(ctx context.Context, exec sqlx.ExtContext, id int64, stats models.ExamStats) error
	UpsertScores(ctx context.Context, exec sqlx.ExtContext, examID int64, scores []models.ExamUserScore) error
	FindScore(ctx context.Context, exec sqlx.ExtContext, examID int64, userID string) (*models.ExamUserScore, error)
	InsertScore(ctx context.Context, exec sqlx.ExtContext, examID int64, userID string, score float64) error
	UpdateScore(ctx context.Context, exec sqlx.ExtContext, examID int64, userID string, score float64) error
	ScoreValues(ctx context.Context, exec sqlx.ExtContext, examID int64) ([]float64, error)
	ScoreExtremes(ctx context.Context, exec sqlx.ExtContext, examID int64) (float64, float64, error)
	ListScores(ctx context.Context, examID int64) ([]models.ExamUserScore, error)
}

type childLister interface {
	ListChildren(ctx context.Context, parentID string) ([]models.User, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ScoreService maintains per-user exam scores and the cached exam projection.
// Every mutation locks the exam row so concurrent writers serialise.
type ScoreService struct {
	scores    scoreRepository
	lectures  lectureFinder
	children  childLister
	audit     auditRecorder
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(scores scoreRepository, lectures lectureFinder, children childLister, audit auditRecorder, tx txProvider, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScoreService{
		scores:    scores,
		lectures:  lectures,
		children:  children,
		audit:     audit,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// normalizeScores validates a batch before anything is written. A missing
// score counts as zero, a repeated user keeps its last entry.
func normalizeScores(entries []models.ScoreEntry) ([]models.ExamUserScore, error) {
	index := make(map[string]int, len(entries))
	out := make([]models.ExamUserScore, 0, len(entries))
	for i, entry := range entries {
		value := 0.0
		if entry.Score != nil {
			value = *entry.Score
		}
		if !models.ValidScore(value) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score of entry %d must be between 0 and 100", i))
		}
		if pos, ok := index[entry.UserID]; ok {
			out[pos].Score = value
			continue
		}
		index[entry.UserID] = len(out)
		out = append(out, models.ExamUserScore{UserID: entry.UserID, Score: value})
	}
	return out, nil
}

// Upload upserts a batch of scores and recomputes the exam projection from
// the full score set. An invalid entry rejects the batch with no writes.
func (s *ScoreService) Upload(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, req models.UploadScoresRequest) (result *models.Exam, err error) {
	if err = s.requireStaffExam(ctx, actor, lectureID, examID); err != nil {
		return nil, err
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	batch, err := normalizeScores(req.Scores)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exam, err := s.lock(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	if err = s.scores.UpsertScores(ctx, tx, examID, batch); err != nil {
		if appErrors.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scores")
	}
	if err = s.recompute(ctx, tx, exam); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit scores")
	}

	s.record(ctx, actor, examID, len(batch))
	return exam, nil
}

// Modify changes one user's score. Total and average move by the delta and
// the extremes are rescanned. Setting the current value writes nothing.
func (s *ScoreService) Modify(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, userID string, req models.ModifyScoreRequest) (*models.Exam, error) {
	if err := s.requireStaffExam(ctx, actor, lectureID, examID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if !models.ValidScore(*req.Score) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and 100")
	}
	return s.apply(ctx, examID, userID, *req.Score, false)
}

// RecordScore sets a user's score, inserting it when absent. A first
// score increments the headcount.
func (s *ScoreService) RecordScore(ctx context.Context, examID int64, userID string, score float64) (*models.Exam, error) {
	if !models.ValidScore(score) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and 100")
	}
	return s.apply(ctx, examID, userID, score, true)
}

// Recalculate rebuilds the exam projection from its score rows.
func (s *ScoreService) Recalculate(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (result *models.Exam, err error) {
	if err = s.requireStaffExam(ctx, actor, lectureID, examID); err != nil {
		return nil, err
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	exam, err := s.lock(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	if err = s.recompute(ctx, tx, exam); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit recalculation")
	}
	return exam, nil
}

// Sheet returns an exam with its scores. Students see their own score and
// parents see their children's.
func (s *ScoreService) Sheet(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.ExamScoreSheet, error) {
	if _, err := accessibleLecture(ctx, s.lectures, actor, lectureID); err != nil {
		return nil, err
	}
	exam, err := lectureExam(ctx, s.scores, lectureID, examID)
	if err != nil {
		return nil, err
	}
	scores, err := s.scores.ListScores(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	visible, err := s.visibleUsers(ctx, actor)
	if err != nil {
		return nil, err
	}
	if visible != nil {
		filtered := scores[:0]
		for _, score := range scores {
			if _, ok := visible[score.UserID]; ok {
				filtered = append(filtered, score)
			}
		}
		scores = filtered
	}
	if scores == nil {
		scores = []models.ExamUserScore{}
	}
	return &models.ExamScoreSheet{Exam: *exam, Scores: scores}, nil
}

// visibleUsers returns nil when every score is visible to actor.
func (s *ScoreService) visibleUsers(ctx context.Context, actor *models.JWTClaims) (map[string]struct{}, error) {
	switch actor.Role {
	case models.RoleStudent:
		return map[string]struct{}{actor.UserID: {}}, nil
	case models.RoleParent:
		children, err := s.children.ListChildren(ctx, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
		}
		visible := make(map[string]struct{}, len(children))
		for _, child := range children {
			visible[child.ID] = struct{}{}
		}
		return visible, nil
	default:
		return nil, nil
	}
}

func (s *ScoreService) apply(ctx context.Context, examID int64, userID string, score float64, allowInsert bool) (result *models.Exam, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exam, err := s.lock(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	stats := exam.Stats()
	current, err := s.scores.FindScore(ctx, tx, examID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !allowInsert {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		if err = s.scores.InsertScore(ctx, tx, examID, userID, score); err != nil {
			if appErrors.IsForeignKeyViolation(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
		}
		stats.Headcount++
		stats.Total += score
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	case current.Score == score:
		if err = tx.Commit(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit score")
		}
		return exam, nil
	default:
		if err = s.scores.UpdateScore(ctx, tx, examID, userID, score); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
		}
		stats.Total += score - current.Score
	}

	stats.Average = models.Average(stats.Total, stats.Headcount)
	if stats.Low, stats.High, err = s.scores.ScoreExtremes(ctx, tx, examID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rescan score extremes")
	}
	if err = s.scores.UpdateStats(ctx, tx, examID, stats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam statistics")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit score")
	}
	exam.ApplyStats(stats)
	return exam, nil
}

func (s *ScoreService) lock(ctx context.Context, tx sqlx.ExtContext, examID int64) (*models.Exam, error) {
	exam, err := s.scores.LockByID(ctx, tx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock exam")
	}
	return exam, nil
}

func (s *ScoreService) recompute(ctx context.Context, tx sqlx.ExtContext, exam *models.Exam) error {
	values, err := s.scores.ScoreValues(ctx, tx, exam.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	stats := models.ComputeExamStats(values)
	if err := s.scores.UpdateStats(ctx, tx, exam.ID, stats); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam statistics")
	}
	exam.ApplyStats(stats)
	return nil
}

func (s *ScoreService) requireStaffExam(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) error {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return err
	}
	if _, err := accessibleLecture(ctx, s.lectures, actor, lectureID); err != nil {
		return err
	}
	_, err := lectureExam(ctx, s.scores, lectureID, examID)
	return err
}

func (s *ScoreService) record(ctx context.Context, actor *models.JWTClaims, examID int64, count int) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(examID, 10)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionScoreUpload,
		Resource:   "exam",
		ResourceID: &resourceID,
		NewValues:  []byte(fmt.Sprintf(`{"count":%d}`, count)),
	}); err != nil {
		s.logger.Warn("failed to record score audit log", zap.Error(err))
	}
}
