package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-api/internal/models"
)

const examColumns = `id, lecture_id, exam_type_id, name, exam_date, headcount, low_score, high_score, average_score, total_score, created_at, updated_at`

// ExamRepository persists exam types, exams and per-user scores.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

func (r *ExamRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateType inserts an exam type and fills its id.
func (r *ExamRepository) CreateType(ctx context.Context, examType *models.ExamType) error {
	const query = `INSERT INTO exam_types (academy_id, name) VALUES ($1, $2) RETURNING id`
	if err := r.db.GetContext(ctx, &examType.ID, query, examType.AcademyID, examType.Name); err != nil {
		return fmt.Errorf("create exam type: %w", err)
	}
	return nil
}

// EnsureType returns the exam type named name, creating it when absent.
func (r *ExamRepository) EnsureType(ctx context.Context, exec sqlx.ExtContext, academyID, name string) (*models.ExamType, error) {
	const query = `INSERT INTO exam_types (academy_id, name) VALUES ($1, $2)
ON CONFLICT (academy_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, academy_id, name`
	var examType models.ExamType
	if err := sqlx.GetContext(ctx, r.exec(exec), &examType, query, academyID, name); err != nil {
		return nil, fmt.Errorf("ensure exam type: %w", err)
	}
	return &examType, nil
}

// FindType loads an exam type.
func (r *ExamRepository) FindType(ctx context.Context, id int64) (*models.ExamType, error) {
	var examType models.ExamType
	if err := r.db.GetContext(ctx, &examType, `SELECT id, academy_id, name FROM exam_types WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find exam type: %w", err)
	}
	return &examType, nil
}

// ListTypes returns the exam types of an academy.
func (r *ExamRepository) ListTypes(ctx context.Context, academyID string) ([]models.ExamType, error) {
	var types []models.ExamType
	if err := r.db.SelectContext(ctx, &types, `SELECT id, academy_id, name FROM exam_types WHERE academy_id = $1 ORDER BY name`, academyID); err != nil {
		return nil, fmt.Errorf("list exam types: %w", err)
	}
	return types, nil
}

// DeleteType removes an exam type of an academy.
func (r *ExamRepository) DeleteType(ctx context.Context, academyID string, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exam_types WHERE id = $1 AND academy_id = $2`, id, academyID)
	if err != nil {
		return fmt.Errorf("delete exam type: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Create inserts an exam with an empty projection and fills its id.
func (r *ExamRepository) Create(ctx context.Context, exec sqlx.ExtContext, exam *models.Exam) error {
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	const query = `INSERT INTO exams (lecture_id, exam_type_id, name, exam_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &exam.ID, query,
		exam.LectureID, exam.ExamTypeID, exam.Name, exam.ExamDate, now, now); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// FindByID loads an exam.
func (r *ExamRepository) FindByID(ctx context.Context, id int64) (*models.Exam, error) {
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find exam: %w", err)
	}
	return &exam, nil
}

// LockByID loads an exam row and locks it so projection updates serialise.
func (r *ExamRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Exam, error) {
	var exam models.Exam
	if err := sqlx.GetContext(ctx, r.exec(exec), &exam, `SELECT `+examColumns+` FROM exams WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock exam: %w", err)
	}
	return &exam, nil
}

// ListByLecture returns the exams of a lecture, newest first.
func (r *ExamRepository) ListByLecture(ctx context.Context, lectureID int64) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, `SELECT `+examColumns+` FROM exams WHERE lecture_id = $1 ORDER BY exam_date DESC, id DESC`, lectureID); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// Delete removes an exam. Scores cascade.
func (r *ExamRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStats writes the cached projection.
func (r *ExamRepository) UpdateStats(ctx context.Context, exec sqlx.ExtContext, id int64, stats models.ExamStats) error {
	const query = `UPDATE exams SET headcount = $2, low_score = $3, high_score = $4, total_score = $5, average_score = $6, updated_at = NOW() WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, stats.Headcount, stats.Low, stats.High, stats.Total, stats.Average); err != nil {
		return fmt.Errorf("update exam stats: %w", err)
	}
	return nil
}

// UpsertScores creates or overwrites the scores of every listed user. User ids must be distinct.
func (r *ExamRepository) UpsertScores(ctx context.Context, exec sqlx.ExtContext, examID int64, scores []models.ExamUserScore) error {
	if len(scores) == 0 {
		return nil
	}
	userIDs := make([]string, len(scores))
	values := make([]float64, len(scores))
	for i, s := range scores {
		userIDs[i] = s.UserID
		values[i] = s.Score
	}
	const query = `INSERT INTO exam_user_scores (exam_id, user_id, score, updated_at)
SELECT $1, t.user_id, t.score, NOW() FROM UNNEST($2::text[], $3::float8[]) AS t(user_id, score)
ON CONFLICT (exam_id, user_id) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	if _, err := r.exec(exec).ExecContext(ctx, query, examID, pq.Array(userIDs), pq.Array(values)); err != nil {
		return fmt.Errorf("upsert exam scores: %w", err)
	}
	return nil
}

// FindScore loads one user's score.
func (r *ExamRepository) FindScore(ctx context.Context, exec sqlx.ExtContext, examID int64, userID string) (*models.ExamUserScore, error) {
	var score models.ExamUserScore
	const query = `SELECT exam_id, user_id, score, updated_at FROM exam_user_scores WHERE exam_id = $1 AND user_id = $2`
	if err := sqlx.GetContext(ctx, r.exec(exec), &score, query, examID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find exam score: %w", err)
	}
	return &score, nil
}

// InsertScore adds a score for a user that has none yet.
func (r *ExamRepository) InsertScore(ctx context.Context, exec sqlx.ExtContext, examID int64, userID string, score float64) error {
	const query = `INSERT INTO exam_user_scores (exam_id, user_id, score, updated_at) VALUES ($1, $2, $3, NOW())`
	if _, err := r.exec(exec).ExecContext(ctx, query, examID, userID, score); err != nil {
		return fmt.Errorf("insert exam score: %w", err)
	}
	return nil
}

// UpdateScore overwrites an existing score.
func (r *ExamRepository) UpdateScore(ctx context.Context, exec sqlx.ExtContext, examID int64, userID string, score float64) error {
	const query = `UPDATE exam_user_scores SET score = $3, updated_at = NOW() WHERE exam_id = $1 AND user_id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, examID, userID, score); err != nil {
		return fmt.Errorf("update exam score: %w", err)
	}
	return nil
}

// ScoreValues returns every score of an exam.
func (r *ExamRepository) ScoreValues(ctx context.Context, exec sqlx.ExtContext, examID int64) ([]float64, error) {
	var values []float64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &values, `SELECT score FROM exam_user_scores WHERE exam_id = $1`, examID); err != nil {
		return nil, fmt.Errorf("list exam score values: %w", err)
	}
	return values, nil
}

// ScoreExtremes rescans the score set for its lowest and highest values.
func (r *ExamRepository) ScoreExtremes(ctx context.Context, exec sqlx.ExtContext, examID int64) (float64, float64, error) {
	target := r.exec(exec)
	var low, high float64
	if err := sqlx.GetContext(ctx, target, &low, `SELECT score FROM exam_user_scores WHERE exam_id = $1 ORDER BY score ASC LIMIT 1`, examID); err != nil {
		return 0, 0, fmt.Errorf("find lowest score: %w", err)
	}
	if err := sqlx.GetContext(ctx, target, &high, `SELECT score FROM exam_user_scores WHERE exam_id = $1 ORDER BY score DESC LIMIT 1`, examID); err != nil {
		return 0, 0, fmt.Errorf("find highest score: %w", err)
	}
	return low, high, nil
}

// ListScores returns the results of an exam with user names.
func (r *ExamRepository) ListScores(ctx context.Context, examID int64) ([]models.ExamUserScore, error) {
	const query = `SELECT s.exam_id, s.user_id, u.name AS user_name, s.score, s.updated_at
FROM exam_user_scores s JOIN users u ON u.id = s.user_id WHERE s.exam_id = $1 ORDER BY u.name, s.user_id`
	var scores []models.ExamUserScore
	if err := r.db.SelectContext(ctx, &scores, query, examID); err != nil {
		return nil, fmt.Errorf("list exam scores: %w", err)
	}
	return scores, nil
}
