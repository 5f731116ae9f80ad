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

const lectureColumns = `id, academy_id, teacher_id, name, start_time, end_time, days, created_at, updated_at`

// LectureRepository persists lectures and their rosters.
type LectureRepository struct {
	db *sqlx.DB
}

// NewLectureRepository constructs the repository.
func NewLectureRepository(db *sqlx.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

// Create inserts a lecture and fills its id.
func (r *LectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	now := time.Now().UTC()
	lecture.CreatedAt = now
	lecture.UpdatedAt = now
	const query = `INSERT INTO lectures (academy_id, teacher_id, name, start_time, end_time, days, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &lecture.ID, query,
		lecture.AcademyID, lecture.TeacherID, lecture.Name, lecture.StartTime, lecture.EndTime, lecture.Days, now, now); err != nil {
		return fmt.Errorf("create lecture: %w", err)
	}
	return nil
}

// FindByID loads a lecture.
func (r *LectureRepository) FindByID(ctx context.Context, id int64) (*models.Lecture, error) {
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, `SELECT `+lectureColumns+` FROM lectures WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lecture: %w", err)
	}
	return &lecture, nil
}

// ListByAcademy returns every lecture of an academy.
func (r *LectureRepository) ListByAcademy(ctx context.Context, academyID string) ([]models.Lecture, error) {
	var lectures []models.Lecture
	if err := r.db.SelectContext(ctx, &lectures, `SELECT `+lectureColumns+` FROM lectures WHERE academy_id = $1 ORDER BY id`, academyID); err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	return lectures, nil
}

// Update persists mutable lecture fields.
func (r *LectureRepository) Update(ctx context.Context, lecture *models.Lecture) error {
	lecture.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lectures SET teacher_id = :teacher_id, name = :name, start_time = :start_time, end_time = :end_time, days = :days, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lecture); err != nil {
		return fmt.Errorf("update lecture: %w", err)
	}
	return nil
}

// Delete removes a lecture. Rosters, exams and scores cascade.
func (r *LectureRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddParticipants enrols users, ignoring those already enrolled.
func (r *LectureRepository) AddParticipants(ctx context.Context, lectureID int64, userIDs []string) error {
	const query = `INSERT INTO lecture_participants (lecture_id, user_id) SELECT $1, UNNEST($2::text[]) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, lectureID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("add lecture participants: %w", err)
	}
	return nil
}

// RemoveParticipant drops one user from the roster.
func (r *LectureRepository) RemoveParticipant(ctx context.Context, lectureID int64, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lecture_participants WHERE lecture_id = $1 AND user_id = $2`, lectureID, userID)
	if err != nil {
		return fmt.Errorf("remove lecture participant: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListParticipants returns the user ids on the roster.
func (r *LectureRepository) ListParticipants(ctx context.Context, lectureID int64) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM lecture_participants WHERE lecture_id = $1 ORDER BY user_id`, lectureID); err != nil {
		return nil, fmt.Errorf("list lecture participants: %w", err)
	}
	return ids, nil
}

// IsParticipant reports whether userID is enrolled in the lecture.
func (r *LectureRepository) IsParticipant(ctx context.Context, lectureID int64, userID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM lecture_participants WHERE lecture_id = $1 AND user_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, lectureID, userID); err != nil {
		return false, fmt.Errorf("check lecture participant: %w", err)
	}
	return exists, nil
}
