package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-api/internal/models"
)

const academyColumns = `id, name, phone, email, address, status, invite_key, student_count, teacher_count, chief_id, created_at, updated_at`

// AcademyRepository manages tenant rows.
type AcademyRepository struct {
	db *sqlx.DB
}

// NewAcademyRepository constructs the repository.
func NewAcademyRepository(db *sqlx.DB) *AcademyRepository {
	return &AcademyRepository{db: db}
}

func (r *AcademyRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new academy.
func (r *AcademyRepository) Create(ctx context.Context, exec sqlx.ExtContext, academy *models.Academy) error {
	now := time.Now().UTC()
	academy.CreatedAt = now
	academy.UpdatedAt = now
	if academy.Status == "" {
		academy.Status = models.AcademyPending
	}
	const query = `INSERT INTO academies (id, name, phone, email, address, status, invite_key, student_count, teacher_count, chief_id, created_at, updated_at)
VALUES (:id, :name, :phone, :email, :address, :status, :invite_key, :student_count, :teacher_count, :chief_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, academy); err != nil {
		return fmt.Errorf("create academy: %w", err)
	}
	return nil
}

// FindByID loads an academy.
func (r *AcademyRepository) FindByID(ctx context.Context, id string) (*models.Academy, error) {
	return r.findOne(ctx, `SELECT `+academyColumns+` FROM academies WHERE id = $1`, id)
}

// FindByInviteKey resolves the academy owning an invite key.
func (r *AcademyRepository) FindByInviteKey(ctx context.Context, key string) (*models.Academy, error) {
	return r.findOne(ctx, `SELECT `+academyColumns+` FROM academies WHERE invite_key = $1`, key)
}

func (r *AcademyRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Academy, error) {
	var academy models.Academy
	if err := r.db.GetContext(ctx, &academy, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find academy: %w", err)
	}
	return &academy, nil
}

// Update persists descriptive fields.
func (r *AcademyRepository) Update(ctx context.Context, academy *models.Academy) error {
	academy.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academies SET name = :name, phone = :phone, email = :email, address = :address, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, academy); err != nil {
		return fmt.Errorf("update academy: %w", err)
	}
	return nil
}

// UpdateStatus sets the approval state.
func (r *AcademyRepository) UpdateStatus(ctx context.Context, id string, status models.AcademyStatus) error {
	const query = `UPDATE academies SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update academy status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateInviteKey replaces the invite key.
func (r *AcademyRepository) UpdateInviteKey(ctx context.Context, id, key string) error {
	const query = `UPDATE academies SET invite_key = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, key); err != nil {
		return fmt.Errorf("update invite key: %w", err)
	}
	return nil
}

// RecountMembers recomputes the cached student and teacher headcounts from users.
func (r *AcademyRepository) RecountMembers(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE academies SET
    student_count = (SELECT COUNT(*) FROM users WHERE academy_id = $1 AND role = 'STUDENT'),
    teacher_count = (SELECT COUNT(*) FROM users WHERE academy_id = $1 AND role = 'TEACHER'),
    updated_at = NOW()
WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("recount academy members: %w", err)
	}
	return nil
}
