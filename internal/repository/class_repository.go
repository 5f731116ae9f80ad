package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-api/internal/models"
)

// ClassRepository manages persistence for billable classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a class and fills its id.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	class.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO classes (academy_id, name, expense, discount, duration, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &class.ID, query, class.AcademyID, class.Name, class.Expense, class.Discount, class.Duration, class.CreatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// List returns the classes of an academy.
func (r *ClassRepository) List(ctx context.Context, academyID string) ([]models.Class, error) {
	var classes []models.Class
	const query = `SELECT id, academy_id, name, expense, discount, duration, created_at FROM classes WHERE academy_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &classes, query, academyID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByIDs loads the listed classes of an academy. Missing ids are simply absent from the result.
func (r *ClassRepository) FindByIDs(ctx context.Context, exec sqlx.ExtContext, academyID string, ids []int64) ([]models.Class, error) {
	target := sqlx.ExtContext(r.db)
	if exec != nil {
		target = exec
	}
	var classes []models.Class
	const query = `SELECT id, academy_id, name, expense, discount, duration, created_at FROM classes WHERE academy_id = $1 AND id = ANY($2) ORDER BY id`
	if err := sqlx.SelectContext(ctx, target, &classes, query, academyID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find classes: %w", err)
	}
	return classes, nil
}

// Delete removes a class of an academy.
func (r *ClassRepository) Delete(ctx context.Context, academyID string, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1 AND academy_id = $2`, id, academyID)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
