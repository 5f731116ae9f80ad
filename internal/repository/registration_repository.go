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

const registrationColumns = `r.id, r.academy_id, r.user_id, u.name AS user_name, r.role, r.status, r.linked_registration_id, r.created_at, r.updated_at`

// RegistrationRepository persists academy join requests.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a PENDING registration and fills its id.
func (r *RegistrationRepository) Create(ctx context.Context, exec sqlx.ExtContext, reg *models.Registration) error {
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	reg.Status = models.RegistrationPending
	const query = `INSERT INTO academy_user_registrations (academy_id, user_id, role, status, linked_registration_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &reg.ID, query,
		reg.AcademyID, reg.UserID, string(reg.Role), string(reg.Status), reg.LinkedRegistrationID, reg.CreatedAt, reg.UpdatedAt); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindPending returns the open request of user for academy and role.
func (r *RegistrationRepository) FindPending(ctx context.Context, exec sqlx.ExtContext, academyID, userID string, role models.UserRole) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM academy_user_registrations r JOIN users u ON u.id = r.user_id
WHERE r.academy_id = $1 AND r.user_id = $2 AND r.role = $3 AND r.status = 'PENDING' LIMIT 1`
	var reg models.Registration
	if err := sqlx.GetContext(ctx, r.exec(exec), &reg, query, academyID, userID, string(role)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pending registration: %w", err)
	}
	return &reg, nil
}

// FindByIDForUpdate loads a registration and locks it for the surrounding transaction.
func (r *RegistrationRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM academy_user_registrations r JOIN users u ON u.id = r.user_id
WHERE r.id = $1 FOR UPDATE OF r`
	var reg models.Registration
	if err := sqlx.GetContext(ctx, r.exec(exec), &reg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// Link points a registration at its counterpart.
func (r *RegistrationRepository) Link(ctx context.Context, exec sqlx.ExtContext, id, linkedID int64) error {
	const query = `UPDATE academy_user_registrations SET linked_registration_id = $2, updated_at = NOW() WHERE id = $1 AND linked_registration_id IS NULL`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, linkedID); err != nil {
		return fmt.Errorf("link registration: %w", err)
	}
	return nil
}

// UpdateStatus moves a PENDING registration to status. It returns
// sql.ErrNoRows when the row is no longer pending.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status models.RegistrationStatus) error {
	const query = `UPDATE academy_user_registrations SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'PENDING'`
	result, err := r.exec(exec).ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("registration rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns the registrations of an academy, newest first.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	args := []interface{}{filter.AcademyID}
	query := `SELECT ` + registrationColumns + ` FROM academy_user_registrations r JOIN users u ON u.id = r.user_id WHERE r.academy_id = $1`
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}
