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

const noticeColumns = `id, academy_id, lecture_id, notice_num, title, content, author_id, views, created_at, updated_at`

// NoticeRepository persists notices and their file metadata.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository constructs the repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

func (r *NoticeRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// NextSequence allocates the next notice number of a scope. The advisory lock
// holds until the surrounding transaction ends, so exec must be a transaction.
func (r *NoticeRepository) NextSequence(ctx context.Context, exec sqlx.ExtContext, academyID string, lectureID int64) (int, error) {
	target := r.exec(exec)
	lockKey := fmt.Sprintf("notice:%s:%d", academyID, lectureID)
	if _, err := target.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return 0, fmt.Errorf("lock notice sequence: %w", err)
	}
	var next int
	const query = `SELECT COALESCE(MAX(notice_num), 0) + 1 FROM notices WHERE academy_id = $1 AND lecture_id = $2`
	if err := sqlx.GetContext(ctx, target, &next, query, academyID, lectureID); err != nil {
		return 0, fmt.Errorf("compute next notice number: %w", err)
	}
	return next, nil
}

// Create inserts a notice row.
func (r *NoticeRepository) Create(ctx context.Context, exec sqlx.ExtContext, notice *models.Notice) error {
	now := time.Now().UTC()
	notice.CreatedAt = now
	notice.UpdatedAt = now
	const query = `INSERT INTO notices (id, academy_id, lecture_id, notice_num, title, content, author_id, views, created_at, updated_at)
VALUES (:id, :academy_id, :lecture_id, :notice_num, :title, :content, :author_id, :views, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// AddFiles records attachment metadata, replacing rows with the same filename.
func (r *NoticeRepository) AddFiles(ctx context.Context, exec sqlx.ExtContext, files []models.NoticeFile) error {
	const query = `INSERT INTO notice_files (notice_id, filename, object_key, size_bytes, content_type, created_at)
VALUES (:notice_id, :filename, :object_key, :size_bytes, :content_type, :created_at)
ON CONFLICT (notice_id, filename) DO UPDATE SET object_key = EXCLUDED.object_key, size_bytes = EXCLUDED.size_bytes, content_type = EXCLUDED.content_type`
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range files {
		files[i].CreatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, files[i]); err != nil {
			return fmt.Errorf("add notice file %s: %w", files[i].Filename, err)
		}
	}
	return nil
}

// FindByID loads a notice without files.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	var notice models.Notice
	if err := r.db.GetContext(ctx, &notice, `SELECT `+noticeColumns+` FROM notices WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find notice: %w", err)
	}
	return &notice, nil
}

// ListFiles returns the attachment rows of a notice.
func (r *NoticeRepository) ListFiles(ctx context.Context, noticeID string) ([]models.NoticeFile, error) {
	var files []models.NoticeFile
	const query = `SELECT notice_id, filename, object_key, size_bytes, content_type, created_at FROM notice_files WHERE notice_id = $1 ORDER BY filename`
	if err := r.db.SelectContext(ctx, &files, query, noticeID); err != nil {
		return nil, fmt.Errorf("list notice files: %w", err)
	}
	return files, nil
}

// List returns notices of a scope, newest first, with the total count.
func (r *NoticeRepository) List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error) {
	args := []interface{}{filter.AcademyID}
	where := `FROM notices WHERE academy_id = $1`
	if filter.LectureID != nil {
		args = append(args, *filter.LectureID)
		where += fmt.Sprintf(" AND lecture_id = $%d", len(args))
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, notice_num DESC LIMIT %d OFFSET %d", noticeColumns, where, size, (page-1)*size)

	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list notices: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}
	return notices, total, nil
}

// UpdateText overwrites title and content.
func (r *NoticeRepository) UpdateText(ctx context.Context, exec sqlx.ExtContext, id, title, content string) error {
	const query = `UPDATE notices SET title = $2, content = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, title, content); err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *NoticeRepository) IncrementViews(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notices SET views = views + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment notice views: %w", err)
	}
	return nil
}

// DeleteFiles removes the named attachment rows.
func (r *NoticeRepository) DeleteFiles(ctx context.Context, exec sqlx.ExtContext, noticeID string, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}
	const query = `DELETE FROM notice_files WHERE notice_id = $1 AND filename = ANY($2)`
	if _, err := r.exec(exec).ExecContext(ctx, query, noticeID, pq.Array(filenames)); err != nil {
		return fmt.Errorf("delete notice files: %w", err)
	}
	return nil
}

// DeleteAllFiles removes every attachment row of a notice.
func (r *NoticeRepository) DeleteAllFiles(ctx context.Context, exec sqlx.ExtContext, noticeID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM notice_files WHERE notice_id = $1`, noticeID); err != nil {
		return fmt.Errorf("delete all notice files: %w", err)
	}
	return nil
}

// Delete removes the notice row.
func (r *NoticeRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
