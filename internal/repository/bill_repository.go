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

const billColumns = `b.id, b.academy_id, b.amount, b.deadline, b.is_paid, b.paid_at, b.memo, b.created_at`

// BillRepository persists bills and their class and user links.
type BillRepository struct {
	db *sqlx.DB
}

// NewBillRepository constructs the repository.
func NewBillRepository(db *sqlx.DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the bill and one link row per class and per user.
func (r *BillRepository) Create(ctx context.Context, exec sqlx.ExtContext, bill *models.Bill) error {
	target := r.exec(exec)
	bill.CreatedAt = time.Now().UTC()
	const insertBill = `INSERT INTO bills (academy_id, amount, deadline, is_paid, memo, created_at) VALUES ($1, $2, $3, FALSE, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, target, &bill.ID, insertBill, bill.AcademyID, bill.Amount, bill.Deadline, bill.Memo, bill.CreatedAt); err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	const insertClasses = `INSERT INTO bill_classes (bill_id, class_id) SELECT $1, UNNEST($2::bigint[])`
	if _, err := target.ExecContext(ctx, insertClasses, bill.ID, pq.Array(bill.ClassIDs)); err != nil {
		return fmt.Errorf("create bill classes: %w", err)
	}
	const insertUsers = `INSERT INTO bill_users (bill_id, user_id) SELECT $1, UNNEST($2::text[])`
	if _, err := target.ExecContext(ctx, insertUsers, bill.ID, pq.Array(bill.UserIDs)); err != nil {
		return fmt.Errorf("create bill users: %w", err)
	}
	return nil
}

// FindByID loads a bill with its links.
func (r *BillRepository) FindByID(ctx context.Context, id int64) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.GetContext(ctx, &bill, `SELECT `+billColumns+` FROM bills b WHERE b.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find bill: %w", err)
	}
	bills := []models.Bill{bill}
	if err := r.attachLinks(ctx, bills); err != nil {
		return nil, err
	}
	return &bills[0], nil
}

// ListByAcademy returns every bill of an academy, newest first.
func (r *BillRepository) ListByAcademy(ctx context.Context, academyID string) ([]models.Bill, error) {
	var bills []models.Bill
	if err := r.db.SelectContext(ctx, &bills, `SELECT `+billColumns+` FROM bills b WHERE b.academy_id = $1 ORDER BY b.created_at DESC, b.id DESC`, academyID); err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, r.attachLinks(ctx, bills)
}

// ListByUsers returns bills owed by any of the listed users.
func (r *BillRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.Bill, error) {
	const query = `SELECT DISTINCT ` + billColumns + ` FROM bills b JOIN bill_users bu ON bu.bill_id = b.id
WHERE bu.user_id = ANY($1) ORDER BY b.created_at DESC, b.id DESC`
	var bills []models.Bill
	if err := r.db.SelectContext(ctx, &bills, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list user bills: %w", err)
	}
	return bills, r.attachLinks(ctx, bills)
}

// MarkPaid flags an unpaid bill as paid. It returns sql.ErrNoRows when the bill
// does not exist in the academy or is already paid.
func (r *BillRepository) MarkPaid(ctx context.Context, academyID string, id int64, paidAt time.Time) error {
	const query = `UPDATE bills SET is_paid = TRUE, paid_at = $3 WHERE id = $1 AND academy_id = $2 AND is_paid = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, academyID, paidAt)
	if err != nil {
		return fmt.Errorf("mark bill paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("bill rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type billLink struct {
	BillID  int64  `db:"bill_id"`
	ClassID int64  `db:"class_id"`
	UserID  string `db:"user_id"`
}

func (r *BillRepository) attachLinks(ctx context.Context, bills []models.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]int64, len(bills))
	index := make(map[int64]int, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
		index[b.ID] = i
	}

	var classLinks []billLink
	if err := r.db.SelectContext(ctx, &classLinks, `SELECT bill_id, class_id, '' AS user_id FROM bill_classes WHERE bill_id = ANY($1) ORDER BY class_id`, pq.Array(ids)); err != nil {
		return fmt.Errorf("list bill classes: %w", err)
	}
	for _, l := range classLinks {
		bills[index[l.BillID]].ClassIDs = append(bills[index[l.BillID]].ClassIDs, l.ClassID)
	}

	var userLinks []billLink
	if err := r.db.SelectContext(ctx, &userLinks, `SELECT bill_id, 0 AS class_id, user_id FROM bill_users WHERE bill_id = ANY($1) ORDER BY user_id`, pq.Array(ids)); err != nil {
		return fmt.Errorf("list bill users: %w", err)
	}
	for _, l := range userLinks {
		bills[index[l.BillID]].UserIDs = append(bills[index[l.BillID]].UserIDs, l.UserID)
	}
	return nil
}
