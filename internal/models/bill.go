package models

import "time"

// BillDeadlineLayout is the calendar layout of bill deadlines.
const BillDeadlineLayout = "2006-01-02"

// Bill is a joint charge against a set of users for a set of classes.
type Bill struct {
	ID        int64      `db:"id" json:"id"`
	AcademyID string     `db:"academy_id" json:"academy_id"`
	Amount    int64      `db:"amount" json:"amount"`
	Deadline  time.Time  `db:"deadline" json:"deadline"`
	IsPaid    bool       `db:"is_paid" json:"is_paid"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	Memo      string     `db:"memo" json:"memo"`
	ClassIDs  []int64    `db:"-" json:"class_ids,omitempty"`
	UserIDs   []string   `db:"-" json:"user_ids,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// BillTotal sums the expense of every class. Discounts are not applied.
func BillTotal(classes []Class) int64 {
	var total int64
	for _, c := range classes {
		total += c.Expense
	}
	return total
}

// CreateBillRequest issues a bill.
type CreateBillRequest struct {
	UserIDs  []string `json:"user_ids" validate:"required,min=1,dive,required"`
	ClassIDs []int64  `json:"class_ids" validate:"required,min=1,dive,gt=0"`
	Deadline string   `json:"deadline" validate:"required"`
	Memo     string   `json:"memo" validate:"max=500"`
}

// PayBillRequest marks a bill as paid.
type PayBillRequest struct {
	BillID int64 `json:"bill_id" validate:"required,gt=0"`
}
