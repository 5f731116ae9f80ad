package models

import "time"

// Class is a billable course offering of an academy.
type Class struct {
	ID        int64     `db:"id" json:"id"`
	AcademyID string    `db:"academy_id" json:"academy_id"`
	Name      string    `db:"name" json:"name"`
	Expense   int64     `db:"expense" json:"expense"`
	Discount  int64     `db:"discount" json:"discount"`
	Duration  int       `db:"duration" json:"duration"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateClassRequest adds a billable class.
type CreateClassRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Expense  int64  `json:"expense" validate:"gte=0"`
	Discount int64  `json:"discount" validate:"gte=0"`
	Duration int    `json:"duration" validate:"gte=0"`
}
