package models

import "time"

// AcademyStatus is the approval state of an academy.
type AcademyStatus string

const (
	AcademyPending  AcademyStatus = "PENDING"
	AcademyApproved AcademyStatus = "APPROVED"
	AcademyRejected AcademyStatus = "REJECTED"
)

// Academy is a tenant organisation.
type Academy struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	Phone        string        `db:"phone" json:"phone"`
	Email        string        `db:"email" json:"email"`
	Address      string        `db:"address" json:"address"`
	Status       AcademyStatus `db:"status" json:"status"`
	InviteKey    string        `db:"invite_key" json:"invite_key,omitempty"`
	StudentCount int           `db:"student_count" json:"student_count"`
	TeacherCount int           `db:"teacher_count" json:"teacher_count"`
	ChiefID      string        `db:"chief_id" json:"chief_id"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// CreateAcademyRequest is submitted by a chief opening an academy.
type CreateAcademyRequest struct {
	ID      string `json:"id" validate:"required,alphanum,min=3,max=32"`
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"omitempty,numeric,max=11"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"omitempty,max=200"`
}

// UpdateAcademyRequest carries optional academy edits.
type UpdateAcademyRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone   *string `json:"phone" validate:"omitempty,numeric,max=11"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address" validate:"omitempty,max=200"`
}

// UpdateAcademyStatusRequest approves or rejects an academy.
type UpdateAcademyStatusRequest struct {
	Status AcademyStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}
