package models

import (
	"time"

	"github.com/lib/pq"
)

// LectureTimeLayout is the wall-clock layout of lecture start and end times.
const LectureTimeLayout = "15:04"

// Lecture is a scheduled course within an academy.
type Lecture struct {
	ID           int64         `db:"id" json:"id"`
	AcademyID    string        `db:"academy_id" json:"academy_id"`
	TeacherID    string        `db:"teacher_id" json:"teacher_id"`
	Name         string        `db:"name" json:"name"`
	StartTime    string        `db:"start_time" json:"start_time"`
	EndTime      string        `db:"end_time" json:"end_time"`
	Days         pq.Int64Array `db:"days" json:"days"`
	Participants []string      `db:"-" json:"participants,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// CreateLectureRequest opens a lecture.
type CreateLectureRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	TeacherID string  `json:"teacher_id" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Days      []int64 `json:"days" validate:"required,min=1,max=7,dive,min=0,max=6"`
}

// UpdateLectureRequest carries optional lecture edits.
type UpdateLectureRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=100"`
	TeacherID *string  `json:"teacher_id"`
	StartTime *string  `json:"start_time"`
	EndTime   *string  `json:"end_time"`
	Days      *[]int64 `json:"days" validate:"omitempty,min=1,max=7,dive,min=0,max=6"`
}

// ParticipantsRequest adds users to a lecture roster.
type ParticipantsRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}
