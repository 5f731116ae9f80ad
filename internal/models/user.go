package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleChief   UserRole = "CHIEF"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
	RoleParent  UserRole = "PARENT"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleChief, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Role         UserRole  `db:"role" json:"role"`
	AcademyID    *string   `db:"academy_id" json:"academy_id,omitempty"`
	ParentID     *string   `db:"parent_id" json:"parent_id,omitempty"`
	ImageKey     *string   `db:"image_key" json:"-"`
	ImageURL     string    `db:"-" json:"image_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// BelongsTo reports whether the user is affiliated with academyID.
func (u *User) BelongsTo(academyID string) bool {
	return u != nil && u.AcademyID != nil && *u.AcademyID == academyID
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	AcademyID string
	Role      *UserRole
	Page      int
	PageSize  int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NormalizePage clamps page and size to sane bounds.
func NormalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
