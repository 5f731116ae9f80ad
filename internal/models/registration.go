package models

import (
	"errors"
	"time"
)

// RegistrationStatus tracks an academy join request.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// ErrInvalidTransition is returned when a registration cannot move to the requested state.
var ErrInvalidTransition = errors.New("invalid registration transition")

// Terminal reports whether no further transition is possible.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationApproved || s == RegistrationRejected
}

// Transition returns the state reached from s when moving to target.
// Only PENDING may move, and only to APPROVED or REJECTED.
func (s RegistrationStatus) Transition(target RegistrationStatus) (RegistrationStatus, error) {
	if s != RegistrationPending || !target.Terminal() {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// Registration is a request linking a user to an academy with a role.
type Registration struct {
	ID                   int64              `db:"id" json:"id"`
	AcademyID            string             `db:"academy_id" json:"academy_id"`
	UserID               string             `db:"user_id" json:"user_id"`
	UserName             string             `db:"user_name" json:"user_name,omitempty"`
	Role                 UserRole           `db:"role" json:"role"`
	Status               RegistrationStatus `db:"status" json:"status"`
	LinkedRegistrationID *int64             `db:"linked_registration_id" json:"linked_registration_id,omitempty"`
	CreatedAt            time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}

// LinkedTransition moves a registration and its linked counterpart together.
// A secondary that was already settled by another decision keeps its state.
type LinkedTransition struct {
	Primary   Registration
	Secondary *Registration
	Target    RegistrationStatus
}

// Apply returns the registrations whose state changes, primary first.
// It fails without partial results when the primary cannot transition.
func (t LinkedTransition) Apply() ([]Registration, error) {
	next, err := t.Primary.Status.Transition(t.Target)
	if err != nil {
		return nil, err
	}
	primary := t.Primary
	primary.Status = next
	changed := []Registration{primary}

	if t.Secondary == nil || t.Secondary.Status.Terminal() {
		return changed, nil
	}
	secondary := *t.Secondary
	if secondary.Status, err = secondary.Status.Transition(t.Target); err != nil {
		return nil, err
	}
	return append(changed, secondary), nil
}

// CreateRegistrationRequest asks to join the academy owning InviteKey.
type CreateRegistrationRequest struct {
	InviteKey string   `json:"invite_key" validate:"required"`
	Role      UserRole `json:"role" validate:"required,oneof=TEACHER STUDENT PARENT"`
}

// DecideRegistrationRequest approves or rejects a registration.
type DecideRegistrationRequest struct {
	Status RegistrationStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// RegistrationFilter scopes registration listings.
type RegistrationFilter struct {
	AcademyID string
	Status    *RegistrationStatus
}
