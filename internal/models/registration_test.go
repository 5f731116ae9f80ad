package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionFromPending(t *testing.T) {
	next, err := RegistrationPending.Transition(RegistrationApproved)
	require.NoError(t, err)
	assert.Equal(t, RegistrationApproved, next)

	_, err = RegistrationPending.Transition(RegistrationPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionFromTerminal(t *testing.T) {
	_, err := RegistrationRejected.Transition(RegistrationApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLinkedTransitionMovesBoth(t *testing.T) {
	student := Registration{ID: 1, Role: RoleStudent, Status: RegistrationPending}
	parent := Registration{ID: 2, Role: RoleParent, Status: RegistrationPending}

	changed, err := LinkedTransition{Primary: student, Secondary: &parent, Target: RegistrationRejected}.Apply()
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, RegistrationRejected, changed[0].Status)
	assert.Equal(t, RegistrationRejected, changed[1].Status)
	assert.Equal(t, RegistrationPending, parent.Status)
}

func TestLinkedTransitionSkipsSettledSecondary(t *testing.T) {
	student := Registration{ID: 3, Status: RegistrationPending}
	parent := Registration{ID: 2, Status: RegistrationApproved}

	changed, err := LinkedTransition{Primary: student, Secondary: &parent, Target: RegistrationApproved}.Apply()
	require.NoError(t, err)
	assert.Len(t, changed, 1)
}

func TestLinkedTransitionRejectsDecidedPrimary(t *testing.T) {
	student := Registration{ID: 1, Status: RegistrationApproved}
	parent := Registration{ID: 2, Status: RegistrationPending}

	changed, err := LinkedTransition{Primary: student, Secondary: &parent, Target: RegistrationRejected}.Apply()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, changed)
}
