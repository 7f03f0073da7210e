package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from  Status
		event Event
		to    Status
		ok    bool
	}{
		{StatusPending, EventApprove, StatusApproved, true},
		{StatusPending, EventReject, StatusRejected, true},
		{StatusPending, EventCancel, StatusCancelled, true},
		{StatusPending, EventComplete, StatusPending, false},
		{StatusApproved, EventCancel, StatusCancelled, true},
		{StatusApproved, EventComplete, StatusCompleted, true},
		{StatusApproved, EventApprove, StatusApproved, false},
		{StatusApproved, EventReject, StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			to, err := NextStatus(tt.from, tt.event)
			if tt.ok {
				require.NoError(t, err)
			} else {
				var te *TransitionError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tt.from, te.From)
			}
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	events := []Event{EventApprove, EventReject, EventCancel, EventComplete}
	for _, s := range []Status{StatusRejected, StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsTerminal())
		assert.False(t, s.IsActive())
		for _, e := range events {
			assert.False(t, CanTransition(s, e), "%s -> %s", s, e)
		}
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("confirmed").Valid())
	assert.True(t, CategoryOther.Valid())
	assert.False(t, Category("ladder").Valid())
}
