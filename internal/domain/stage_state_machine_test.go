package domain

import (
	"testing"

	"github.com/solutionshark/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestStageStateMachine_ValidTransitions(t *testing.T) {
	sm := NewStageStateMachine()

	tests := []struct {
		name        string
		from        constants.SolutionStage
		action      StageTransition
		expectedTo  constants.SolutionStage
		shouldError bool
	}{
		// Valid transitions
		{"draft -> review via Submit", constants.StageDraft, TransitionSubmit, constants.StageReview, false},
		{"review -> approved via Approve", constants.StageReview, TransitionApprove, constants.StageApproved, false},
		{"review -> draft via Reject", constants.StageReview, TransitionReject, constants.StageDraft, false},
		{"rejected -> draft via Resubmit", constants.StageRejected, TransitionResubmit, constants.StageDraft, false},
		{"approved -> draft via Override", constants.StageApproved, TransitionOverride, constants.StageDraft, false},

		// Invalid transitions
		{"draft -> approved (must pass review)", constants.StageDraft, TransitionApprove, constants.StageDraft, true},
		{"approved -> review via Submit (terminal)", constants.StageApproved, TransitionSubmit, constants.StageApproved, true},
		{"review -> review via Submit (already submitted)", constants.StageReview, TransitionSubmit, constants.StageReview, true},
		{"draft -> draft via Reject (nothing in flight)", constants.StageDraft, TransitionReject, constants.StageDraft, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			newStage, err := sm.Transition(tc.from, tc.action)

			if tc.shouldError {
				assert.Error(t, err)
				assert.Equal(t, tc.from, newStage, "Stage should not change on invalid transition")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedTo, newStage)
			}
		})
	}
}

func TestStageStateMachine_CanTransition(t *testing.T) {
	sm := NewStageStateMachine()

	assert.True(t, sm.CanTransition(constants.StageDraft, TransitionSubmit))
	assert.True(t, sm.CanTransition(constants.StageReview, TransitionApprove))
	assert.True(t, sm.CanTransition(constants.StageReview, TransitionReject))
	assert.False(t, sm.CanTransition(constants.StageApproved, TransitionSubmit))
	assert.False(t, sm.CanTransition(constants.StageDraft, TransitionApprove))
}

func TestStageStateMachine_IsTerminal(t *testing.T) {
	sm := NewStageStateMachine()

	assert.False(t, sm.IsTerminal(constants.StageDraft))
	assert.False(t, sm.IsTerminal(constants.StageReview))
	assert.False(t, sm.IsTerminal(constants.StageRejected))
	assert.True(t, sm.IsTerminal(constants.StageApproved))
}

func TestDeriveStage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pending  int
		rejected int
		expected constants.SolutionStage
		ok       bool
	}{
		{"no approvals leaves stage alone", 0, 0, 0, "", false},
		{"all pending stays in review", 3, 3, 0, constants.StageReview, true},
		{"partial completion stays in review", 2, 1, 0, constants.StageReview, true},
		{"settled all-approved leaves stage alone", 2, 0, 0, "", false},
		{"rejection with work still pending stays in review", 3, 1, 1, constants.StageReview, true},
		{"settled aggregate with rejections leaves stage alone", 3, 0, 1, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stage, ok := DeriveStage(tc.total, tc.pending, tc.rejected)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, stage)
			}
		})
	}
}
