package domain

import (
	"fmt"

	"github.com/solutionshark/backend/pkg/constants"
)

// StageTransition represents an action that can change a solution's stage
type StageTransition string

const (
	// TransitionSubmit moves a draft solution into review when approvals are created
	TransitionSubmit StageTransition = "Submit"
	// TransitionApprove completes review once no approvals remain pending
	TransitionApprove StageTransition = "Approve"
	// TransitionReject resets a solution to draft after a rejection
	TransitionReject StageTransition = "Reject"
	// TransitionResubmit returns a rejected solution to draft for another attempt
	TransitionResubmit StageTransition = "Resubmit"
	// TransitionOverride is the explicit admin escape hatch out of approved
	TransitionOverride StageTransition = "Override"
)

// StageStateMachine enforces valid stage transitions for solutions.
// Invalid transitions return an error (fail-fast approach).
type StageStateMachine struct {
	// transitions maps (current stage, transition) -> next stage
	transitions map[stageTransitionKey]constants.SolutionStage
}

type stageTransitionKey struct {
	stage      constants.SolutionStage
	transition StageTransition
}

// NewStageStateMachine creates a state machine with the solution lifecycle rules.
// Stage diagram:
//
//	[draft] ──Submit──► [review] ──Approve──► [approved]
//	   ▲                   │                      │
//	   │                 Reject               Override
//	   └───────────────────┘◄─────────────────────┘
//
//	[rejected] ──Resubmit──► [draft]
func NewStageStateMachine() *StageStateMachine {
	sm := &StageStateMachine{
		transitions: make(map[stageTransitionKey]constants.SolutionStage),
	}

	sm.addTransition(constants.StageDraft, TransitionSubmit, constants.StageReview)
	sm.addTransition(constants.StageReview, TransitionApprove, constants.StageApproved)
	sm.addTransition(constants.StageReview, TransitionReject, constants.StageDraft)
	sm.addTransition(constants.StageRejected, TransitionResubmit, constants.StageDraft)
	sm.addTransition(constants.StageApproved, TransitionOverride, constants.StageDraft)

	return sm
}

func (sm *StageStateMachine) addTransition(from constants.SolutionStage, via StageTransition, to constants.SolutionStage) {
	key := stageTransitionKey{stage: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current stage using the given action.
// Returns the new stage or an error if the transition is invalid.
func (sm *StageStateMachine) Transition(current constants.SolutionStage, action StageTransition) (constants.SolutionStage, error) {
	key := stageTransitionKey{stage: current, transition: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid stage transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *StageStateMachine) CanTransition(current constants.SolutionStage, action StageTransition) bool {
	key := stageTransitionKey{stage: current, transition: action}
	_, ok := sm.transitions[key]
	return ok
}

// ValidTransitions returns all valid transitions from the given stage.
func (sm *StageStateMachine) ValidTransitions(stage constants.SolutionStage) []StageTransition {
	var result []StageTransition
	for key := range sm.transitions {
		if key.stage == stage {
			result = append(result, key.transition)
		}
	}
	return result
}

// IsTerminal returns true if the stage has no outgoing transitions other
// than the explicit admin override.
func (sm *StageStateMachine) IsTerminal(stage constants.SolutionStage) bool {
	return stage == constants.StageApproved
}

// DeriveStage computes the stage implied by an approval aggregate: total
// approvals for the solution, how many are pending, and how many were
// rejected. Only pending work pins a stage; a settled aggregate returns
// ok=false because its final stage is owned by the inline decision writes
// (and by the admin override, which a settled aggregate cannot see).
func DeriveStage(total, pending, rejected int) (constants.SolutionStage, bool) {
	if total == 0 {
		return "", false
	}
	if pending > 0 {
		return constants.StageReview, true
	}
	return "", false
}
