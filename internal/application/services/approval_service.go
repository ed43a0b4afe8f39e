package services

import (
	"context"
	"log"
	"time"

	"github.com/solutionshark/backend/internal/domain"
	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/internal/infrastructure/persistence"
	"github.com/solutionshark/backend/pkg/constants"
	apperrors "github.com/solutionshark/backend/pkg/errors"
	"github.com/solutionshark/backend/pkg/utils"
)

const processMaxRetries = 3

// ApprovalService handles submission and processing of approvals. Every
// mutation runs inside one transaction that first locks the solution row,
// so concurrent decisions on the same solution serialize.
type ApprovalService struct {
	approvals    *persistence.ApprovalRepository
	solutions    *persistence.SolutionRepository
	workflows    *persistence.WorkflowRepository
	matcher      *ConditionMatcher
	txManager    *persistence.TransactionManager
	stateMachine *domain.StageStateMachine
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	approvals *persistence.ApprovalRepository,
	solutions *persistence.SolutionRepository,
	workflows *persistence.WorkflowRepository,
	matcher *ConditionMatcher,
	txManager *persistence.TransactionManager,
) *ApprovalService {
	return &ApprovalService{
		approvals:    approvals,
		solutions:    solutions,
		workflows:    workflows,
		matcher:      matcher,
		txManager:    txManager,
		stateMachine: domain.NewStageStateMachine(),
	}
}

// GetByID fetches one approval or a NotFoundError
func (s *ApprovalService) GetByID(ctx context.Context, id string) (*models.Approval, error) {
	approval, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch approval", err)
	}
	if approval == nil {
		return nil, apperrors.NewNotFoundError("approval", id)
	}
	return approval, nil
}

// List retrieves approvals matching the filters, newest first
func (s *ApprovalService) List(ctx context.Context, filters models.ApprovalFilters) ([]*models.Approval, error) {
	approvals, err := s.approvals.List(ctx, filters)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list approvals", err)
	}
	return approvals, nil
}

// MatchingWorkflows returns the active workflows whose condition rules all
// hold for the given solution
func (s *ApprovalService) MatchingWorkflows(ctx context.Context, solutionID string) ([]*models.ApprovalWorkflow, error) {
	solution, err := s.solutions.GetByID(ctx, solutionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch solution", err)
	}
	if solution == nil {
		return nil, apperrors.NewNotFoundError("solution", solutionID)
	}

	candidates, err := s.workflows.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list active workflows", err)
	}

	matching := make([]*models.ApprovalWorkflow, 0)
	for _, w := range candidates {
		ok, err := s.matcher.Matches(solution, w.ConditionRules)
		if err != nil {
			return nil, err
		}
		if ok {
			matching = append(matching, w)
		}
	}
	return matching, nil
}

// Submit creates one pending approval per workflow id for the solution.
// Duplicates within the batch and workflows already pending for the
// solution are skipped. A solution in draft moves to review if at least
// one approval exists afterwards.
func (s *ApprovalService) Submit(ctx context.Context, solutionID string, workflowIDs []string, actor models.Actor) ([]*models.Approval, error) {
	if len(workflowIDs) == 0 {
		return nil, apperrors.NewValidationError("workflowIds", "at least one workflow id is required")
	}

	created := make([]*models.Approval, 0)

	err := s.txManager.WithRetry(ctx, func(txCtx context.Context) error {
		created = created[:0]

		solution, err := s.solutions.GetByIDForUpdate(txCtx, solutionID)
		if err != nil {
			return err
		}
		if solution == nil {
			return apperrors.NewNotFoundError("solution", solutionID)
		}

		seen := make(map[string]bool)
		for _, workflowID := range workflowIDs {
			if seen[workflowID] {
				continue
			}
			seen[workflowID] = true

			workflow, err := s.workflows.GetByID(txCtx, workflowID)
			if err != nil {
				return err
			}
			if workflow == nil {
				return apperrors.NewNotFoundError("workflow", workflowID)
			}

			pending, err := s.approvals.HasPendingForWorkflow(txCtx, solutionID, workflowID)
			if err != nil {
				return err
			}
			if pending {
				log.Printf("⏭️ Skipping workflow %s: solution %s already has a pending approval", workflowID, solutionID)
				continue
			}

			approval := buildApproval(solution, workflow, actor)
			if err := s.approvals.Insert(txCtx, approval); err != nil {
				return err
			}
			if err := s.appendHistory(txCtx, approval); err != nil {
				return err
			}
			created = append(created, approval)
		}

		if len(created) > 0 && solution.Stage == string(constants.StageDraft) {
			next, err := s.stateMachine.Transition(constants.StageDraft, domain.TransitionSubmit)
			if err != nil {
				return err
			}
			if err := s.solutions.UpdateStage(txCtx, solutionID, string(next), actor.ID); err != nil {
				return err
			}
		}
		return nil
	}, processMaxRetries)
	if err != nil {
		if apperrors.GetHTTPStatus(err) < 500 {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to submit approvals", err)
	}

	log.Printf("📨 Submitted %d approval(s) for solution %s (by %s)", len(created), solutionID, actor.ID)
	return created, nil
}

// Process records a terminal decision on a pending approval. Rejection
// requires notes, cancels the solution's sibling pending approvals and
// resets the solution to draft; approval moves the solution to approved
// once nothing remains pending.
func (s *ApprovalService) Process(ctx context.Context, approvalID, decision, notes string, actor models.Actor) (*models.Approval, error) {
	if decision != constants.ApprovalStatusApproved && decision != constants.ApprovalStatusRejected {
		return nil, apperrors.NewValidationError("status", "status must be approved or rejected")
	}
	if decision == constants.ApprovalStatusRejected && notes == "" {
		return nil, apperrors.NewValidationError("notes", "notes are required when rejecting")
	}

	var processed *models.Approval

	err := s.txManager.WithRetry(ctx, func(txCtx context.Context) error {
		approval, err := s.approvals.GetByID(txCtx, approvalID)
		if err != nil {
			return err
		}
		if approval == nil {
			return apperrors.NewNotFoundError("approval", approvalID)
		}

		// Lock the solution row first: every decision for one solution
		// serializes here
		solution, err := s.solutions.GetByIDForUpdate(txCtx, approval.SolutionID)
		if err != nil {
			return err
		}

		approval, err = s.approvals.GetByIDForUpdate(txCtx, approvalID)
		if err != nil {
			return err
		}
		if approval == nil {
			return apperrors.NewNotFoundError("approval", approvalID)
		}
		if approval.Status != constants.ApprovalStatusPending {
			return apperrors.NewValidationError("status", "approval is not pending")
		}

		now := time.Now().UTC()
		if err := s.approvals.UpdateStatus(txCtx, approvalID, decision, actor.ID, notes, now); err != nil {
			return err
		}
		approval.Status = decision
		approval.ProcessedAt = &now
		approval.ProcessedBy = actor.ID
		approval.Notes = notes
		if err := s.appendHistory(txCtx, approval); err != nil {
			return err
		}

		if decision == constants.ApprovalStatusRejected {
			if err := s.cancelSiblings(txCtx, approval, now); err != nil {
				return err
			}
		}

		if solution != nil {
			if err := s.applyStageAfterDecision(txCtx, solution, decision, actor); err != nil {
				return err
			}
		}

		processed = approval
		return nil
	}, processMaxRetries)
	if err != nil {
		if apperrors.GetHTTPStatus(err) < 500 {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to process approval", err)
	}

	log.Printf("✅ Approval %s processed: %s (by %s)", approvalID, decision, actor.ID)
	return processed, nil
}

// cancelSiblings rejects every other pending approval of the same solution.
// The cancellations are recorded against the system actor.
func (s *ApprovalService) cancelSiblings(ctx context.Context, rejected *models.Approval, now time.Time) error {
	siblings, err := s.approvals.ListPendingBySolution(ctx, rejected.SolutionID)
	if err != nil {
		return err
	}

	for _, sibling := range siblings {
		if sibling.ID == rejected.ID {
			continue
		}
		if err := s.approvals.UpdateStatus(ctx, sibling.ID, constants.ApprovalStatusRejected,
			constants.SystemActor, constants.CancelledByRejectionNotes, now); err != nil {
			return err
		}
		sibling.Status = constants.ApprovalStatusRejected
		sibling.ProcessedAt = &now
		sibling.ProcessedBy = constants.SystemActor
		sibling.Notes = constants.CancelledByRejectionNotes
		if err := s.appendHistory(ctx, sibling); err != nil {
			return err
		}
		log.Printf("🚫 Approval %s cancelled after parallel rejection on solution %s", sibling.ID, rejected.SolutionID)
	}
	return nil
}

// applyStageAfterDecision moves the solution stage after a decision: any
// rejection resets the solution to draft; an approval that leaves nothing
// pending completes review.
func (s *ApprovalService) applyStageAfterDecision(ctx context.Context, solution *models.Solution, decision string, actor models.Actor) error {
	switch decision {
	case constants.ApprovalStatusRejected:
		if solution.Stage == string(constants.StageDraft) {
			return nil
		}
		return s.solutions.UpdateStage(ctx, solution.ID, string(constants.StageDraft), actor.ID)

	case constants.ApprovalStatusApproved:
		counts, err := s.approvals.CountBySolution(ctx, solution.ID)
		if err != nil {
			return err
		}
		if counts.Pending > 0 || solution.Stage == string(constants.StageApproved) {
			return nil
		}
		return s.solutions.UpdateStage(ctx, solution.ID, string(constants.StageApproved), actor.ID)
	}
	return nil
}

func buildApproval(solution *models.Solution, workflow *models.ApprovalWorkflow, actor models.Actor) *models.Approval {
	currentStep := constants.DefaultFirstStepName
	stepApprovers := make([]string, 0)
	totalSteps := len(workflow.Steps)
	if totalSteps > 0 {
		currentStep = workflow.Steps[0].Name
		stepApprovers = append(stepApprovers, workflow.Steps[0].AssignedApprovers...)
	} else {
		totalSteps = 1
	}

	return &models.Approval{
		ID:                utils.GenerateID(),
		SolutionID:        solution.ID,
		SolutionName:      solution.Name,
		WorkflowID:        workflow.ID,
		WorkflowName:      workflow.Name,
		RequesterID:       actor.ID,
		RequesterName:     actor.Name,
		Status:            constants.ApprovalStatusPending,
		CurrentStep:       currentStep,
		StepOrder:         1,
		TotalSteps:        totalSteps,
		AssignedApprovers: stepApprovers,
		Priority:          solution.Priority,
		EstimatedValue:    solution.EstimatedValue,
		Currency:          solution.Currency,
		SubmittedAt:       time.Now().UTC(),
	}
}

// appendHistory writes one append-only history row reflecting the
// approval's state at this event
func (s *ApprovalService) appendHistory(ctx context.Context, approval *models.Approval) error {
	return s.approvals.InsertHistory(ctx, &models.ApprovalHistory{
		ID:           utils.GenerateID(),
		SolutionID:   approval.SolutionID,
		ApprovalID:   approval.ID,
		WorkflowID:   approval.WorkflowID,
		WorkflowName: approval.WorkflowName,
		Status:       approval.Status,
		SubmittedAt:  approval.SubmittedAt,
		SubmittedBy:  approval.RequesterID,
		ProcessedAt:  approval.ProcessedAt,
		ProcessedBy:  approval.ProcessedBy,
		Notes:        approval.Notes,
		CurrentStep:  approval.CurrentStep,
		StepOrder:    approval.StepOrder,
	})
}
