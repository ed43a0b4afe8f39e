package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/solutionshark/backend/internal/domain"
	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/internal/infrastructure/persistence"
	"github.com/solutionshark/backend/pkg/constants"
	apperrors "github.com/solutionshark/backend/pkg/errors"
	"github.com/solutionshark/backend/pkg/utils"
)

// SolutionService handles business logic for solution documents
type SolutionService struct {
	solutions    *persistence.SolutionRepository
	approvals    *persistence.ApprovalRepository
	txManager    *persistence.TransactionManager
	stateMachine *domain.StageStateMachine
}

// NewSolutionService creates a new SolutionService
func NewSolutionService(
	solutions *persistence.SolutionRepository,
	approvals *persistence.ApprovalRepository,
	txManager *persistence.TransactionManager,
) *SolutionService {
	return &SolutionService{
		solutions:    solutions,
		approvals:    approvals,
		txManager:    txManager,
		stateMachine: domain.NewStageStateMachine(),
	}
}

// Create stores a new solution. New solutions start in draft unless an
// explicit valid stage is given.
func (s *SolutionService) Create(ctx context.Context, solution *models.Solution, actor models.Actor) (*models.Solution, error) {
	if solution.Name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if solution.Stage == "" {
		solution.Stage = string(constants.StageDraft)
	}
	if !constants.IsValidStage(solution.Stage) {
		return nil, apperrors.NewValidationError("stage", fmt.Sprintf("invalid stage: %s", solution.Stage))
	}
	if solution.Priority != "" && !isValidPriority(solution.Priority) {
		return nil, apperrors.NewValidationError("priority", fmt.Sprintf("invalid priority: %s", solution.Priority))
	}

	if solution.ID == "" {
		solution.ID = utils.GenerateID()
	}
	now := time.Now().UTC()
	solution.CreatedAt = now
	solution.UpdatedAt = now
	solution.CreatedBy = actor.ID
	solution.LastModifiedBy = actor.ID

	if err := s.solutions.Insert(ctx, solution); err != nil {
		return nil, apperrors.NewInternalError("failed to create solution", err)
	}

	log.Printf("📄 Solution created: %s (%s)", solution.Name, solution.ID)
	return solution, nil
}

// GetByID fetches one solution or a NotFoundError
func (s *SolutionService) GetByID(ctx context.Context, id string) (*models.Solution, error) {
	solution, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch solution", err)
	}
	if solution == nil {
		return nil, apperrors.NewNotFoundError("solution", id)
	}
	return solution, nil
}

// List retrieves solutions matching the filters, newest first
func (s *SolutionService) List(ctx context.Context, filters models.SolutionFilters) ([]*models.Solution, error) {
	if filters.Stage != "" && !constants.IsValidStage(filters.Stage) {
		return nil, apperrors.NewValidationError("stage", fmt.Sprintf("invalid stage: %s", filters.Stage))
	}
	solutions, err := s.solutions.List(ctx, filters)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list solutions", err)
	}
	return solutions, nil
}

// Update applies a partial update. Stage changes must follow the stage
// state machine unless overrideStage is set, which permits a direct set to
// any valid stage.
func (s *SolutionService) Update(ctx context.Context, id string, upd models.SolutionUpdate, actor models.Actor, overrideStage bool) (*models.Solution, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if upd.Stage != nil && *upd.Stage != current.Stage {
		if !constants.IsValidStage(*upd.Stage) {
			return nil, apperrors.NewValidationError("stage", fmt.Sprintf("invalid stage: %s", *upd.Stage))
		}
		if !overrideStage && !s.canReachStage(constants.SolutionStage(current.Stage), constants.SolutionStage(*upd.Stage)) {
			return nil, apperrors.NewValidationError("stage",
				fmt.Sprintf("cannot move solution from %s to %s", current.Stage, *upd.Stage))
		}
		updates[constants.FieldSolutionStage] = *upd.Stage
	}
	if upd.Priority != nil {
		if *upd.Priority != "" && !isValidPriority(*upd.Priority) {
			return nil, apperrors.NewValidationError("priority", fmt.Sprintf("invalid priority: %s", *upd.Priority))
		}
		updates[constants.FieldSolutionPriority] = *upd.Priority
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		updates[constants.FieldName] = *upd.Name
	}
	if upd.Customer != nil {
		updates[constants.FieldSolutionCustomer] = *upd.Customer
	}
	if upd.Opportunity != nil {
		updates[constants.FieldSolutionOpportunity] = *upd.Opportunity
	}
	if upd.EstimatedValue != nil {
		updates[constants.FieldSolutionEstimatedValue] = *upd.EstimatedValue
	}
	if upd.Amount != nil {
		updates[constants.FieldSolutionAmount] = *upd.Amount
	}
	if upd.Currency != nil {
		updates[constants.FieldSolutionCurrency] = *upd.Currency
	}
	if upd.Status != nil {
		updates[constants.FieldSolutionStatus] = *upd.Status
	}
	if upd.Owner != nil {
		updates[constants.FieldSolutionOwner] = *upd.Owner
	}
	if upd.ProjectType != nil {
		updates[constants.FieldSolutionProjectType] = *upd.ProjectType
	}
	if upd.Description != nil {
		updates[constants.FieldDescription] = *upd.Description
	}
	if upd.ResourceBreakdown != nil {
		updates["resource_breakdown"] = *upd.ResourceBreakdown
	}
	if upd.ScopeOfWorksURL != nil {
		updates["scope_of_works_url"] = *upd.ScopeOfWorksURL
	}
	if upd.AdditionalInformation != nil {
		updates["additional_information"] = *upd.AdditionalInformation
	}

	if len(updates) == 0 {
		return current, nil
	}
	updates[constants.FieldLastModifiedBy] = actor.ID

	if err := s.solutions.Update(ctx, id, updates); err != nil {
		return nil, apperrors.NewInternalError("failed to update solution", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes a solution together with its approvals
func (s *SolutionService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.approvals.DeleteHistoryBySolution(txCtx, id); err != nil {
			return err
		}
		if err := s.approvals.DeleteBySolution(txCtx, id); err != nil {
			return err
		}
		return s.solutions.Delete(txCtx, id)
	})
	if err != nil {
		return apperrors.NewInternalError("failed to delete solution", err)
	}

	log.Printf("🗑️ Solution deleted: %s (by %s)", id, actor.ID)
	return nil
}

// ApprovalHistory returns the append-only approval record for a solution
func (s *SolutionService) ApprovalHistory(ctx context.Context, id string) ([]*models.ApprovalHistory, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.approvals.ListHistoryBySolution(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch approval history", err)
	}
	return history, nil
}

// canReachStage reports whether any single transition leads from one stage
// to another
func (s *SolutionService) canReachStage(from, to constants.SolutionStage) bool {
	for _, action := range s.stateMachine.ValidTransitions(from) {
		if next, err := s.stateMachine.Transition(from, action); err == nil && next == to {
			return true
		}
	}
	return false
}

func isValidPriority(p string) bool {
	switch p {
	case constants.PriorityLow, constants.PriorityMedium, constants.PriorityHigh:
		return true
	}
	return false
}
