package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/internal/infrastructure/persistence"
	"github.com/solutionshark/backend/pkg/constants"
	apperrors "github.com/solutionshark/backend/pkg/errors"
	"github.com/solutionshark/backend/pkg/utils"
)

// WorkflowService handles business logic for approval workflow definitions
type WorkflowService struct {
	workflows *persistence.WorkflowRepository
	approvals *persistence.ApprovalRepository
	matcher   *ConditionMatcher
	txManager *persistence.TransactionManager
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	workflows *persistence.WorkflowRepository,
	approvals *persistence.ApprovalRepository,
	matcher *ConditionMatcher,
	txManager *persistence.TransactionManager,
) *WorkflowService {
	return &WorkflowService{
		workflows: workflows,
		approvals: approvals,
		matcher:   matcher,
		txManager: txManager,
	}
}

// Create stores a new workflow with its steps, rules and condition rules.
// New workflows default to active and not archived.
func (s *WorkflowService) Create(ctx context.Context, w *models.ApprovalWorkflow, actor models.Actor) (*models.ApprovalWorkflow, error) {
	if w.Name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if err := s.validateSteps(w.Steps); err != nil {
		return nil, err
	}
	if err := s.validateRules(w.Rules); err != nil {
		return nil, err
	}
	for _, rule := range w.ConditionRules {
		if err := s.matcher.ValidateRule(rule); err != nil {
			return nil, err
		}
	}

	if w.ID == "" {
		w.ID = utils.GenerateID()
	}
	w.IsActive = true
	w.IsArchived = false
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	w.CreatedBy = actor.ID
	if w.Notifications == nil {
		w.Notifications = make([]string, 0)
	}

	w.Steps = renumberSteps(w.Steps)
	assignStepIDs(w.Steps)
	assignRuleIDs(w.Rules)
	assignConditionIDs(w.ConditionRules)

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.workflows.Insert(txCtx, w)
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create workflow", err)
	}

	log.Printf("🧩 Workflow created: %s (%s) with %d steps", w.Name, w.ID, len(w.Steps))
	return w, nil
}

// GetByID fetches one workflow with children or a NotFoundError
func (s *WorkflowService) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch workflow", err)
	}
	if w == nil {
		return nil, apperrors.NewNotFoundError("workflow", id)
	}
	return w, nil
}

// List retrieves workflows matching the filters
func (s *WorkflowService) List(ctx context.Context, filters models.WorkflowFilters) ([]*models.ApprovalWorkflow, error) {
	workflows, err := s.workflows.List(ctx, filters)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list workflows", err)
	}
	return workflows, nil
}

// ListActive returns workflows eligible for condition matching
func (s *WorkflowService) ListActive(ctx context.Context) ([]*models.ApprovalWorkflow, error) {
	workflows, err := s.workflows.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list active workflows", err)
	}
	return workflows, nil
}

// Update applies a partial update. Child collections present in the update
// replace the stored collections wholesale.
func (s *WorkflowService) Update(ctx context.Context, id string, upd models.WorkflowUpdate, actor models.Actor) (*models.ApprovalWorkflow, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var steps []models.ApprovalStep
	if upd.Steps != nil {
		steps = renumberSteps(*upd.Steps)
		if err := s.validateSteps(steps); err != nil {
			return nil, err
		}
		assignStepIDs(steps)
	}
	if upd.Rules != nil {
		if err := s.validateRules(*upd.Rules); err != nil {
			return nil, err
		}
		assignRuleIDs(*upd.Rules)
	}
	if upd.ConditionRules != nil {
		for _, rule := range *upd.ConditionRules {
			if err := s.matcher.ValidateRule(rule); err != nil {
				return nil, err
			}
		}
		assignConditionIDs(*upd.ConditionRules)
	}

	parentUpdates := make(map[string]interface{})
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		parentUpdates[constants.FieldName] = *upd.Name
	}
	if upd.Description != nil {
		parentUpdates[constants.FieldDescription] = *upd.Description
	}
	if upd.IsActive != nil {
		parentUpdates[constants.FieldWorkflowIsActive] = *upd.IsActive
	}
	if upd.IsArchived != nil {
		parentUpdates[constants.FieldWorkflowIsArchived] = *upd.IsArchived
	}
	if upd.IsRequired != nil {
		parentUpdates[constants.FieldWorkflowIsRequired] = *upd.IsRequired
	}
	if upd.Notifications != nil {
		encoded, err := encodeNotifications(*upd.Notifications)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode notifications", err)
		}
		parentUpdates[constants.FieldWorkflowNotifications] = encoded
	}

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workflows.UpdateParent(txCtx, id, parentUpdates); err != nil {
			return err
		}
		if upd.Steps != nil {
			if err := s.workflows.ReplaceSteps(txCtx, id, steps); err != nil {
				return err
			}
		}
		if upd.Rules != nil {
			if err := s.workflows.ReplaceRules(txCtx, id, *upd.Rules); err != nil {
				return err
			}
		}
		if upd.ConditionRules != nil {
			if err := s.workflows.ReplaceConditionRules(txCtx, id, *upd.ConditionRules); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update workflow", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes a workflow and all its child collections
func (s *WorkflowService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	// A workflow with approvals still in flight cannot be removed
	pending, err := s.approvals.HasPendingByWorkflow(ctx, id)
	if err != nil {
		return apperrors.NewInternalError("failed to check pending approvals", err)
	}
	if pending {
		return apperrors.NewConflictError("workflow", id, "still has pending approvals")
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.workflows.Delete(txCtx, id)
	})
	if err != nil {
		return apperrors.NewInternalError("failed to delete workflow", err)
	}

	log.Printf("🗑️ Workflow deleted: %s (by %s)", id, actor.ID)
	return nil
}

// MoveStep swaps a step with its neighbor in the given direction and
// renumbers the collection contiguously from 1
func (s *WorkflowService) MoveStep(ctx context.Context, workflowID, stepID, direction string, actor models.Actor) (*models.ApprovalWorkflow, error) {
	if direction != "up" && direction != "down" {
		return nil, apperrors.NewValidationError("direction", "direction must be up or down")
	}

	w, err := s.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, step := range w.Steps {
		if step.ID == stepID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperrors.NewNotFoundError("workflow step", stepID)
	}

	target := idx - 1
	if direction == "down" {
		target = idx + 1
	}
	if target < 0 || target >= len(w.Steps) {
		// Already at the boundary; nothing to move
		return w, nil
	}

	w.Steps[idx], w.Steps[target] = w.Steps[target], w.Steps[idx]
	for i := range w.Steps {
		w.Steps[i].Order = i + 1
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.workflows.ReplaceSteps(txCtx, workflowID, w.Steps)
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to move workflow step", err)
	}

	return s.GetByID(ctx, workflowID)
}

func (s *WorkflowService) validateSteps(steps []models.ApprovalStep) error {
	for i, step := range steps {
		if step.Name == "" {
			return apperrors.NewValidationError("steps", fmt.Sprintf("step %d is missing a name", i+1))
		}
		if step.Type != "" && !constants.IsValidStepType(step.Type) {
			return apperrors.NewValidationError("steps", fmt.Sprintf("invalid step type: %s", step.Type))
		}
	}
	return nil
}

func (s *WorkflowService) validateRules(rules []models.ApprovalRule) error {
	for _, rule := range rules {
		if !constants.IsValidRuleType(rule.Type) {
			return apperrors.NewValidationError("rules", fmt.Sprintf("invalid rule type: %s", rule.Type))
		}
		if rule.MinApprovals != nil && *rule.MinApprovals < 1 {
			return apperrors.NewValidationError("rules", "minApprovals must be at least 1")
		}
		if rule.MinApprovals != nil && rule.MaxApprovals != nil && *rule.MaxApprovals < *rule.MinApprovals {
			return apperrors.NewValidationError("rules", "maxApprovals cannot be below minApprovals")
		}
	}
	return nil
}

// renumberSteps orders steps by their declared order (ties by position) and
// assigns contiguous orders starting at 1
func renumberSteps(steps []models.ApprovalStep) []models.ApprovalStep {
	out := make([]models.ApprovalStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i + 1
		if out[i].AssignedApprovers == nil {
			out[i].AssignedApprovers = make([]string, 0)
		}
	}
	return out
}

func encodeNotifications(notifications []string) (string, error) {
	if notifications == nil {
		notifications = make([]string, 0)
	}
	encoded, err := json.Marshal(notifications)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func assignStepIDs(steps []models.ApprovalStep) {
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = utils.GenerateID()
		}
	}
}

func assignRuleIDs(rules []models.ApprovalRule) {
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = utils.GenerateID()
		}
	}
}

func assignConditionIDs(rules []models.ConditionRule) {
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = utils.GenerateID()
		}
	}
}
