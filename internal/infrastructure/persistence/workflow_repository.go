package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/pkg/constants"
)

type WorkflowRepository struct {
	db *sql.DB
}

func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Insert stores a workflow together with its steps, rules and condition
// rules. Callers wrap this in a transaction so the parent and children are
// stored atomically.
func (r *WorkflowRepository) Insert(ctx context.Context, w *models.ApprovalWorkflow) error {
	notifications, err := json.Marshal(w.Notifications)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, is_active, is_archived, is_required, notifications, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableApprovalWorkflow)

	run := runnerFor(ctx, r.db)
	if _, err := run.ExecContext(ctx, query,
		w.ID, w.Name, w.Description, w.IsActive, w.IsArchived, w.IsRequired,
		string(notifications), w.CreatedBy, w.CreatedAt, w.UpdatedAt,
	); err != nil {
		return err
	}

	if err := r.insertSteps(ctx, w.ID, w.Steps); err != nil {
		return err
	}
	if err := r.insertRules(ctx, w.ID, w.Rules); err != nil {
		return err
	}
	return r.insertConditionRules(ctx, w.ID, w.ConditionRules)
}

// Exists reports whether a workflow row exists
func (r *WorkflowRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)",
		constants.TableApprovalWorkflow, constants.FieldID)
	err := runnerFor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetByID fetches a workflow with its full child collections.
// Returns nil, nil when no row exists.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, is_active, is_archived, is_required, notifications, created_by, created_at, updated_at
		FROM %s WHERE %s = ? LIMIT 1`,
		constants.TableApprovalWorkflow, constants.FieldID)

	w, err := scanWorkflow(runnerFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// List retrieves workflows with children, newest first, optionally filtered
func (r *WorkflowRepository) List(ctx context.Context, filters models.WorkflowFilters) ([]*models.ApprovalWorkflow, error) {
	var conditions []string
	var args []interface{}

	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldWorkflowIsActive))
		args = append(args, *filters.IsActive)
	}
	if filters.IsArchived != nil {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldWorkflowIsArchived))
		args = append(args, *filters.IsArchived)
	}
	if filters.IsRequired != nil {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldWorkflowIsRequired))
		args = append(args, *filters.IsRequired)
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(%s LIKE ? OR %s LIKE ?)",
			constants.FieldName, constants.FieldDescription))
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, is_active, is_archived, is_required, notifications, created_by, created_at, updated_at
		FROM %s%s ORDER BY %s DESC`,
		constants.TableApprovalWorkflow, where, constants.FieldCreatedAt)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := make([]*models.ApprovalWorkflow, 0)
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, w := range workflows {
		if err := r.loadChildren(ctx, w); err != nil {
			return nil, err
		}
	}
	return workflows, nil
}

// ListActive returns the candidate set for condition matching:
// workflows that are active and not archived.
func (r *WorkflowRepository) ListActive(ctx context.Context) ([]*models.ApprovalWorkflow, error) {
	active := true
	archived := false
	return r.List(ctx, models.WorkflowFilters{IsActive: &active, IsArchived: &archived})
}

// UpdateParent applies a partial update to the workflow row itself;
// updated_at is always refreshed
func (r *WorkflowRepository) UpdateParent(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}

	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}

	setClauses = append(setClauses, fmt.Sprintf("%s = ?", constants.FieldUpdatedAt))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TableApprovalWorkflow, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// ReplaceSteps deletes the stored step collection (and approver
// assignments) and re-inserts the given one. Edits replace, not merge.
func (r *WorkflowRepository) ReplaceSteps(ctx context.Context, workflowID string, steps []models.ApprovalStep) error {
	run := runnerFor(ctx, r.db)

	deleteApprovers := fmt.Sprintf(
		"DELETE FROM %s WHERE step_id IN (SELECT id FROM %s WHERE %s = ?)",
		constants.TableWorkflowStepApprover, constants.TableWorkflowStep, constants.FieldStepWorkflowID)
	if _, err := run.ExecContext(ctx, deleteApprovers, workflowID); err != nil {
		return err
	}

	deleteSteps := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableWorkflowStep, constants.FieldStepWorkflowID)
	if _, err := run.ExecContext(ctx, deleteSteps, workflowID); err != nil {
		return err
	}

	return r.insertSteps(ctx, workflowID, steps)
}

// ReplaceRules deletes the stored rule collection and re-inserts the given one
func (r *WorkflowRepository) ReplaceRules(ctx context.Context, workflowID string, rules []models.ApprovalRule) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableWorkflowRule, constants.FieldStepWorkflowID)
	if _, err := runnerFor(ctx, r.db).ExecContext(ctx, query, workflowID); err != nil {
		return err
	}
	return r.insertRules(ctx, workflowID, rules)
}

// ReplaceConditionRules deletes the stored condition rules and re-inserts the given ones
func (r *WorkflowRepository) ReplaceConditionRules(ctx context.Context, workflowID string, rules []models.ConditionRule) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableWorkflowConditionRule, constants.FieldStepWorkflowID)
	if _, err := runnerFor(ctx, r.db).ExecContext(ctx, query, workflowID); err != nil {
		return err
	}
	return r.insertConditionRules(ctx, workflowID, rules)
}

// Delete removes a workflow and cascades its steps, approver assignments,
// rules and condition rules
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if err := r.ReplaceSteps(ctx, id, nil); err != nil {
		return err
	}
	if err := r.ReplaceRules(ctx, id, nil); err != nil {
		return err
	}
	if err := r.ReplaceConditionRules(ctx, id, nil); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableApprovalWorkflow, constants.FieldID)
	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, id)
	return err
}

// Child collection helpers

func (r *WorkflowRepository) insertSteps(ctx context.Context, workflowID string, steps []models.ApprovalStep) error {
	run := runnerFor(ctx, r.db)

	stepQuery := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, name, step_type, description, step_order, is_required, require_all_approvers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowStep)
	approverQuery := fmt.Sprintf("INSERT INTO %s (step_id, approver_id) VALUES (?, ?)",
		constants.TableWorkflowStepApprover)

	for _, step := range steps {
		if _, err := run.ExecContext(ctx, stepQuery,
			step.ID, workflowID, step.Name, step.Type, step.Description,
			step.Order, step.IsRequired, step.RequireAllApprovers,
		); err != nil {
			return err
		}
		for _, approver := range step.AssignedApprovers {
			if _, err := run.ExecContext(ctx, approverQuery, step.ID, approver); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *WorkflowRepository) insertRules(ctx context.Context, workflowID string, rules []models.ApprovalRule) error {
	run := runnerFor(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, name, rule_type, description, min_approvals, max_approvals, rule_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowRule)

	for _, rule := range rules {
		if _, err := run.ExecContext(ctx, query,
			rule.ID, workflowID, rule.Name, rule.Type, rule.Description,
			rule.MinApprovals, rule.MaxApprovals, rule.Order,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *WorkflowRepository) insertConditionRules(ctx context.Context, workflowID string, rules []models.ConditionRule) error {
	run := runnerFor(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, field_name, operator, field_value, rule_order)
		VALUES (?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowConditionRule)

	for _, rule := range rules {
		if _, err := run.ExecContext(ctx, query,
			rule.ID, workflowID, rule.Field, rule.Operator, rule.Value, rule.Order,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *WorkflowRepository) loadChildren(ctx context.Context, w *models.ApprovalWorkflow) error {
	steps, err := r.loadSteps(ctx, w.ID)
	if err != nil {
		return err
	}
	rules, err := r.loadRules(ctx, w.ID)
	if err != nil {
		return err
	}
	conditions, err := r.loadConditionRules(ctx, w.ID)
	if err != nil {
		return err
	}

	w.Steps = steps
	w.Rules = rules
	w.ConditionRules = conditions
	return nil
}

func (r *WorkflowRepository) loadSteps(ctx context.Context, workflowID string) ([]models.ApprovalStep, error) {
	run := runnerFor(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT id, name, step_type, description, step_order, is_required, require_all_approvers
		FROM %s WHERE %s = ? ORDER BY %s ASC`,
		constants.TableWorkflowStep, constants.FieldStepWorkflowID, constants.FieldStepOrder)

	rows, err := run.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]models.ApprovalStep, 0)
	for rows.Next() {
		var step models.ApprovalStep
		if err := rows.Scan(&step.ID, &step.Name, &step.Type, &step.Description,
			&step.Order, &step.IsRequired, &step.RequireAllApprovers); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	approverQuery := fmt.Sprintf("SELECT approver_id FROM %s WHERE step_id = ?",
		constants.TableWorkflowStepApprover)
	for i := range steps {
		approverRows, err := run.QueryContext(ctx, approverQuery, steps[i].ID)
		if err != nil {
			return nil, err
		}
		approvers := make([]string, 0)
		for approverRows.Next() {
			var approver string
			if err := approverRows.Scan(&approver); err != nil {
				approverRows.Close()
				return nil, err
			}
			approvers = append(approvers, approver)
		}
		if err := approverRows.Err(); err != nil {
			approverRows.Close()
			return nil, err
		}
		approverRows.Close()
		steps[i].AssignedApprovers = approvers
	}

	return steps, nil
}

func (r *WorkflowRepository) loadRules(ctx context.Context, workflowID string) ([]models.ApprovalRule, error) {
	query := fmt.Sprintf(`
		SELECT id, name, rule_type, description, min_approvals, max_approvals, rule_order
		FROM %s WHERE %s = ? ORDER BY rule_order ASC`,
		constants.TableWorkflowRule, constants.FieldStepWorkflowID)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]models.ApprovalRule, 0)
	for rows.Next() {
		var rule models.ApprovalRule
		var minApprovals, maxApprovals sql.NullInt64
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Type, &rule.Description,
			&minApprovals, &maxApprovals, &rule.Order); err != nil {
			return nil, err
		}
		if minApprovals.Valid {
			v := int(minApprovals.Int64)
			rule.MinApprovals = &v
		}
		if maxApprovals.Valid {
			v := int(maxApprovals.Int64)
			rule.MaxApprovals = &v
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *WorkflowRepository) loadConditionRules(ctx context.Context, workflowID string) ([]models.ConditionRule, error) {
	query := fmt.Sprintf(`
		SELECT id, field_name, operator, field_value, rule_order
		FROM %s WHERE %s = ? ORDER BY rule_order ASC`,
		constants.TableWorkflowConditionRule, constants.FieldStepWorkflowID)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]models.ConditionRule, 0)
	for rows.Next() {
		var rule models.ConditionRule
		if err := rows.Scan(&rule.ID, &rule.Field, &rule.Operator, &rule.Value, &rule.Order); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanWorkflow(sc rowScanner) (*models.ApprovalWorkflow, error) {
	var w models.ApprovalWorkflow
	var notifications sql.NullString

	if err := sc.Scan(&w.ID, &w.Name, &w.Description, &w.IsActive, &w.IsArchived,
		&w.IsRequired, &notifications, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}

	w.Notifications = make([]string, 0)
	if notifications.Valid && notifications.String != "" {
		if err := json.Unmarshal([]byte(notifications.String), &w.Notifications); err != nil {
			return nil, fmt.Errorf("failed to decode notifications for workflow %s: %w", w.ID, err)
		}
	}

	return &w, nil
}
