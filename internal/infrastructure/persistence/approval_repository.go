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

const approvalColumns = `id, solution_id, solution_name, workflow_id, workflow_name,
	requester_id, requester_name, status, current_step, step_order, total_steps,
	assigned_approvers, priority, estimated_value, currency,
	submitted_at, processed_at, processed_by, notes`

// ApprovalStatusCounts aggregates a solution's approvals by status
type ApprovalStatusCounts struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

type ApprovalRepository struct {
	db *sql.DB
}

func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Insert(ctx context.Context, a *models.Approval) error {
	approvers, err := json.Marshal(a.AssignedApprovers)
	if err != nil {
		return fmt.Errorf("failed to encode assigned approvers: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableApproval, approvalColumns)

	_, err = runnerFor(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.SolutionID, a.SolutionName, a.WorkflowID, a.WorkflowName,
		a.RequesterID, a.RequesterName, a.Status, a.CurrentStep, a.StepOrder, a.TotalSteps,
		string(approvers), a.Priority, a.EstimatedValue, a.Currency,
		a.SubmittedAt, a.ProcessedAt, a.ProcessedBy, a.Notes,
	)
	return err
}

// GetByID returns nil, nil when no approval exists
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.Approval, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		approvalColumns, constants.TableApproval, constants.FieldID)

	a, err := scanApproval(runnerFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByIDForUpdate locks the approval row for the duration of the enclosing
// transaction. Concurrent decisions on the same approval serialize here.
func (r *ApprovalRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Approval, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1 FOR UPDATE",
		approvalColumns, constants.TableApproval, constants.FieldID)

	a, err := scanApproval(runnerFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List retrieves approvals newest first, optionally filtered by solution,
// status or assigned approver
func (r *ApprovalRepository) List(ctx context.Context, filters models.ApprovalFilters) ([]*models.Approval, error) {
	var conditions []string
	var args []interface{}

	if filters.SolutionID != "" {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldApprovalSolutionID))
		args = append(args, filters.SolutionID)
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldApprovalStatus))
		args = append(args, filters.Status)
	}
	if filters.Approver != "" {
		// assigned_approvers is a JSON array of approver ids
		conditions = append(conditions, fmt.Sprintf("%s LIKE ?", constants.FieldApprovalAssignedApprovers))
		args = append(args, "%\""+filters.Approver+"\"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s DESC",
		approvalColumns, constants.TableApproval, where, constants.FieldApprovalSubmittedAt)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvals := make([]*models.Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// ListPendingBySolution returns a solution's pending approvals, locked for
// the enclosing transaction so sibling cancellation cannot race a decision
func (r *ApprovalRepository) ListPendingBySolution(ctx context.Context, solutionID string) ([]*models.Approval, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s = ? FOR UPDATE",
		approvalColumns, constants.TableApproval,
		constants.FieldApprovalSolutionID, constants.FieldApprovalStatus)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, solutionID, constants.ApprovalStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvals := make([]*models.Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// HasPendingForWorkflow reports whether the solution already has a pending
// approval for the given workflow
func (r *ApprovalRepository) HasPendingForWorkflow(ctx context.Context, solutionID, workflowID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ? AND %s = ?)",
		constants.TableApproval,
		constants.FieldApprovalSolutionID, constants.FieldApprovalWorkflowID, constants.FieldApprovalStatus)

	err := runnerFor(ctx, r.db).QueryRowContext(ctx, query,
		solutionID, workflowID, constants.ApprovalStatusPending).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// HasPendingByWorkflow reports whether any solution still has a pending
// approval running through the given workflow
func (r *ApprovalRepository) HasPendingByWorkflow(ctx context.Context, workflowID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ?)",
		constants.TableApproval,
		constants.FieldApprovalWorkflowID, constants.FieldApprovalStatus)

	err := runnerFor(ctx, r.db).QueryRowContext(ctx, query,
		workflowID, constants.ApprovalStatusPending).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus records a decision on an approval
func (r *ApprovalRepository) UpdateStatus(ctx context.Context, id, status, processedBy, notes string, processedAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableApproval,
		constants.FieldApprovalStatus, constants.FieldApprovalProcessedAt,
		constants.FieldApprovalProcessedBy, constants.FieldApprovalNotes,
		constants.FieldID)

	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, status, processedAt, processedBy, notes, id)
	return err
}

// CountBySolution aggregates a solution's approvals by status. Stage
// derivation reads these counts inside the deciding transaction.
func (r *ApprovalRepository) CountBySolution(ctx context.Context, solutionID string) (ApprovalStatusCounts, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN %s = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN %s = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN %s = ? THEN 1 ELSE 0 END), 0)
		FROM %s WHERE %s = ?`,
		constants.FieldApprovalStatus, constants.FieldApprovalStatus, constants.FieldApprovalStatus,
		constants.TableApproval, constants.FieldApprovalSolutionID)

	var counts ApprovalStatusCounts
	err := runnerFor(ctx, r.db).QueryRowContext(ctx, query,
		constants.ApprovalStatusPending, constants.ApprovalStatusApproved, constants.ApprovalStatusRejected,
		solutionID,
	).Scan(&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected)
	if err != nil {
		return ApprovalStatusCounts{}, err
	}
	return counts, nil
}

// ListSolutionIDsWithApprovals returns the distinct solution ids that have at
// least one approval. The stage reconciler walks this set.
func (r *ApprovalRepository) ListSolutionIDsWithApprovals(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s",
		constants.FieldApprovalSolutionID, constants.TableApproval)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteBySolution removes all approvals for a solution. Used when the
// solution itself is deleted.
func (r *ApprovalRepository) DeleteBySolution(ctx context.Context, solutionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableApproval, constants.FieldApprovalSolutionID)
	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, solutionID)
	return err
}

// DeleteHistoryBySolution removes a solution's approval history
func (r *ApprovalRepository) DeleteHistoryBySolution(ctx context.Context, solutionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableApprovalHistory, constants.FieldApprovalSolutionID)
	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, solutionID)
	return err
}

// InsertHistory appends an approval event to the solution's history
func (r *ApprovalRepository) InsertHistory(ctx context.Context, h *models.ApprovalHistory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, solution_id, approval_id, workflow_id, workflow_name,
			status, submitted_at, submitted_by, processed_at, processed_by, notes,
			current_step, step_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableApprovalHistory)

	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query,
		h.ID, h.SolutionID, h.ApprovalID, h.WorkflowID, h.WorkflowName,
		h.Status, h.SubmittedAt, h.SubmittedBy, h.ProcessedAt, h.ProcessedBy, h.Notes,
		h.CurrentStep, h.StepOrder,
	)
	return err
}

// ListHistoryBySolution returns a solution's approval history, newest first
func (r *ApprovalRepository) ListHistoryBySolution(ctx context.Context, solutionID string) ([]*models.ApprovalHistory, error) {
	query := fmt.Sprintf(`
		SELECT id, solution_id, approval_id, workflow_id, workflow_name,
			status, submitted_at, submitted_by, processed_at, processed_by, notes,
			current_step, step_order
		FROM %s WHERE %s = ? ORDER BY %s DESC`,
		constants.TableApprovalHistory, constants.FieldApprovalSolutionID, constants.FieldApprovalSubmittedAt)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, solutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]*models.ApprovalHistory, 0)
	for rows.Next() {
		var h models.ApprovalHistory
		var processedAt sql.NullTime
		var processedBy, notes, currentStep sql.NullString
		if err := rows.Scan(&h.ID, &h.SolutionID, &h.ApprovalID, &h.WorkflowID, &h.WorkflowName,
			&h.Status, &h.SubmittedAt, &h.SubmittedBy, &processedAt, &processedBy, &notes,
			&currentStep, &h.StepOrder); err != nil {
			return nil, err
		}
		if processedAt.Valid {
			t := processedAt.Time
			h.ProcessedAt = &t
		}
		h.ProcessedBy = processedBy.String
		h.Notes = notes.String
		h.CurrentStep = currentStep.String
		history = append(history, &h)
	}
	return history, rows.Err()
}

func scanApproval(sc rowScanner) (*models.Approval, error) {
	var a models.Approval
	var approvers sql.NullString
	var processedAt sql.NullTime
	var processedBy, notes sql.NullString

	if err := sc.Scan(&a.ID, &a.SolutionID, &a.SolutionName, &a.WorkflowID, &a.WorkflowName,
		&a.RequesterID, &a.RequesterName, &a.Status, &a.CurrentStep, &a.StepOrder, &a.TotalSteps,
		&approvers, &a.Priority, &a.EstimatedValue, &a.Currency,
		&a.SubmittedAt, &processedAt, &processedBy, &notes); err != nil {
		return nil, err
	}

	a.AssignedApprovers = make([]string, 0)
	if approvers.Valid && approvers.String != "" {
		if err := json.Unmarshal([]byte(approvers.String), &a.AssignedApprovers); err != nil {
			return nil, fmt.Errorf("failed to decode assigned approvers for approval %s: %w", a.ID, err)
		}
	}
	if processedAt.Valid {
		t := processedAt.Time
		a.ProcessedAt = &t
	}
	a.ProcessedBy = processedBy.String
	a.Notes = notes.String

	return &a, nil
}
