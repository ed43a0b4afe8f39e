package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/pkg/constants"
)

const solutionColumns = "id, name, customer, opportunity, estimated_value, amount, currency, stage, status, owner, project_type, priority, description, resource_breakdown, scope_of_works_url, additional_information, created_at, created_by, updated_at, last_modified_by"

type SolutionRepository struct {
	db *sql.DB
}

func NewSolutionRepository(db *sql.DB) *SolutionRepository {
	return &SolutionRepository{db: db}
}

// Insert stores a new solution record
func (r *SolutionRepository) Insert(ctx context.Context, s *models.Solution) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableSolution, solutionColumns)

	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.Name, s.Customer, s.Opportunity, s.EstimatedValue, s.Amount,
		s.Currency, s.Stage, s.Status, s.Owner, s.ProjectType, s.Priority,
		s.Description, s.ResourceBreakdown, s.ScopeOfWorksURL, s.AdditionalInformation,
		s.CreatedAt, s.CreatedBy, s.UpdatedAt, s.LastModifiedBy,
	)
	return err
}

// GetByID fetches a solution by id. Returns nil, nil when no row exists.
func (r *SolutionRepository) GetByID(ctx context.Context, id string) (*models.Solution, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		solutionColumns, constants.TableSolution, constants.FieldID)
	return r.scanOne(runnerFor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate fetches a solution and locks its row for the duration of
// the enclosing transaction. Approval processing uses this as the
// per-solution serialization point; callers must be inside RunInTransaction.
func (r *SolutionRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Solution, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1 FOR UPDATE",
		solutionColumns, constants.TableSolution, constants.FieldID)
	return r.scanOne(runnerFor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// List retrieves solutions, newest first, optionally filtered
func (r *SolutionRepository) List(ctx context.Context, filters models.SolutionFilters) ([]*models.Solution, error) {
	var conditions []string
	var args []interface{}

	if filters.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldSolutionStage))
		args = append(args, filters.Stage)
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("%s = ?", constants.FieldSolutionStatus))
		args = append(args, filters.Status)
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(%s LIKE ? OR %s LIKE ?)",
			constants.FieldName, constants.FieldSolutionCustomer))
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s DESC",
		solutionColumns, constants.TableSolution, where, constants.FieldCreatedAt)

	rows, err := runnerFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	solutions := make([]*models.Solution, 0)
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, s)
	}
	return solutions, rows.Err()
}

// Update applies a partial update; the updated_at column is always refreshed
func (r *SolutionRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
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
		constants.TableSolution, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// UpdateStage sets the derived stage and records the acting user
func (r *SolutionRepository) UpdateStage(ctx context.Context, id, stage, actor string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableSolution,
		constants.FieldSolutionStage, constants.FieldLastModifiedBy, constants.FieldUpdatedAt,
		constants.FieldID)
	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, stage, actor, time.Now().UTC(), id)
	return err
}

// Delete removes a solution row. Approvals referencing it must be deleted
// first; the service layer owns that ordering.
func (r *SolutionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSolution, constants.FieldID)
	_, err := runnerFor(ctx, r.db).ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SolutionRepository) scanOne(row *sql.Row) (*models.Solution, error) {
	s, err := scanSolution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SolutionRepository) scanRow(rows *sql.Rows) (*models.Solution, error) {
	return scanSolution(rows)
}

func scanSolution(sc rowScanner) (*models.Solution, error) {
	var s models.Solution
	var projectType, priority, resourceBreakdown, scopeURL, additional sql.NullString

	if err := sc.Scan(
		&s.ID, &s.Name, &s.Customer, &s.Opportunity, &s.EstimatedValue, &s.Amount,
		&s.Currency, &s.Stage, &s.Status, &s.Owner, &projectType, &priority,
		&s.Description, &resourceBreakdown, &scopeURL, &additional,
		&s.CreatedAt, &s.CreatedBy, &s.UpdatedAt, &s.LastModifiedBy,
	); err != nil {
		return nil, err
	}

	s.ProjectType = projectType.String
	s.Priority = priority.String
	s.ResourceBreakdown = resourceBreakdown.String
	s.ScopeOfWorksURL = scopeURL.String
	s.AdditionalInformation = additional.String

	return &s, nil
}
