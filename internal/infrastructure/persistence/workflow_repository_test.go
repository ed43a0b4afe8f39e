package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/solutionshark/backend/pkg/constants"
)

var workflowColumnList = []string{
	"id", "name", "description", "is_active", "is_archived", "is_required",
	"notifications", "created_by", "created_at", "updated_at",
}

func TestWorkflowExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)",
		constants.TableApprovalWorkflow, constants.FieldID)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "wf-1")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestWorkflowGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectQuery("SELECT").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(workflowColumnList))

	w, err := repo.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestWorkflowGetByIDLoadsChildren(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT").WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows(workflowColumnList).AddRow(
			"wf-1", "Finance Review", "Reviews big-ticket solutions", true, false, false,
			`["email"]`, "alice", now, now,
		))

	// steps
	mock.ExpectQuery("SELECT").WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "step_type", "description", "step_order", "is_required", "require_all_approvers",
		}).AddRow("step-1", "Initial Review", string(constants.StepTypeApprove), "", 1, true, false))

	// step approvers
	mock.ExpectQuery("SELECT approver_id").WithArgs("step-1").
		WillReturnRows(sqlmock.NewRows([]string{"approver_id"}).AddRow("bob"))

	// rules
	mock.ExpectQuery("SELECT").WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "rule_type", "description", "min_approvals", "max_approvals", "rule_order",
		}))

	// condition rules
	mock.ExpectQuery("SELECT").WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "field_name", "operator", "field_value", "rule_order",
		}).AddRow("cond-1", constants.ConditionFieldBudget, constants.OperatorGreaterThan, "100000", 1))

	w, err := repo.GetByID(context.Background(), "wf-1")
	assert.NoError(t, err)
	assert.NotNil(t, w)
	assert.Equal(t, "Finance Review", w.Name)
	assert.Equal(t, []string{"email"}, w.Notifications)
	assert.Len(t, w.Steps, 1)
	assert.Equal(t, []string{"bob"}, w.Steps[0].AssignedApprovers)
	assert.Len(t, w.ConditionRules, 1)
	assert.Equal(t, constants.ConditionFieldBudget, w.ConditionRules[0].Field)
}

func TestWorkflowDeleteCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(
		"DELETE FROM %s WHERE step_id IN", constants.TableWorkflowStepApprover))).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(
		"DELETE FROM %s WHERE %s = ?", constants.TableWorkflowStep, constants.FieldStepWorkflowID))).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(
		"DELETE FROM %s WHERE %s = ?", constants.TableWorkflowRule, constants.FieldStepWorkflowID))).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(
		"DELETE FROM %s WHERE %s = ?", constants.TableWorkflowConditionRule, constants.FieldStepWorkflowID))).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(
		"DELETE FROM %s WHERE %s = ?", constants.TableApprovalWorkflow, constants.FieldID))).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(context.Background(), "wf-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
