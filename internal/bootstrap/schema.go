package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/solutionshark/backend/internal/infrastructure/database"
	"github.com/solutionshark/backend/pkg/constants"
)

// schemaDDL lists the core tables in dependency order. Child tables
// reference their parents by id but no foreign keys are declared; the
// repositories manage cascade deletes themselves so the schema stays
// compatible with TiDB deployments that restrict FK support.
var schemaDDL = []struct {
	table string
	ddl   string
}{
	{constants.TableSolution, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableSolution + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			customer VARCHAR(255) NOT NULL DEFAULT '',
			opportunity VARCHAR(255) NOT NULL DEFAULT '',
			estimated_value DECIMAL(18,6) NOT NULL DEFAULT 0,
			amount DECIMAL(18,6) NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL DEFAULT '',
			stage VARCHAR(32) NOT NULL DEFAULT 'draft',
			status VARCHAR(32) NOT NULL DEFAULT '',
			owner VARCHAR(255) NOT NULL DEFAULT '',
			project_type VARCHAR(64) NOT NULL DEFAULT '',
			priority VARCHAR(16) NOT NULL DEFAULT '',
			description TEXT,
			resource_breakdown TEXT,
			scope_of_works_url VARCHAR(512) NOT NULL DEFAULT '',
			additional_information TEXT,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(255) NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			last_modified_by VARCHAR(255) NOT NULL DEFAULT '',
			INDEX idx_solutions_stage (stage)
		)`},
	{constants.TableApprovalWorkflow, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableApprovalWorkflow + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_archived BOOLEAN NOT NULL DEFAULT FALSE,
			is_required BOOLEAN NOT NULL DEFAULT FALSE,
			notifications TEXT,
			created_by VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
	{constants.TableWorkflowStep, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableWorkflowStep + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			step_type VARCHAR(32) NOT NULL DEFAULT '',
			description TEXT,
			step_order INT NOT NULL DEFAULT 1,
			is_required BOOLEAN NOT NULL DEFAULT FALSE,
			require_all_approvers BOOLEAN NOT NULL DEFAULT FALSE,
			INDEX idx_workflow_steps_workflow (workflow_id)
		)`},
	{constants.TableWorkflowStepApprover, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableWorkflowStepApprover + ` (
			step_id VARCHAR(64) NOT NULL,
			approver_id VARCHAR(255) NOT NULL,
			PRIMARY KEY (step_id, approver_id)
		)`},
	{constants.TableWorkflowRule, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableWorkflowRule + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			rule_type VARCHAR(32) NOT NULL,
			description TEXT,
			min_approvals INT NULL,
			max_approvals INT NULL,
			rule_order INT NOT NULL DEFAULT 1,
			INDEX idx_workflow_rules_workflow (workflow_id)
		)`},
	{constants.TableWorkflowConditionRule, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableWorkflowConditionRule + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			field_name VARCHAR(64) NOT NULL,
			operator VARCHAR(32) NOT NULL,
			field_value VARCHAR(255) NOT NULL DEFAULT '',
			rule_order INT NOT NULL DEFAULT 1,
			INDEX idx_workflow_conditions_workflow (workflow_id)
		)`},
	{constants.TableApproval, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableApproval + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			solution_id VARCHAR(64) NOT NULL,
			solution_name VARCHAR(255) NOT NULL DEFAULT '',
			workflow_id VARCHAR(64) NOT NULL,
			workflow_name VARCHAR(255) NOT NULL DEFAULT '',
			requester_id VARCHAR(255) NOT NULL DEFAULT '',
			requester_name VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			current_step VARCHAR(255) NOT NULL DEFAULT '',
			step_order INT NOT NULL DEFAULT 1,
			total_steps INT NOT NULL DEFAULT 1,
			assigned_approvers TEXT,
			priority VARCHAR(16) NOT NULL DEFAULT '',
			estimated_value DECIMAL(18,6) NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL DEFAULT '',
			submitted_at DATETIME NOT NULL,
			processed_at DATETIME NULL,
			processed_by VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT,
			INDEX idx_approvals_solution (solution_id),
			INDEX idx_approvals_status (status)
		)`},
	{constants.TableApprovalHistory, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableApprovalHistory + ` (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			solution_id VARCHAR(64) NOT NULL,
			approval_id VARCHAR(64) NOT NULL,
			workflow_id VARCHAR(64) NOT NULL,
			workflow_name VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			submitted_at DATETIME NOT NULL,
			submitted_by VARCHAR(255) NOT NULL DEFAULT '',
			processed_at DATETIME NULL,
			processed_by VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT,
			current_step VARCHAR(255) NOT NULL DEFAULT '',
			step_order INT NOT NULL DEFAULT 1,
			INDEX idx_approval_history_solution (solution_id)
		)`},
}

// InitializeSchema creates the core tables if they do not exist
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing schema...")

	ctx := context.Background()
	for _, entry := range schemaDDL {
		if _, err := db.DB().ExecContext(ctx, entry.ddl); err != nil {
			log.Printf("⚠️  Failed to create table %s: %v", entry.table, err)
			return fmt.Errorf("create table %s: %w", entry.table, err)
		}
	}

	log.Printf("✅ Schema ready (%d tables)", len(schemaDDL))
	return nil
}
