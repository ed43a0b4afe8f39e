package constants

// Table names
const (
	TableSolution              = "solutions"
	TableApprovalWorkflow      = "approval_workflows"
	TableWorkflowStep          = "workflow_steps"
	TableWorkflowStepApprover  = "workflow_step_approvers"
	TableWorkflowRule          = "workflow_rules"
	TableWorkflowConditionRule = "workflow_condition_rules"
	TableApproval              = "approvals"
	TableApprovalHistory       = "approval_history"
)

// Common field names
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldDescription    = "description"
	FieldCreatedAt      = "created_at"
	FieldCreatedBy      = "created_by"
	FieldUpdatedAt      = "updated_at"
	FieldLastModifiedBy = "last_modified_by"
)

// Solution fields
const (
	FieldSolutionCustomer       = "customer"
	FieldSolutionOpportunity    = "opportunity"
	FieldSolutionEstimatedValue = "estimated_value"
	FieldSolutionAmount         = "amount"
	FieldSolutionCurrency       = "currency"
	FieldSolutionStage          = "stage"
	FieldSolutionStatus         = "status"
	FieldSolutionOwner          = "owner"
	FieldSolutionProjectType    = "project_type"
	FieldSolutionPriority       = "priority"
)

// Workflow fields
const (
	FieldWorkflowIsActive      = "is_active"
	FieldWorkflowIsArchived    = "is_archived"
	FieldWorkflowIsRequired    = "is_required"
	FieldWorkflowNotifications = "notifications"
)

// Workflow step fields
const (
	FieldStepWorkflowID          = "workflow_id"
	FieldStepType                = "step_type"
	FieldStepOrder               = "step_order"
	FieldStepIsRequired          = "is_required"
	FieldStepRequireAllApprovers = "require_all_approvers"
)

// Condition rule fields
const (
	FieldConditionField    = "field_name"
	FieldConditionOperator = "operator"
	FieldConditionValue    = "field_value"
	FieldConditionOrder    = "rule_order"
)

// Approval fields
const (
	FieldApprovalSolutionID        = "solution_id"
	FieldApprovalWorkflowID        = "workflow_id"
	FieldApprovalStatus            = "status"
	FieldApprovalCurrentStep       = "current_step"
	FieldApprovalStepOrder         = "step_order"
	FieldApprovalTotalSteps        = "total_steps"
	FieldApprovalAssignedApprovers = "assigned_approvers"
	FieldApprovalSubmittedAt       = "submitted_at"
	FieldApprovalProcessedAt       = "processed_at"
	FieldApprovalProcessedBy       = "processed_by"
	FieldApprovalNotes             = "notes"
)
