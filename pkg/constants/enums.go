package constants

// SolutionStage represents the lifecycle state of a solution
type SolutionStage string

const (
	StageDraft    SolutionStage = "draft"
	StageReview   SolutionStage = "review"
	StageApproved SolutionStage = "approved"
	StageRejected SolutionStage = "rejected"
)

// IsValidStage reports whether s is a known solution stage
func IsValidStage(s string) bool {
	switch SolutionStage(s) {
	case StageDraft, StageReview, StageApproved, StageRejected:
		return true
	}
	return false
}

// Approval status values
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// Approval priority values
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// StepType categorizes a workflow step for presentation purposes.
// The types are not behaviorally distinct.
type StepType string

const (
	StepTypeReview          StepType = "review"
	StepTypeApprove         StepType = "approve"
	StepTypeSignOff         StepType = "sign_off"
	StepTypeTechnicalReview StepType = "technical_review"
	StepTypeBusinessReview  StepType = "business_review"
	StepTypeLegalReview     StepType = "legal_review"
	StepTypeFinanceReview   StepType = "finance_review"
)

// IsValidStepType reports whether t is a known step type
func IsValidStepType(t string) bool {
	switch StepType(t) {
	case StepTypeReview, StepTypeApprove, StepTypeSignOff, StepTypeTechnicalReview,
		StepTypeBusinessReview, StepTypeLegalReview, StepTypeFinanceReview:
		return true
	}
	return false
}

// RuleType describes the sequencing semantics recorded on a workflow rule
type RuleType string

const (
	RuleTypeSequential  RuleType = "sequential"
	RuleTypeParallel    RuleType = "parallel"
	RuleTypeAnyOne      RuleType = "any_one"
	RuleTypeAllRequired RuleType = "all_required"
	RuleTypeMajority    RuleType = "majority"
)

// IsValidRuleType reports whether t is a known rule type
func IsValidRuleType(t string) bool {
	switch RuleType(t) {
	case RuleTypeSequential, RuleTypeParallel, RuleTypeAnyOne, RuleTypeAllRequired, RuleTypeMajority:
		return true
	}
	return false
}

// Condition rule fields (from the solution attribute set)
const (
	ConditionFieldProjectType = "projectType"
	ConditionFieldBudget      = "budget"
	ConditionFieldPriority    = "priority"
	ConditionFieldDepartment  = "department"
	ConditionFieldCategory    = "category"
	ConditionFieldStatus      = "status"
)

// Condition rule operators
const (
	OperatorEquals             = "equals"
	OperatorNotEquals          = "not_equals"
	OperatorContains           = "contains"
	OperatorGreaterThan        = "greater_than"
	OperatorLessThan           = "less_than"
	OperatorGreaterThanOrEqual = "greater_than_or_equal"
	OperatorLessThanOrEqual    = "less_than_or_equal"
)

// Notification channels (stored configuration only, never dispatched)
const (
	NotificationEmail = "email"
	NotificationSlack = "slack"
	NotificationSMS   = "sms"
	NotificationInApp = "in_app"
)

// SystemActor is recorded as the processor when the system cancels
// sibling approvals after a rejection
const SystemActor = "system"

// CancelledByRejectionNotes is the system-generated note attached to
// sibling approvals cancelled by a rejection in a parallel workflow
const CancelledByRejectionNotes = "Cancelled due to rejection in parallel workflow"

// DefaultFirstStepName is used when a workflow has no steps defined
const DefaultFirstStepName = "Initial Review"
