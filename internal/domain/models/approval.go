package models

import "time"

// Approval is one workflow instantiated against one solution, tracked to a
// terminal decision. It is created pending and transitions exactly once to
// approved or rejected; it is never reopened.
type Approval struct {
	ID                string     `json:"id"`
	SolutionID        string     `json:"solutionId"`
	SolutionName      string     `json:"solutionName"`
	WorkflowID        string     `json:"workflowId"`
	WorkflowName      string     `json:"workflowName"`
	RequesterID       string     `json:"requesterId"`
	RequesterName     string     `json:"requesterName"`
	Status            string     `json:"status"`
	CurrentStep       string     `json:"currentStep"`
	StepOrder         int        `json:"stepOrder"`
	TotalSteps        int        `json:"totalSteps"`
	AssignedApprovers []string   `json:"assignedApprovers"`
	Priority          string     `json:"priority"`
	EstimatedValue    float64    `json:"estimatedValue"`
	Currency          string     `json:"currency"`
	SubmittedAt       time.Time  `json:"submittedAt"`
	ProcessedAt       *time.Time `json:"processedAt,omitempty"`
	ProcessedBy       string     `json:"processedBy,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// ApprovalHistory is an append-only record of an approval event for a solution
type ApprovalHistory struct {
	ID           string     `json:"id"`
	SolutionID   string     `json:"solutionId"`
	ApprovalID   string     `json:"approvalId"`
	WorkflowID   string     `json:"workflowId"`
	WorkflowName string     `json:"workflowName"`
	Status       string     `json:"status"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	SubmittedBy  string     `json:"submittedBy"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	ProcessedBy  string     `json:"processedBy,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CurrentStep  string     `json:"currentStep,omitempty"`
	StepOrder    int        `json:"stepOrder,omitempty"`
}

// ApprovalFilters narrows approval list queries
type ApprovalFilters struct {
	SolutionID string
	Status     string
	Approver   string
}

// Actor identifies the user performing a write operation. It is threaded
// explicitly through every mutation; there is no ambient current user.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
