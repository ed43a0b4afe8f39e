package models

import "time"

// ApprovalWorkflow is a named, reusable approval template
type ApprovalWorkflow struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	IsActive       bool            `json:"isActive"`
	IsArchived     bool            `json:"isArchived"`
	IsRequired     bool            `json:"isRequired"`
	Steps          []ApprovalStep  `json:"steps"`
	Rules          []ApprovalRule  `json:"rules"`
	ConditionRules []ConditionRule `json:"conditionRules"`
	Notifications  []string        `json:"notifications"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ApprovalStep is one ordered stage within a workflow
type ApprovalStep struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Type                string   `json:"type"`
	Description         string   `json:"description"`
	Order               int      `json:"order"`
	IsRequired          bool     `json:"isRequired"`
	AssignedApprovers   []string `json:"assignedApprovers"`
	RequireAllApprovers bool     `json:"requireAllApprovers"`
}

// ApprovalRule records sequencing semantics for a workflow
type ApprovalRule struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	MinApprovals *int   `json:"minApprovals,omitempty"`
	MaxApprovals *int   `json:"maxApprovals,omitempty"`
	Order        int    `json:"order"`
}

// ConditionRule is a predicate over a solution attribute. A workflow
// applies to a solution only if all of its condition rules evaluate true.
type ConditionRule struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
	Order    int    `json:"order"`
}

// WorkflowFilters narrows workflow list queries
type WorkflowFilters struct {
	Search     string
	IsActive   *bool
	IsArchived *bool
	IsRequired *bool
}

// WorkflowUpdate carries a partial workflow update. Child collections,
// when present, replace the stored collection wholesale.
type WorkflowUpdate struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	IsActive       *bool            `json:"isActive"`
	IsArchived     *bool            `json:"isArchived"`
	IsRequired     *bool            `json:"isRequired"`
	Steps          *[]ApprovalStep  `json:"steps"`
	Rules          *[]ApprovalRule  `json:"rules"`
	ConditionRules *[]ConditionRule `json:"conditionRules"`
	Notifications  *[]string        `json:"notifications"`
}
