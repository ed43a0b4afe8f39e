package models

import "time"

// Solution is a proposal document subject to approval
type Solution struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Customer              string    `json:"customer"`
	Opportunity           string    `json:"opportunity"`
	EstimatedValue        float64   `json:"estimatedValue"`
	Amount                float64   `json:"amount"`
	Currency              string    `json:"currency"`
	Stage                 string    `json:"stage"`
	Status                string    `json:"status"`
	Owner                 string    `json:"owner"`
	ProjectType           string    `json:"projectType,omitempty"`
	Priority              string    `json:"priority,omitempty"`
	Description           string    `json:"description"`
	ResourceBreakdown     string    `json:"resourceBreakdown,omitempty"`
	ScopeOfWorksURL       string    `json:"scopeOfWorksUrl,omitempty"`
	AdditionalInformation string    `json:"additionalInformation,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	CreatedBy             string    `json:"createdBy"`
	UpdatedAt             time.Time `json:"updatedAt"`
	LastModifiedBy        string    `json:"lastModifiedBy"`
}

// SolutionFilters narrows solution list queries
type SolutionFilters struct {
	Stage  string
	Status string
	Search string
}

// SolutionUpdate carries a partial update; nil fields are left unchanged
type SolutionUpdate struct {
	Name                  *string  `json:"name"`
	Customer              *string  `json:"customer"`
	Opportunity           *string  `json:"opportunity"`
	EstimatedValue        *float64 `json:"estimatedValue"`
	Amount                *float64 `json:"amount"`
	Currency              *string  `json:"currency"`
	Stage                 *string  `json:"stage"`
	Status                *string  `json:"status"`
	Owner                 *string  `json:"owner"`
	ProjectType           *string  `json:"projectType"`
	Priority              *string  `json:"priority"`
	Description           *string  `json:"description"`
	ResourceBreakdown     *string  `json:"resourceBreakdown"`
	ScopeOfWorksURL       *string  `json:"scopeOfWorksUrl"`
	AdditionalInformation *string  `json:"additionalInformation"`
}
