package model

import "time"

// UserType identifies who is interacting with the engine.
type UserType string

const (
	UserContractor UserType = "contractor"
	UserClient     UserType = "client"
	UserArchitect  UserType = "architect"
)

// TaskCategory is one of the fixed renovation work types that drive labor
// rates, duration and quantity defaults.
type TaskCategory string

const (
	CategoryTiling     TaskCategory = "tiling"
	CategoryPainting   TaskCategory = "painting"
	CategoryPlumbing   TaskCategory = "plumbing"
	CategoryElectrical TaskCategory = "electrical"
	CategoryCarpentry  TaskCategory = "carpentry"
	CategoryGeneral    TaskCategory = "general"
)

// MaterialItem is a priced line inside a Task. TotalPrice is always
// Quantity * UnitPrice after regional adjustment upstream.
type MaterialItem struct {
	MaterialID      int64   `json:"material_id,omitempty"`
	Name            string  `json:"material_name"`
	Vendor          string  `json:"vendor,omitempty"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	UnitPrice       float64 `json:"unit_price"`
	TotalPrice      float64 `json:"total_price"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Task is one inferred work category within a proposal.
type Task struct {
	Label                string         `json:"label"`
	Category             TaskCategory   `json:"category"`
	Materials            []MaterialItem `json:"materials"`
	EstimatedDuration    string         `json:"estimated_duration"` // e.g. "2 days"
	MarginProtectedPrice float64        `json:"margin_protected_price"`
	ConfidenceScore      float64        `json:"confidence_score"`
	LaborCost            float64        `json:"labor_cost,omitempty"`
}

// Quote is a complete priced proposal. Immutable once created; feedback
// references it but never mutates it.
type Quote struct {
	ID               string    `json:"quote_id"`
	Transcript       string    `json:"transcript"`
	Tasks            []Task    `json:"tasks"`
	TotalEstimate    float64   `json:"total_estimate"`
	ConfidenceScore  float64   `json:"confidence_score"`
	VATRate          float64   `json:"vat_rate"`
	MarginPercentage float64   `json:"margin_percentage"`
	UserType         UserType  `json:"user_type"`
	Region           string    `json:"region,omitempty"`
	ProjectType      string    `json:"project_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// QuoteFilter narrows quote history listings.
type QuoteFilter struct {
	UserType UserType `json:"user_type,omitempty"`
	Region   string   `json:"region,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}
