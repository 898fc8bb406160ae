// Package api contains the API contract definitions for the ICE dashboard.
// Version v1 represents the current stable API version.
package api

import (
	"icedash/pkg/contracts/domain"
)

// ObservationFilter holds the query parameters accepted by the observation
// listing and export endpoints. Date is DD/MM/YYYY; empty means the most
// recent slice. All is mutually exclusive with Date.
type ObservationFilter struct {
	Component string `json:"component" query:"component"`
	Category  string `json:"category" query:"category"`
	Code      string `json:"code" query:"code"`
	Date      string `json:"date" query:"date" validate:"omitempty,datetime=02/01/2006"`
	All       bool   `json:"all" query:"all"`
}

// UpsertObservationRequest writes a value for (code, date). For a code the
// store has never seen, the seed fields (name, component, category) are
// required so a new indicator series can be created.
type UpsertObservationRequest struct {
	Code       string  `json:"code" validate:"required"`
	Date       string  `json:"date" validate:"required,datetime=02/01/2006"`
	Value      float64 `json:"value" validate:"min=0"`
	Name       string  `json:"name,omitempty"`
	Component  string  `json:"component,omitempty"`
	Category   string  `json:"category,omitempty"`
	ActionLine string  `json:"action_line,omitempty"`
	Target     float64 `json:"target,omitempty" validate:"omitempty,gt=0"`
	Weight     float64 `json:"weight,omitempty" validate:"omitempty,min=0"`
}

// DeleteObservationRequest removes the observation at exactly (code, date).
type DeleteObservationRequest struct {
	Code string `json:"code" validate:"required"`
	Date string `json:"date" validate:"required,datetime=02/01/2006"`
}

// ObservationListResponse is the standard list envelope.
type ObservationListResponse struct {
	Success      bool                 `json:"success"`
	Count        int                  `json:"count"`
	Observations []domain.Observation `json:"observations"`
}

// MutationResponse reports the result of an upsert or delete.
type MutationResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"` // "updated", "created" or "deleted"
	Code    string `json:"code"`
	Date    string `json:"date"`
}

// ScoreResponse is the envelope for overall and grouped scores.
type ScoreResponse struct {
	Success bool               `json:"success"`
	Date    string             `json:"date"`
	Overall float64            `json:"overall,omitempty"`
	Groups  []domain.GroupScore `json:"groups,omitempty"`
}

// PivotResponse is the envelope for pivot matrices.
type PivotResponse struct {
	Success bool              `json:"success"`
	Date    string            `json:"date"`
	Pivot   domain.PivotTable `json:"pivot"`
}
