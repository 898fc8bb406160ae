package domain

import (
	"time"
)

// Observation represents a single measurement of an indicator: the fact
// "indicator Code had Value on Date", plus the denormalized descriptive
// fields carried on every row of the source sheet.
type Observation struct {
	ActionLine string    `json:"action_line,omitempty" csv:"LINEA DE ACCIÓN"`
	Component  string    `json:"component" csv:"COMPONENTE PROPUESTO" validate:"required"`
	Category   string    `json:"category" csv:"CATEGORÍA" validate:"required"`
	Code       string    `json:"code" csv:"COD" validate:"required"`
	Name       string    `json:"name" csv:"Nombre de indicador" validate:"required"`
	Value      float64   `json:"value" csv:"Valor" validate:"min=0"`
	Date       time.Time `json:"date" csv:"Fecha" validate:"required"`
	Target     float64   `json:"target" csv:"Meta" validate:"gt=0"`
	Weight     float64   `json:"weight" csv:"Peso" validate:"min=0"`
}

// SameKey reports whether the observation matches the (code, date) natural
// key, comparing dates at day granularity only.
func (o Observation) SameKey(code string, date time.Time) bool {
	return o.Code == code && SameDay(o.Date, date)
}

// SameDay compares two timestamps as calendar dates, ignoring time-of-day
// and timezone offsets.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Table is the canonical in-memory collection of observations. Row order is
// significant: ties on date are broken by source order, last-seen wins.
type Table []Observation

// Codes returns the distinct indicator codes in first-seen order.
func (t Table) Codes() []string {
	seen := make(map[string]bool, len(t))
	var codes []string
	for _, o := range t {
		if !seen[o.Code] {
			seen[o.Code] = true
			codes = append(codes, o.Code)
		}
	}
	return codes
}

// MaxDate returns the most recent observation date in the table, or the
// zero time when the table is empty.
func (t Table) MaxDate() time.Time {
	var max time.Time
	for _, o := range t {
		if o.Date.After(max) {
			max = o.Date
		}
	}
	return max
}

// Components returns the distinct components in first-seen order.
func (t Table) Components() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range t {
		if !seen[o.Component] {
			seen[o.Component] = true
			out = append(out, o.Component)
		}
	}
	return out
}

// Categories returns the distinct categories, optionally scoped to a
// component. Pass an empty component to list all categories.
func (t Table) Categories(component string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range t {
		if component != "" && o.Component != component {
			continue
		}
		if !seen[o.Category] {
			seen[o.Category] = true
			out = append(out, o.Category)
		}
	}
	return out
}

// LoadReport describes the outcome of normalizing a raw source into a Table.
// DroppedRows counts rows discarded for unparseable dates or values; they
// are reported, never silently zeroed.
type LoadReport struct {
	TotalRows   int       `json:"total_rows"`
	LoadedRows  int       `json:"loaded_rows"`
	DroppedRows int       `json:"dropped_rows"`
	LoadedAt    time.Time `json:"loaded_at"`
}
