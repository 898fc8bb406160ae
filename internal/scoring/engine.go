// Package scoring derives aggregate compliance scores from a snapshot of
// indicator observations. Scores are always computed against a single date
// slice, never as a running time-weighted aggregate: the dashboard shows
// snapshots, not historical analytics.
package scoring

import (
	"fmt"

	"icedash/pkg/contracts/domain"
)

// Dimension selects the grouping axis for aggregation and pivoting.
type Dimension string

const (
	DimComponent Dimension = "component"
	DimCategory  Dimension = "category"
)

// Field selects the value projected into a pivot cell.
type Field string

const (
	FieldValue         Field = "value"
	FieldCompliance    Field = "compliance"
	FieldWeightedScore Field = "weighted_score"
)

// Compliance expresses an observation value as a percentage, capped at 100.
// Values may exceed 100% of target and are clipped; source values are
// assumed non-negative, so there is no lower clip.
func Compliance(value float64) float64 {
	c := value * 100
	if c > 100 {
		return 100
	}
	return c
}

// WeightedScore scales compliance by the indicator's contribution weight.
func WeightedScore(value, weight float64) float64 {
	return Compliance(value) * weight / 100
}

// Aggregate groups a date slice by the requested dimension and sums the
// weighted score per group, preserving first-seen group order. An empty
// input yields an empty result, not an error.
func Aggregate(slice domain.Table, dim Dimension) ([]domain.GroupScore, error) {
	key, err := dimensionKey(dim)
	if err != nil {
		return nil, err
	}

	totals := map[string]float64{}
	var order []string
	for _, o := range slice {
		g := key(o)
		if _, seen := totals[g]; !seen {
			order = append(order, g)
		}
		totals[g] += WeightedScore(o.Value, o.Weight)
	}

	out := make([]domain.GroupScore, 0, len(order))
	for _, g := range order {
		out = append(out, domain.GroupScore{Group: g, Score: totals[g]})
	}
	return out, nil
}

// OverallScore sums the weighted score across the full slice; zero on
// empty input.
func OverallScore(slice domain.Table) float64 {
	var total float64
	for _, o := range slice {
		total += WeightedScore(o.Value, o.Weight)
	}
	return total
}

// Pivot computes the mean of the projected field per (row, column) cell,
// zero-filling cells with no observations.
func Pivot(slice domain.Table, rows, cols Dimension, field Field) (domain.PivotTable, error) {
	rowKey, err := dimensionKey(rows)
	if err != nil {
		return domain.PivotTable{}, err
	}
	colKey, err := dimensionKey(cols)
	if err != nil {
		return domain.PivotTable{}, err
	}
	project, err := fieldProjection(field)
	if err != nil {
		return domain.PivotTable{}, err
	}

	type cell struct {
		sum float64
		n   int
	}
	cells := map[[2]string]*cell{}
	var rowOrder, colOrder []string
	rowSeen, colSeen := map[string]bool{}, map[string]bool{}

	for _, o := range slice {
		r, c := rowKey(o), colKey(o)
		if !rowSeen[r] {
			rowSeen[r] = true
			rowOrder = append(rowOrder, r)
		}
		if !colSeen[c] {
			colSeen[c] = true
			colOrder = append(colOrder, c)
		}
		k := [2]string{r, c}
		if cells[k] == nil {
			cells[k] = &cell{}
		}
		cells[k].sum += project(o)
		cells[k].n++
	}

	out := domain.PivotTable{Rows: rowOrder, Columns: colOrder}
	out.Cells = make([][]float64, len(rowOrder))
	for i, r := range rowOrder {
		out.Cells[i] = make([]float64, len(colOrder))
		for j, c := range colOrder {
			if cl := cells[[2]string{r, c}]; cl != nil {
				out.Cells[i][j] = cl.sum / float64(cl.n)
			}
		}
	}
	return out, nil
}

// Summarize produces the dashboard headline for a slice: overall score plus
// the per-component breakdown.
func Summarize(slice domain.Table) (domain.Summary, error) {
	byComponent, err := Aggregate(slice, DimComponent)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{
		Date:        slice.MaxDate(),
		Overall:     OverallScore(slice),
		Indicators:  len(slice.Codes()),
		ByComponent: byComponent,
	}, nil
}

func dimensionKey(dim Dimension) (func(domain.Observation) string, error) {
	switch dim {
	case DimComponent:
		return func(o domain.Observation) string { return o.Component }, nil
	case DimCategory:
		return func(o domain.Observation) string { return o.Category }, nil
	default:
		return nil, fmt.Errorf("unknown dimension: %q", dim)
	}
}

func fieldProjection(field Field) (func(domain.Observation) float64, error) {
	switch field {
	case FieldValue:
		return func(o domain.Observation) float64 { return o.Value }, nil
	case FieldCompliance:
		return func(o domain.Observation) float64 { return Compliance(o.Value) }, nil
	case FieldWeightedScore:
		return func(o domain.Observation) float64 { return WeightedScore(o.Value, o.Weight) }, nil
	default:
		return nil, fmt.Errorf("unknown pivot field: %q", field)
	}
}
