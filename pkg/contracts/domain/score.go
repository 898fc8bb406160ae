package domain

import "time"

// GroupScore is the weighted score of one component or category at a single
// date slice.
type GroupScore struct {
	Group string  `json:"group"`
	Score float64 `json:"score"`
}

// PivotTable is a dense matrix of mean values per (row, column) cell.
// Missing cells are zero-filled.
type PivotTable struct {
	Rows    []string    `json:"rows"`
	Columns []string    `json:"columns"`
	Cells   [][]float64 `json:"cells"`
}

// Summary is the dashboard headline for one date slice: the overall score
// plus the per-component breakdown.
type Summary struct {
	Date        time.Time    `json:"date"`
	Overall     float64      `json:"overall"`
	Indicators  int          `json:"indicators"`
	ByComponent []GroupScore `json:"by_component"`
}
