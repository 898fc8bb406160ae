package store

import (
	"time"

	"icedash/pkg/contracts/domain"
)

// Query returns the rows matching the given calendar date, or — when asOf
// is nil — the rows of the most recent date present in the table. A table
// with no matching rows yields an empty result, not an error.
func Query(table domain.Table, asOf *time.Time) domain.Table {
	if len(table) == 0 {
		return domain.Table{}
	}

	target := table.MaxDate()
	if asOf != nil {
		target = *asOf
	}

	out := domain.Table{}
	for _, o := range table {
		if domain.SameDay(o.Date, target) {
			out = append(out, o)
		}
	}
	return out
}

// LatestPerCode returns exactly one row per distinct code: the one with the
// maximum date among that code's observations. Ties on date are broken by
// source row order, last-seen wins.
func LatestPerCode(table domain.Table) domain.Table {
	latest := make(map[string]domain.Observation, len(table))
	var order []string

	for _, o := range table {
		best, seen := latest[o.Code]
		if !seen {
			order = append(order, o.Code)
			latest[o.Code] = o
			continue
		}
		if !o.Date.Before(best.Date) {
			latest[o.Code] = o
		}
	}

	out := make(domain.Table, 0, len(order))
	for _, code := range order {
		out = append(out, latest[code])
	}
	return out
}

// Upsert overwrites the value of an exact (code, date) match, or appends a
// new row. For an appended row the non-varying fields come from the first
// existing row of the same code; for a code the table has never seen they
// must come from seed, otherwise the operation fails with ErrNoBaseRecord.
// The returned created flag is true when a row was appended.
func Upsert(table domain.Table, code string, date time.Time, value float64, seed *domain.Observation) (domain.Table, bool, error) {
	out := make(domain.Table, len(table))
	copy(out, table)

	for i, o := range out {
		if o.SameKey(code, date) {
			out[i].Value = value
			return out, false, nil
		}
	}

	var base domain.Observation
	found := false
	for _, o := range out {
		if o.Code == code {
			base = o
			found = true
			break
		}
	}

	if !found {
		if seed == nil || seed.Name == "" || seed.Component == "" || seed.Category == "" {
			return nil, false, ErrNoBaseRecord
		}
		base = *seed
		if base.Target == 0 {
			base.Target = 1.0
		}
	}

	row := domain.Observation{
		ActionLine: base.ActionLine,
		Component:  base.Component,
		Category:   base.Category,
		Code:       code,
		Name:       base.Name,
		Value:      value,
		Date:       midnight(date),
		Target:     base.Target,
		Weight:     base.Weight,
	}
	out = append(out, row)
	return out, true, nil
}

// Delete removes the row matching (code, date) exactly, comparing dates at
// day granularity. A miss returns ErrNotFound and the input unchanged.
func Delete(table domain.Table, code string, date time.Time) (domain.Table, error) {
	for i, o := range table {
		if o.SameKey(code, date) {
			out := make(domain.Table, 0, len(table)-1)
			out = append(out, table[:i]...)
			out = append(out, table[i+1:]...)
			return out, nil
		}
	}
	return table, ErrNotFound
}

// midnight truncates a timestamp to its calendar date.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
