package sheets

import (
	"sort"

	"platinum/internal/core"
	"platinum/internal/warehouse"
)

// Column layout used when a sheet has no recognisable header row.
var (
	targetColumns  = [3][]string{{"data_meta", "data", "date"}, {"meta_diaria", "daily"}, {"meta_acumulada", "cumulative"}}
	depositColumns = [2][]string{{"data_deposito", "data", "date"}, {"deposito", "valor", "amount"}}
)

// layout resolves column positions from the first row. It reports whether
// the first row was a header and should be skipped.
func layout(values [][]any, aliases [][]string) ([]int, bool) {
	idx := make([]int, len(aliases))
	for i := range idx {
		idx[i] = i
	}
	if len(values) == 0 {
		return idx, false
	}
	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = warehouse.CellString(v)
	}
	found := false
	for i, names := range aliases {
		if j := warehouse.ColumnIndex(headers, names...); j >= 0 {
			idx[i] = j
			found = true
		}
	}
	return idx, found
}

func at(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func parseTargets(values [][]any) []core.RawTargetRow {
	cols, header := layout(values, targetColumns[:])
	if header {
		values = values[1:]
	}
	out := make([]core.RawTargetRow, 0, len(values))
	for _, row := range values {
		date := warehouse.CellString(at(row, cols[0]))
		if date == "" {
			continue
		}
		out = append(out, core.RawTargetRow{
			Date:       date,
			Daily:      number(at(row, cols[1])),
			Cumulative: number(at(row, cols[2])),
		})
	}
	return out
}

// aggregateDeposits groups one-row-per-deposit events into per-day rows.
// Dates that parse are keyed by their canonical form so "22/09/2025" and
// "2025-09-22" land together; others are kept verbatim for the core to drop.
func aggregateDeposits(values [][]any) []core.RawDepositRow {
	cols, header := layout(values, depositColumns[:])
	if header {
		values = values[1:]
	}
	byDate := map[string]*core.RawDepositRow{}
	for _, row := range values {
		raw := warehouse.CellString(at(row, cols[0]))
		if raw == "" {
			continue
		}
		key := raw
		if d, err := core.ParseDate(raw); err == nil {
			key = d.String()
		}
		agg, ok := byDate[key]
		if !ok {
			agg = &core.RawDepositRow{Date: key}
			byDate[key] = agg
		}
		agg.Count++
		if v := number(at(row, cols[1])); v.Valid {
			agg.Sum = core.Some(agg.Sum.Or(0) + v.Value)
		}
	}

	out := make([]core.RawDepositRow, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func number(v any) core.OptionalFloat {
	switch n := v.(type) {
	case float64:
		return core.Some(n)
	case int:
		return core.Some(float64(n))
	}
	return core.ParseNumber(warehouse.CellString(v))
}
