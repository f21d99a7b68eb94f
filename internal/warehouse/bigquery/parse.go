package bigquery

import (
	"strconv"
	"time"

	"platinum/internal/core"
	"platinum/internal/warehouse"

	bq "google.golang.org/api/bigquery/v2"
)

func parseTargetRows(rows []*bq.TableRow) []core.RawTargetRow {
	out := make([]core.RawTargetRow, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, core.RawTargetRow{
			Date:       dateCell(cell(r, 0)),
			Daily:      numberCell(cell(r, 1)),
			Cumulative: numberCell(cell(r, 2)),
		})
	}
	return out
}

func parseDepositRows(rows []*bq.TableRow) []core.RawDepositRow {
	out := make([]core.RawDepositRow, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, core.RawDepositRow{
			Date:  dateCell(cell(r, 0)),
			Count: core.ParseCount(warehouse.CellString(cell(r, 1))),
			Sum:   numberCell(cell(r, 2)),
		})
	}
	return out
}

func cell(r *bq.TableRow, i int) any {
	if i >= len(r.F) || r.F[i] == nil {
		return nil
	}
	return r.F[i].V
}

func numberCell(v any) core.OptionalFloat {
	if f, ok := v.(float64); ok {
		return core.Some(f)
	}
	return core.ParseNumber(warehouse.CellString(v))
}

// dateCell returns the calendar date of a DATE, DATETIME or TIMESTAMP cell.
// TIMESTAMP values arrive as epoch seconds and are read in UTC.
func dateCell(v any) string {
	s := warehouse.CellString(v)
	if s == "" {
		return ""
	}
	if _, err := core.ParseDate(s); err == nil {
		return s
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(secs)
		nanos := int64((secs - float64(whole)) * 1e9)
		return core.DateOf(time.Unix(whole, nanos).UTC()).String()
	}
	return s
}
