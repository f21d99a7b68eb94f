package core

// RawTargetRow is a targets row as read from a warehouse, before date parsing.
type RawTargetRow struct {
	Date       string
	Daily      OptionalFloat
	Cumulative OptionalFloat
}

// RawDepositRow is a per-day deposits aggregate as read from a warehouse.
type RawDepositRow struct {
	Date  string
	Count int64
	Sum   OptionalFloat
}

// TargetRow is one day of the goal curve.
type TargetRow struct {
	Date       Date
	Cumulative OptionalFloat
	Daily      OptionalFloat
}

// DepositRow is one day with at least one deposit.
type DepositRow struct {
	Date  Date
	Count int64
	Sum   float64
}

// ParseTargetRows converts raw rows, dropping rows whose date does not
// parse. It returns the kept rows and the number dropped.
func ParseTargetRows(raw []RawTargetRow) ([]TargetRow, int) {
	out := make([]TargetRow, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		d, err := ParseDate(r.Date)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, TargetRow{Date: d, Cumulative: r.Cumulative, Daily: r.Daily})
	}
	return out, dropped
}

// ParseDepositRows converts raw rows, dropping rows whose date does not
// parse. A null sum counts as zero.
func ParseDepositRows(raw []RawDepositRow) ([]DepositRow, int) {
	out := make([]DepositRow, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		d, err := ParseDate(r.Date)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, DepositRow{Date: d, Count: r.Count, Sum: r.Sum.Or(0)})
	}
	return out, dropped
}
