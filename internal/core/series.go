package core

// CalendarFrame is every day from the series start to its end, inclusive.
type CalendarFrame []Date

// TargetPoint is the cumulative goal on one calendar day. Cumulative is null
// only before the first known target value.
type TargetPoint struct {
	Date       Date
	Cumulative OptionalFloat
}

// DepositPoint is the deposits of one calendar day and the realized running
// total at the end of it.
type DepositPoint struct {
	Date     Date
	Count    int64
	Sum      float64
	Realized float64
}

// Series is the output of BuildSeries. Calendar, Targets and Deposits have
// the same length and the same ascending dates.
type Series struct {
	Calendar CalendarFrame
	Targets  []TargetPoint
	Deposits []DepositPoint

	// PreSum and PreCount aggregate the deposits dated before the start.
	PreSum   float64
	PreCount int64

	// StartRealized is the base value plus PreSum.
	StartRealized float64

	// TargetSeeded is set when the goal curve starts from a target row dated
	// before the start instead of one inside the calendar.
	TargetSeeded bool
}

// Len returns the number of calendar days.
func (s Series) Len() int { return len(s.Calendar) }

// BuildSeries aligns target and deposit rows on a gap-free daily calendar
// starting at start.
//
// Deposits before start are folded into PreSum/PreCount and StartRealized and
// never appear as points. Deposits sharing a date are summed. Target rows
// sharing a date resolve to the last one with a value. Target gaps are
// forward-filled from the previous known value and leading gaps stay null.
// Only when no target with a value exists on or after start does the latest
// target dated before start seed the fill.
func BuildSeries(targets []TargetRow, deposits []DepositRow, start Date, baseInitial float64) Series {
	s := Series{}

	end := start
	type dayAgg struct {
		count int64
		sum   float64
	}
	daily := make(map[Date]dayAgg, len(deposits))
	for _, d := range deposits {
		if d.Date.Before(start) {
			s.PreSum += d.Sum
			s.PreCount += d.Count
		} else {
			a := daily[d.Date]
			a.count += d.Count
			a.sum += d.Sum
			daily[d.Date] = a
		}
		if d.Date.After(end) {
			end = d.Date
		}
	}
	s.StartRealized = baseInitial + s.PreSum

	known := make(map[Date]float64, len(targets))
	var seed OptionalFloat
	var seedDate Date
	for _, t := range targets {
		if t.Date.Before(start) {
			if t.Cumulative.Valid && (!seed.Valid || !t.Date.Before(seedDate)) {
				seed, seedDate = t.Cumulative, t.Date
			}
			continue
		}
		if t.Date.After(end) {
			end = t.Date
		}
		if t.Cumulative.Valid {
			known[t.Date] = t.Cumulative.Value
		}
	}

	// Pre-window targets only stand in when the window has none of its own.
	if len(known) > 0 {
		seed = OptionalFloat{}
	}

	n := end.DaysSince(start) + 1
	s.Calendar = make(CalendarFrame, n)
	s.Targets = make([]TargetPoint, n)
	s.Deposits = make([]DepositPoint, n)

	last := seed
	realized := s.StartRealized
	for i := 0; i < n; i++ {
		day := start.AddDays(i)
		s.Calendar[i] = day

		if v, ok := known[day]; ok {
			last = Some(v)
		} else if i == 0 && seed.Valid {
			s.TargetSeeded = true
		}
		s.Targets[i] = TargetPoint{Date: day, Cumulative: last}

		a := daily[day]
		realized += a.sum
		s.Deposits[i] = DepositPoint{Date: day, Count: a.count, Sum: a.sum, Realized: realized}
	}
	return s
}

// Labels returns the calendar as dd/mm chart labels.
func (c CalendarFrame) Labels() []string {
	out := make([]string, len(c))
	for i, d := range c {
		out[i] = FormatDayMonth(d)
	}
	return out
}
