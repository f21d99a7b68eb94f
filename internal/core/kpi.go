package core

import "time"

// KPISnapshot holds the headline values shown on the dashboard cards.
type KPISnapshot struct {
	Today Date

	TotalDepositCount int64
	TotalDepositValue float64

	CurrentRealized float64
	CurrentTarget   float64
	PercentOfGoal   float64

	TodayDailyTarget     float64
	TodayDeposit         float64
	PercentOfDailyTarget float64
}

// KPIInput is everything DeriveKPIs reads. Raw rows are the parsed but
// unaligned warehouse rows, pre-window rows included.
type KPIInput struct {
	PreSum        float64
	PreCount      int64
	StartRealized float64
	Deposits      []DepositPoint
	Targets       []TargetPoint
	Today         Date
	RawTargets    []TargetRow
	RawDeposits   []DepositRow

	MetaMax             float64
	BaseInitial         float64
	FallbackDailyTarget float64
}

// DeriveKPIs reduces the aligned series to the headline values. Percentages
// are clamped to [0, 100] and resolve to 0 when their denominator is not
// positive.
func DeriveKPIs(in KPIInput) KPISnapshot {
	k := KPISnapshot{
		Today:             in.Today,
		TotalDepositValue: in.PreSum,
		TotalDepositCount: in.PreCount,
		CurrentRealized:   in.StartRealized,
	}
	for _, p := range in.Deposits {
		k.TotalDepositValue += p.Sum
		k.TotalDepositCount += p.Count
	}
	if n := len(in.Deposits); n > 0 {
		k.CurrentRealized = in.Deposits[n-1].Realized
	}
	for i := len(in.Targets) - 1; i >= 0; i-- {
		if in.Targets[i].Cumulative.Valid {
			k.CurrentTarget = in.Targets[i].Cumulative.Value
			break
		}
	}

	if den := in.MetaMax - in.BaseInitial; den > 0 {
		k.PercentOfGoal = clamp((k.CurrentRealized-in.BaseInitial)/den*100, 0, 100)
	}

	k.TodayDailyTarget = dailyTargetFor(in.RawTargets, in.Today, in.FallbackDailyTarget)
	for _, d := range in.RawDeposits {
		if d.Date == in.Today {
			k.TodayDeposit += d.Sum
		}
	}
	if k.TodayDailyTarget > 0 {
		k.PercentOfDailyTarget = clamp(k.TodayDeposit/k.TodayDailyTarget*100, 0, 100)
	}
	return k
}

// dailyTargetFor returns the daily target of today, else the daily target
// of the most recent row that has one, else fallback.
func dailyTargetFor(rows []TargetRow, today Date, fallback float64) float64 {
	var latest OptionalFloat
	var latestDate Date
	for _, r := range rows {
		if !r.Daily.Valid {
			continue
		}
		if r.Date == today {
			return r.Daily.Value
		}
		if !latest.Valid || !r.Date.Before(latestDate) {
			latest, latestDate = r.Daily, r.Date
		}
	}
	return latest.Or(fallback)
}

// Params are the fixed dashboard constants.
type Params struct {
	StartDate           Date
	BaseInitial         float64
	MetaMax             float64
	FallbackDailyTarget float64
	Location            *time.Location

	// SubGoalDate and SubGoalValue place the secondary goal marker on the
	// chart. They do not affect any KPI.
	SubGoalDate  Date
	SubGoalValue float64
}

// Dashboard is one complete computation: the series and the KPIs derived
// from them.
type Dashboard struct {
	Series Series
	KPIs   KPISnapshot
	Params Params

	DroppedTargetRows  int
	DroppedDepositRows int
}

// Compute parses raw warehouse rows, builds the series and derives the KPIs
// for the day now falls on in p.Location.
func Compute(rawTargets []RawTargetRow, rawDeposits []RawDepositRow, now time.Time, p Params) Dashboard {
	targets, droppedT := ParseTargetRows(rawTargets)
	deposits, droppedD := ParseDepositRows(rawDeposits)

	s := BuildSeries(targets, deposits, p.StartDate, p.BaseInitial)
	k := DeriveKPIs(KPIInput{
		PreSum:              s.PreSum,
		PreCount:            s.PreCount,
		StartRealized:       s.StartRealized,
		Deposits:            s.Deposits,
		Targets:             s.Targets,
		Today:               Today(now, p.Location),
		RawTargets:          targets,
		RawDeposits:         deposits,
		MetaMax:             p.MetaMax,
		BaseInitial:         p.BaseInitial,
		FallbackDailyTarget: p.FallbackDailyTarget,
	})
	return Dashboard{
		Series:             s,
		KPIs:               k,
		Params:             p,
		DroppedTargetRows:  droppedT,
		DroppedDepositRows: droppedD,
	}
}
