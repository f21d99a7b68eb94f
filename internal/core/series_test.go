package core

import (
	"math"
	"testing"
)

const eps = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestBuildSeries_WorkedExample(t *testing.T) {
	d0 := NewDate(2025, 9, 22)
	base := 5_835_589.90
	deposits := []DepositRow{
		{Date: d0, Count: 1, Sum: 100},
		{Date: d0.AddDays(2), Count: 2, Sum: 300},
	}
	targets := []TargetRow{
		{Date: d0, Daily: Some(1), Cumulative: Some(5_900_000)},
		{Date: d0.AddDays(2), Daily: Some(1), Cumulative: Some(6_000_000)},
	}

	s := BuildSeries(targets, deposits, d0, base)

	if s.Len() != 3 {
		t.Fatalf("calendar length = %d, want 3", s.Len())
	}
	for i, want := range []Date{d0, d0.AddDays(1), d0.AddDays(2)} {
		if s.Calendar[i] != want {
			t.Errorf("calendar[%d] = %v, want %v", i, s.Calendar[i], want)
		}
	}
	wantRealized := []float64{5_835_689.90, 5_835_689.90, 5_835_989.90}
	for i, want := range wantRealized {
		if !near(s.Deposits[i].Realized, want) {
			t.Errorf("realized[%d] = %f, want %f", i, s.Deposits[i].Realized, want)
		}
	}
	wantTarget := []float64{5_900_000, 5_900_000, 6_000_000}
	for i, want := range wantTarget {
		if !s.Targets[i].Cumulative.Valid || s.Targets[i].Cumulative.Value != want {
			t.Errorf("target[%d] = %+v, want %f", i, s.Targets[i].Cumulative, want)
		}
	}

	k := DeriveKPIs(KPIInput{
		PreSum: s.PreSum, PreCount: s.PreCount, StartRealized: s.StartRealized,
		Deposits: s.Deposits, Targets: s.Targets, Today: d0.AddDays(2),
		RawTargets: targets, RawDeposits: deposits,
		MetaMax: 10_000_000, BaseInitial: base, FallbackDailyTarget: 10_000,
	})
	wantPct := (5_835_989.90 - base) / (10_000_000 - base) * 100
	if !near(k.PercentOfGoal, wantPct) {
		t.Errorf("percent of goal = %f, want %f", k.PercentOfGoal, wantPct)
	}
	if math.Abs(k.PercentOfGoal-0.0096) > 0.0001 {
		t.Errorf("percent of goal = %f, want about 0.0096", k.PercentOfGoal)
	}
	if k.TotalDepositCount != 3 || !near(k.TotalDepositValue, 400) {
		t.Errorf("totals = (%d, %f), want (3, 400)", k.TotalDepositCount, k.TotalDepositValue)
	}
	if k.CurrentTarget != 6_000_000 {
		t.Errorf("current target = %f", k.CurrentTarget)
	}
}

func TestBuildSeries_CalendarCompleteness(t *testing.T) {
	start := NewDate(2025, 9, 22)
	cases := []struct {
		name     string
		targets  []TargetRow
		deposits []DepositRow
		wantLen  int
	}{
		{name: "both empty", wantLen: 1},
		{
			name:    "targets extend past deposits",
			targets: []TargetRow{{Date: start.AddDays(40), Cumulative: Some(1)}},
			deposits: []DepositRow{
				{Date: start.AddDays(3), Count: 1, Sum: 1},
			},
			wantLen: 41,
		},
		{
			name:     "deposits extend past targets, across a month boundary",
			targets:  []TargetRow{{Date: start, Cumulative: Some(1)}},
			deposits: []DepositRow{{Date: NewDate(2025, 10, 5), Count: 1, Sum: 1}},
			wantLen:  14,
		},
		{
			name:     "only pre-window rows",
			targets:  []TargetRow{{Date: start.AddDays(-5), Cumulative: Some(1)}},
			deposits: []DepositRow{{Date: start.AddDays(-2), Count: 1, Sum: 1}},
			wantLen:  1,
		},
		{
			name: "out of order and duplicated",
			deposits: []DepositRow{
				{Date: start.AddDays(4), Count: 1, Sum: 1},
				{Date: start.AddDays(1), Count: 1, Sum: 1},
				{Date: start.AddDays(4), Count: 1, Sum: 1},
			},
			wantLen: 5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := BuildSeries(tc.targets, tc.deposits, start, 0)
			if s.Len() != tc.wantLen {
				t.Fatalf("len = %d, want %d", s.Len(), tc.wantLen)
			}
			if len(s.Targets) != s.Len() || len(s.Deposits) != s.Len() {
				t.Fatalf("series lengths differ: cal=%d targets=%d deposits=%d", s.Len(), len(s.Targets), len(s.Deposits))
			}
			end := s.Calendar[s.Len()-1]
			if end.DaysSince(start)+1 != s.Len() {
				t.Fatalf("len %d does not match span %v..%v", s.Len(), start, end)
			}
			for i := range s.Calendar {
				if s.Targets[i].Date != s.Calendar[i] || s.Deposits[i].Date != s.Calendar[i] {
					t.Fatalf("date mismatch at %d", i)
				}
				if i > 0 && s.Calendar[i].DaysSince(s.Calendar[i-1]) != 1 {
					t.Fatalf("gap between %v and %v", s.Calendar[i-1], s.Calendar[i])
				}
			}
		})
	}
}

func TestBuildSeries_ForwardFill(t *testing.T) {
	start := NewDate(2025, 9, 22)
	targets := []TargetRow{
		{Date: start.AddDays(2), Cumulative: Some(10)},
		{Date: start.AddDays(5), Cumulative: Some(30)},
		{Date: start.AddDays(3), Cumulative: Null()},
	}
	s := BuildSeries(targets, nil, start, 0)

	want := []OptionalFloat{Null(), Null(), Some(10), Some(10), Some(10), Some(30)}
	if s.Len() != len(want) {
		t.Fatalf("len = %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		if s.Targets[i].Cumulative != w {
			t.Errorf("target[%d] = %+v, want %+v", i, s.Targets[i].Cumulative, w)
		}
	}
	if s.TargetSeeded {
		t.Error("series should not be seeded")
	}
	for i := 1; i < s.Len(); i++ {
		prev, cur := s.Targets[i-1].Cumulative, s.Targets[i].Cumulative
		if prev.Valid && cur.Valid && cur.Value < prev.Value {
			t.Errorf("non-decreasing input produced decrease at %d", i)
		}
	}
}

func TestBuildSeries_DuplicateTargetLastValueWins(t *testing.T) {
	start := NewDate(2025, 9, 22)
	targets := []TargetRow{
		{Date: start, Cumulative: Some(1)},
		{Date: start, Cumulative: Some(2)},
		{Date: start, Cumulative: Null()},
	}
	s := BuildSeries(targets, nil, start, 0)
	if got := s.Targets[0].Cumulative; got != Some(2) {
		t.Fatalf("target = %+v, want 2", got)
	}
}

func TestBuildSeries_SeedFromPreWindowTarget(t *testing.T) {
	start := NewDate(2025, 9, 22)
	targets := []TargetRow{
		{Date: start.AddDays(-3), Cumulative: Some(5)},
		{Date: start.AddDays(-1), Cumulative: Some(7)},
	}
	deposits := []DepositRow{{Date: start.AddDays(2), Count: 1, Sum: 1}}
	s := BuildSeries(targets, deposits, start, 0)

	if !s.TargetSeeded {
		t.Fatal("expected seeded series")
	}
	for i, p := range s.Targets {
		if p.Cumulative != Some(7) {
			t.Errorf("target[%d] = %+v, want 7", i, p.Cumulative)
		}
	}
}

func TestBuildSeries_PreWindowTargetIgnoredWhenWindowHasTargets(t *testing.T) {
	start := NewDate(2025, 9, 22)
	targets := []TargetRow{
		{Date: start.AddDays(-1), Cumulative: Some(7)},
		{Date: start.AddDays(2), Cumulative: Some(10)},
	}
	s := BuildSeries(targets, nil, start, 0)

	want := []OptionalFloat{Null(), Null(), Some(10)}
	if s.Len() != len(want) {
		t.Fatalf("len = %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		if s.Targets[i].Cumulative != w {
			t.Errorf("target[%d] = %+v, want %+v", i, s.Targets[i].Cumulative, w)
		}
	}
	if s.TargetSeeded {
		t.Error("series should not be seeded")
	}
}

func TestBuildSeries_CumulativeIdentity(t *testing.T) {
	start := NewDate(2025, 9, 22)
	deposits := []DepositRow{
		{Date: start.AddDays(-10), Count: 4, Sum: 1000},
		{Date: start, Count: 1, Sum: 12.5},
		{Date: start.AddDays(3), Count: 2, Sum: 0.25},
		{Date: start.AddDays(3), Count: 1, Sum: 7},
		{Date: start.AddDays(6), Count: 9, Sum: 99.75},
	}
	base := 500.0
	s := BuildSeries(nil, deposits, start, base)

	if s.StartRealized != base+1000 {
		t.Fatalf("start realized = %f, want %f", s.StartRealized, base+1000)
	}
	prefix := 0.0
	for i, p := range s.Deposits {
		prefix += p.Sum
		if !near(p.Realized, s.StartRealized+prefix) {
			t.Errorf("realized[%d] = %f, want %f", i, p.Realized, s.StartRealized+prefix)
		}
	}
	if s.Deposits[3].Count != 3 || !near(s.Deposits[3].Sum, 7.25) {
		t.Errorf("duplicate day not summed: %+v", s.Deposits[3])
	}
}

func TestBuildSeries_PreWindowIsolation(t *testing.T) {
	start := NewDate(2025, 9, 22)
	deposits := []DepositRow{
		{Date: start.AddDays(-1), Count: 3, Sum: 300},
		{Date: start.AddDays(-40), Count: 2, Sum: 200},
		{Date: start.AddDays(1), Count: 1, Sum: 10},
	}
	s := BuildSeries(nil, deposits, start, 0)

	if s.PreSum != 500 || s.PreCount != 5 {
		t.Fatalf("pre = (%f, %d), want (500, 5)", s.PreSum, s.PreCount)
	}
	for _, d := range s.Calendar {
		if d.Before(start) {
			t.Fatalf("pre-window date %v in calendar", d)
		}
	}
	var visible float64
	for _, p := range s.Deposits {
		visible += p.Sum
	}
	if visible != 10 {
		t.Fatalf("visible sum = %f, want 10", visible)
	}

	k := DeriveKPIs(KPIInput{
		PreSum: s.PreSum, PreCount: s.PreCount, StartRealized: s.StartRealized,
		Deposits: s.Deposits, Targets: s.Targets,
	})
	if k.TotalDepositValue != 510 || k.TotalDepositCount != 6 {
		t.Fatalf("totals = (%f, %d), want (510, 6)", k.TotalDepositValue, k.TotalDepositCount)
	}
}

func TestBuildSeries_EmptyDeposits(t *testing.T) {
	start := NewDate(2025, 9, 22)
	targets := []TargetRow{{Date: start.AddDays(4), Cumulative: Some(100)}}
	s := BuildSeries(targets, nil, start, 42)

	if s.Len() != 5 {
		t.Fatalf("len = %d, want 5", s.Len())
	}
	for i, p := range s.Deposits {
		if p.Count != 0 || p.Sum != 0 || p.Realized != 42 {
			t.Errorf("deposit[%d] = %+v, want zero day at 42", i, p)
		}
	}
}

func TestCalendarFrame_Labels(t *testing.T) {
	start := NewDate(2025, 9, 29)
	s := BuildSeries(nil, []DepositRow{{Date: NewDate(2025, 10, 2), Count: 1, Sum: 1}}, start, 0)

	labels := s.Calendar.Labels()
	if len(labels) != 4 {
		t.Fatalf("len = %d, want 4", len(labels))
	}
	want := []string{"29/09", "30/09", "01/10", "02/10"}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}
