package http

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"platinum/internal/core"
)

func chartDashboard() core.Dashboard {
	p := core.Params{
		StartDate:    core.NewDate(2025, time.September, 22),
		BaseInitial:  1000,
		MetaMax:      2000,
		Location:     time.UTC,
		SubGoalValue: 9_000_000,
	}
	targets := []core.RawTargetRow{
		{Date: "2025-09-23", Daily: core.Some(100), Cumulative: core.Some(1100.555)},
	}
	deposits := []core.RawDepositRow{
		{Date: "2025-09-22", Count: 1, Sum: core.Some(1500)},
		{Date: "2025-09-24", Count: 1, Sum: core.Some(10)},
	}
	return core.Compute(targets, deposits, time.Date(2025, 9, 24, 12, 0, 0, 0, time.UTC), p)
}

func TestChartOption(t *testing.T) {
	opt := ChartOption(chartDashboard())

	raw, err := json.Marshal(opt)
	if err != nil {
		t.Fatalf("option must encode: %v", err)
	}
	js := string(raw)

	labels := opt["xAxis"].(object)["data"].([]string)
	if strings.Join(labels, ",") != "22/09,23/09,24/09" {
		t.Errorf("labels = %v", labels)
	}

	series := opt["series"].([]object)
	bars := series[0]["data"].([]any)
	first := bars[0].(object)
	if first["value"] != 2500.0 {
		t.Errorf("first bar = %v, want 2500", first["value"])
	}
	if first["label"].(object)["formatter"] != "2.50K" {
		t.Errorf("bar label = %v", first["label"].(object)["formatter"])
	}

	line := series[1]["data"].([]*float64)
	if line[0] != nil {
		t.Errorf("goal line before the first target must be null, got %v", *line[0])
	}
	if line[1] == nil || *line[1] != 1100.56 {
		t.Errorf("goal line not rounded: %v", line[1])
	}
	if !strings.Contains(js, `"data":[null,1100.56,1100.56]`) {
		t.Errorf("null gap not encoded: %s", js)
	}

	markLine := series[1]["markLine"].(object)["data"].([]object)
	if markLine[0]["xAxis"] != defaultSubGoalLabel || markLine[1]["name"] != "9M" {
		t.Errorf("sub-goal marks = %v", markLine)
	}

	zoom := opt["dataZoom"].([]object)
	if zoom[0]["endValue"] != 2 || zoom[0]["minValueSpan"] != 3 {
		t.Errorf("short calendars shrink the window: %v", zoom[0])
	}
}

func TestChartOption_NoSubGoal(t *testing.T) {
	d := chartDashboard()
	d.Params.SubGoalValue = 0
	series := ChartOption(d)["series"].([]object)
	if _, ok := series[1]["markLine"]; ok {
		t.Error("markLine rendered without a sub-goal value")
	}
}

func TestYAxisMin(t *testing.T) {
	tests := []struct {
		name                   string
		start, barMax, lineMax float64
		want                   float64
	}{
		{name: "two percent below start", start: 1000, barMax: 2000, lineMax: 1500, want: 980},
		{name: "clamped at zero", start: 10, barMax: 10_000, lineMax: 0, want: 0},
		{name: "no values", start: 500, barMax: math.Inf(-1), lineMax: math.Inf(-1), want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := YAxisMin(tt.start, tt.barMax, tt.lineMax); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("YAxisMin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyOption(t *testing.T) {
	opt := DailyOption(core.KPISnapshot{TodayDailyTarget: 100, TodayDeposit: 250})
	series := opt["series"].([]object)
	if got := series[1]["data"].([]float64)[0]; got != 100 {
		t.Errorf("filled bar should cap at the target, got %v", got)
	}
	if opt["xAxis"].(object)["max"] != 100.0 {
		t.Errorf("axis max = %v", opt["xAxis"].(object)["max"])
	}
}

func TestCompactShort(t *testing.T) {
	cases := map[float64]string{9_000_000: "9M", 9_500_000: "9.50M", 1_000: "1K", 999: "999"}
	for in, want := range cases {
		if got := compactShort(in); got != want {
			t.Errorf("compactShort(%v) = %q, want %q", in, got, want)
		}
	}
}
