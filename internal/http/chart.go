package http

import (
	"math"
	"strings"

	"platinum/internal/core"
)

const (
	colorRealized = "#000064"
	colorTarget   = "#34d399"
	colorText     = "#E5E7EB"
	colorMuted    = "#9CA3AF"

	chartWindow         = 25
	defaultSubGoalLabel = "15/11"
	seriesRealized      = "Realizado"
	seriesTarget        = "Meta"
	chartTitle          = "Forecast: Realizado vs Meta"
)

type object = map[string]any

// ChartOption builds the ECharts option for the realized-vs-goal chart.
func ChartOption(d core.Dashboard) object {
	s := d.Series
	labels := s.Calendar.Labels()

	bars := make([]any, len(s.Deposits))
	barMax := math.Inf(-1)
	for i, p := range s.Deposits {
		v := round2(p.Realized)
		barMax = math.Max(barMax, v)
		bars[i] = object{
			"value": v,
			"label": object{
				"show":      true,
				"position":  "insideTop",
				"distance":  6,
				"formatter": core.FormatShort(v),
				"color":     colorText,
				"fontSize":  10,
			},
		}
	}

	line := make([]*float64, len(s.Targets))
	lineMax := math.Inf(-1)
	for i, p := range s.Targets {
		if !p.Cumulative.Valid {
			continue
		}
		v := round2(p.Cumulative.Value)
		lineMax = math.Max(lineMax, v)
		line[i] = &v
	}

	yMin := YAxisMin(s.StartRealized, barMax, lineMax)
	window := chartWindow
	if n := len(labels); n < window {
		window = max(1, n)
	}

	target := object{
		"name":      seriesTarget,
		"type":      "line",
		"data":      line,
		"symbol":    "circle",
		"itemStyle": object{"color": colorTarget},
		"lineStyle": object{"width": 3, "type": "dashed", "color": colorTarget},
	}
	if mark := subGoalMarks(d.Params); mark != nil {
		target["markLine"] = mark["markLine"]
		target["markPoint"] = mark["markPoint"]
	}

	return object{
		"backgroundColor": "transparent",
		"title": object{
			"text": chartTitle, "left": 0, "top": 8,
			"textStyle": object{"color": colorText, "fontSize": 18},
		},
		"tooltip": object{"trigger": "axis"},
		"legend": object{
			"data": []string{seriesRealized, seriesTarget}, "top": 36,
			"textStyle": object{"color": colorText},
		},
		"grid": object{"left": 64, "right": 20, "top": 72, "bottom": 80, "containLabel": true},
		"xAxis": object{
			"type": "category", "data": labels,
			"axisLabel": object{"color": colorText, "interval": 0},
		},
		"yAxis": object{
			"type": "value", "min": yMin, "max": "dataMax",
			"axisLabel": object{"show": false}, "axisLine": object{"show": false},
			"axisTick": object{"show": false}, "splitLine": object{"show": true},
		},
		"dataZoom": []object{
			{
				"type": "slider", "xAxisIndex": 0, "startValue": 0, "endValue": window - 1,
				"zoomLock": true, "minValueSpan": window, "maxValueSpan": window,
				"bottom": 28, "height": 24, "handleSize": 0, "handleStyle": object{"opacity": 0},
				"showDetail": false, "brushSelect": false,
				"fillerColor":     "rgba(255,255,255,0.18)",
				"backgroundColor": "rgba(255,255,255,0.06)",
				"borderColor":     "rgba(255,255,255,0.15)",
			},
			{
				"type": "inside", "xAxisIndex": 0, "startValue": 0, "endValue": window - 1,
				"zoomLock": true, "minValueSpan": window, "maxValueSpan": window,
			},
		},
		"series": []object{
			{
				"name":        seriesRealized,
				"type":        "bar",
				"data":        bars,
				"barMaxWidth": 53,
				"itemStyle":   object{"borderRadius": []int{8, 8, 0, 0}, "color": colorRealized},
				"label":       object{"show": true},
				"labelLayout": object{"hideOverlap": true},
			},
			target,
		},
	}
}

// YAxisMin keeps the bars readable by starting the axis just below the
// starting realized value: max(0, start - 2% of the span above it).
// Non-finite maxima fall back to start.
func YAxisMin(startRealized, barMax, lineMax float64) float64 {
	if math.IsInf(barMax, 0) || math.IsNaN(barMax) {
		barMax = startRealized
	}
	if math.IsInf(lineMax, 0) || math.IsNaN(lineMax) {
		lineMax = startRealized
	}
	yMax := math.Max(barMax, lineMax)
	return math.Max(0, startRealized-0.02*(yMax-startRealized))
}

func subGoalMarks(p core.Params) object {
	if p.SubGoalValue <= 0 {
		return nil
	}
	label := defaultSubGoalLabel
	if !p.SubGoalDate.IsZero() {
		label = core.FormatDayMonth(p.SubGoalDate)
	}
	name := compactShort(p.SubGoalValue)
	return object{
		"markLine": object{
			"symbol":    "none",
			"lineStyle": object{"type": "dotted", "color": colorMuted},
			"label":     object{"color": colorText, "fontSize": 12},
			"data": []object{
				{"xAxis": label, "name": label},
				{"yAxis": p.SubGoalValue, "name": name},
			},
		},
		"markPoint": object{
			"symbolSize": 48,
			"label":      object{"color": "#0f172a", "fontWeight": "700"},
			"itemStyle":  object{"color": colorTarget},
			"data":       []object{{"coord": []any{label, p.SubGoalValue}, "value": name}},
		},
	}
}

// DailyOption builds the horizontal progress bar of today's deposits against
// today's daily target.
func DailyOption(k core.KPISnapshot) object {
	filled := math.Min(k.TodayDeposit, k.TodayDailyTarget)
	filled = math.Max(0, filled)
	hidden := object{"show": false}
	return object{
		"backgroundColor": "transparent",
		"grid":            object{"left": 10, "right": 10, "top": 8, "bottom": 0, "containLabel": false},
		"xAxis": object{
			"type": "value", "min": 0, "max": k.TodayDailyTarget,
			"axisLine": hidden, "axisTick": hidden, "axisLabel": hidden, "splitLine": hidden,
		},
		"yAxis": object{
			"type": "category", "data": []string{""},
			"axisLine": hidden, "axisTick": hidden, "axisLabel": hidden,
		},
		"series": []object{
			{
				"type": "bar", "data": []float64{k.TodayDailyTarget}, "barWidth": 26,
				"itemStyle": object{"color": "rgba(255,255,255,0.10)", "borderRadius": []int{13, 13, 13, 13}},
				"silent":    true, "z": 1, "barGap": "-100%",
			},
			{
				"type": "bar", "data": []float64{filled}, "barWidth": 26,
				"itemStyle": object{"color": colorRealized, "borderRadius": []int{13, 13, 13, 13}},
				"label":     hidden, "z": 2,
			},
		},
		"animation": true,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// compactShort is FormatShort without a trailing ".00": 9000000 -> "9M".
func compactShort(v float64) string {
	s := core.FormatShort(v)
	for _, suffix := range []string{"B", "M", "K"} {
		if strings.HasSuffix(s, ".00"+suffix) {
			return strings.TrimSuffix(s, ".00"+suffix) + suffix
		}
	}
	return s
}
