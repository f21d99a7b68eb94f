package core

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0,00"},
		{1.5, "1,50"},
		{999.999, "1.000,00"},
		{1234.5, "1.234,50"},
		{5_835_589.90, "5.835.589,90"},
		{10_000_000, "10.000.000,00"},
		{-1234.5, "-1.234,50"},
		{-0.001, "0,00"},
		{math.NaN(), "0,00"},
		{math.Inf(1), "0,00"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{1234567, "1.234.567"},
		{1234.9, "1.234"},
		{-1234567, "-1.234.567"},
		{math.NaN(), "0"},
		{-0.5, "0"},
		{1e20, "100.000.000.000.000.000.000"},
		{-1e20, "-100.000.000.000.000.000.000"},
		{math.MinInt64, "-9.223.372.036.854.775.808"},
	}
	for _, tc := range cases {
		if got := FormatInt(tc.in); got != tc.want {
			t.Errorf("FormatInt(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(12.345); got != "12.35%" && got != "12.34%" {
		t.Errorf("FormatPercent(12.345) = %q", got)
	}
	if got := FormatPercent(100); got != "100.00%" {
		t.Errorf("FormatPercent(100) = %q", got)
	}
	if got := FormatPercent(math.NaN()); got != "0.00%" {
		t.Errorf("FormatPercent(NaN) = %q", got)
	}
}

func TestFormatShort(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{999.6, "1000"},
		{1000, "1.00K"},
		{12_346, "12.35K"},
		{5_835_689.90, "5.84M"},
		{1_000_000_000, "1.00B"},
		{2_500_000_000, "2.50B"},
		{math.NaN(), "0"},
	}
	for _, tc := range cases {
		if got := FormatShort(tc.in); got != tc.want {
			t.Errorf("FormatShort(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDates(t *testing.T) {
	d := NewDate(2025, 9, 2)
	if got := FormatDayMonth(d); got != "02/09" {
		t.Errorf("FormatDayMonth = %q", got)
	}
	if got := FormatDate(d); got != "02/09/2025" {
		t.Errorf("FormatDate = %q", got)
	}
}
