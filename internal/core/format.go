package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrency renders v with "." thousands and "," decimals, two decimals:
// 1234567.891 -> "1.234.567,89".
func FormatCurrency(v float64) string {
	s := strconv.FormatFloat(sanitize(v), 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart, '.') + "," + frac
	if neg && strings.Trim(out, "0.,") != "" {
		return "-" + out
	}
	return out
}

// FormatInt renders the integer part of v with "." thousands: 1234567 -> "1.234.567".
func FormatInt(v float64) string {
	s := strconv.FormatFloat(math.Trunc(sanitize(v)), 'f', 0, 64)
	if digits, ok := strings.CutPrefix(s, "-"); ok {
		if digits == "0" {
			return "0"
		}
		return "-" + groupThousands(digits, '.')
	}
	return groupThousands(s, '.')
}

// FormatPercent renders v with two decimals and a percent sign: 12.345 -> "12.35%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", sanitize(v))
}

// FormatShort abbreviates v with K, M or B suffixes and two decimals.
// Values under a thousand are rendered as integers.
func FormatShort(v float64) string {
	v = sanitize(v)
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2fK", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}

// FormatDayMonth renders d as dd/mm.
func FormatDayMonth(d Date) string {
	return fmt.Sprintf("%02d/%02d", d.Day, int(d.Month))
}

// FormatDate renders d as dd/mm/yyyy.
func FormatDate(d Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func groupThousands(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
