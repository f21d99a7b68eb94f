// Package core holds the dashboard domain: warehouse rows, the calendar
// aligned series built from them, the headline KPIs and their formatting.
//
// Everything here is pure and synchronous. Values are recomputed in full on
// every refresh and never mutated after they are returned.
package core

import (
	"math"
	"strconv"
	"strings"
)

// OptionalFloat is a number that may be absent. The zero value is null.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Some returns a present value. NaN and infinities are treated as null.
func Some(v float64) OptionalFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OptionalFloat{}
	}
	return OptionalFloat{Value: v, Valid: true}
}

// Null returns an absent value.
func Null() OptionalFloat { return OptionalFloat{} }

// Or returns the value, or def when null.
func (o OptionalFloat) Or(def float64) float64 {
	if !o.Valid {
		return def
	}
	return o.Value
}

// Ptr returns nil for null, for JSON encoding as null.
func (o OptionalFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// ParseNumber parses a warehouse cell into a number.
//
// It accepts plain Go floats ("1234.5", "1.0E2"), decimal comma ("1234,5")
// and Brazilian grouping ("1.234.567,89"). A leading currency sign is
// ignored. Anything else yields null.
//
//	ParseNumber("5835589.9")     -> 5835589.9
//	ParseNumber("5.835.589,90")  -> 5835589.9
//	ParseNumber("$ 100,00")      -> 100
//	ParseNumber("n/a")           -> null
func ParseNumber(s string) OptionalFloat {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Some(f)
	}
	if strings.Contains(s, ",") && strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
		// US grouping: "1,234.56".
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return Some(f)
		}
		return Null()
	}
	if strings.Contains(s, ",") {
		// Decimal comma: dots are thousands separators.
		norm := strings.ReplaceAll(s, ".", "")
		norm = strings.Replace(norm, ",", ".", 1)
		if f, err := strconv.ParseFloat(norm, 64); err == nil {
			return Some(f)
		}
		return Null()
	}
	if strings.Count(s, ".") > 1 {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ".", ""), 64); err == nil {
			return Some(f)
		}
	}
	return Null()
}

// ParseCount parses a count cell; fractional counts are truncated and
// unparseable values are zero.
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f := ParseNumber(s); f.Valid {
		return int64(f.Value)
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
