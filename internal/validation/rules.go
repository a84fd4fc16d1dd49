// Package validation runs declarative per-column checks against tables and
// reports structured pass/fail results. Tables are never modified.
package validation

import (
	"strconv"
	"strings"
	"time"
)

// Rule is one of Positive, Range, Year, Sentiment or Percentage.
type Rule interface {
	// Type is the rule's configuration name.
	Type() string
	rule()
}

// Positive flags values below zero, or at or below zero when AllowZero is false.
type Positive struct {
	AllowZero bool
}

// Range flags values outside [Min, Max]. A nil bound is unchecked.
type Range struct {
	Min *float64
	Max *float64
}

// Year is a range check on a year column. Zero fields take the defaults:
// MinYear 2000, MaxYear the current year plus one.
type Year struct {
	MinYear int
	MaxYear int
}

// Sentiment is a range check on a sentiment score. The zero value checks [-1, 1].
type Sentiment struct {
	MinScore float64
	MaxScore float64
}

// Percentage checks [0, 100].
type Percentage struct{}

func (Positive) Type() string   { return "positive" }
func (Range) Type() string      { return "range" }
func (Year) Type() string       { return "year" }
func (Sentiment) Type() string  { return "sentiment" }
func (Percentage) Type() string { return "percentage" }

func (Positive) rule()   {}
func (Range) rule()      {}
func (Year) rule()       {}
func (Sentiment) rule()  {}
func (Percentage) rule() {}

const (
	DefaultMinYear  = 2000
	DefaultMinScore = -1.0
	DefaultMaxScore = 1.0
)

var now = time.Now

// Ptr returns a pointer to f, for Range bounds.
func Ptr(f float64) *float64 { return &f }

// check is the compiled form of a rule.
type check struct {
	label   string
	invalid func(x float64) bool
	// text completes "All values in 'X' ..." and "N values in 'X' ...".
	pass, fail string
}

func compile(r Rule, column string) check {
	switch r := r.(type) {
	case Positive:
		if r.AllowZero {
			return check{
				label:   column,
				invalid: func(x float64) bool { return x < 0 },
				pass:    "are non-negative (≥ 0)",
				fail:    "are not non-negative (≥ 0)",
			}
		}
		return check{
			label:   column,
			invalid: func(x float64) bool { return x <= 0 },
			pass:    "are positive (> 0)",
			fail:    "are not positive (> 0)",
		}
	case Range:
		return rangeCheck(column, r.Min, r.Max, formatBound)
	case Year:
		lo, hi := r.MinYear, r.MaxYear
		if lo == 0 {
			lo = DefaultMinYear
		}
		if hi == 0 {
			hi = now().Year() + 1
		}
		c := rangeCheck(column, Ptr(float64(lo)), Ptr(float64(hi)), formatBound)
		c.label = "Year"
		return c
	case Sentiment:
		lo, hi := r.MinScore, r.MaxScore
		if lo == 0 && hi == 0 {
			lo, hi = DefaultMinScore, DefaultMaxScore
		}
		c := rangeCheck(column, &lo, &hi, formatDecimal)
		c.label = "Sentiment Score"
		return c
	case Percentage:
		c := rangeCheck(column, Ptr(0), Ptr(100), formatDecimal)
		c.label = column + " (percentage)"
		return c
	}
	return check{label: column, invalid: func(float64) bool { return false }, pass: "are unchecked", fail: "are unchecked"}
}

func rangeCheck(column string, lo, hi *float64, format func(float64) string) check {
	var parts []string
	if lo != nil {
		parts = append(parts, "≥ "+format(*lo))
	}
	if hi != nil {
		parts = append(parts, "≤ "+format(*hi))
	}
	text := "any value"
	if len(parts) > 0 {
		text = strings.Join(parts, " and ")
	}
	return check{
		label: column,
		invalid: func(x float64) bool {
			return (lo != nil && x < *lo) || (hi != nil && x > *hi)
		},
		pass: "within range (" + text + ")",
		fail: "outside range (" + text + ")",
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatDecimal keeps at least one decimal place, so 1 prints as "1.0".
func formatDecimal(f float64) string {
	s := formatBound(f)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
