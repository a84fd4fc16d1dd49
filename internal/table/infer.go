package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"2006-01-02T15:04:05", "Mon Jan 02 15:04:05 -0700 2006",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric parses locale-formatted numbers ("1,234.5", "1.234,5", "12%").
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// inferColumn types a column of raw cells. Empty cells are null. The column
// becomes int, float or date only when every non-empty cell parses that way;
// otherwise all cells stay strings.
func inferColumn(cells []string, opt Options) []Value {
	allInt, allNum, allDate := true, true, true
	nonEmpty := 0
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		nonEmpty++
		if allInt {
			if _, err := strconv.ParseInt(c, 10, 64); err != nil {
				allInt = false
			}
		}
		if allNum && !allInt {
			if _, ok := parseNumeric(c, opt); !ok {
				allNum = false
			}
		}
		if allDate {
			if _, ok := parseTimeMaybe(c); !ok {
				allDate = false
			}
		}
		if !allInt && !allNum && !allDate {
			break
		}
	}
	out := make([]Value, len(cells))
	for i, raw := range cells {
		c := strings.TrimSpace(raw)
		if c == "" {
			continue
		}
		switch {
		case nonEmpty == 0:
		case allInt:
			n, _ := strconv.ParseInt(c, 10, 64)
			out[i] = IntValue(n)
		case allNum:
			f, _ := parseNumeric(c, opt)
			out[i] = FloatValue(f)
		case allDate:
			t, _ := parseTimeMaybe(c)
			out[i] = DateValue(t)
		default:
			out[i] = StringValue(raw)
		}
	}
	return out
}
