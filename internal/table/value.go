package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// DateLayout is the canonical text form of date values.
const DateLayout = "2006-01-02"

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	t    time.Time
}

// Null returns the missing value.
func Null() Value { return Value{} }

// StringValue wraps s. Strings are kept verbatim, including empty ones.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue wraps i.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps f. NaN is stored as null.
func FloatValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindFloat, f: f}
}

// DateValue wraps t. The zero time is stored as null.
func DateValue(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, t: t}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float coerces the value to a number. Strings are trimmed and parsed;
// dates and nulls report false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int coerces the value to an integer. Floats and numeric strings must be
// integral.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat, KindString:
		if v.kind == KindString {
			if i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
				return i, true
			}
		}
		f, ok := v.Float()
		if !ok || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

// Time coerces the value to a timestamp. Strings are parsed with the
// layouts accepted by the readers.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindString:
		return parseTimeMaybe(strings.TrimSpace(v.s))
	}
	return time.Time{}, false
}

// Text returns the string form of the value; null is the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 {
			return v.t.Format(DateLayout)
		}
		return v.t.Format(time.RFC3339)
	}
	return ""
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindDate:
		return v.t.Equal(o.t)
	}
	return true
}

// Interface returns the underlying Go value (nil, string, int64, float64 or time.Time).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindDate:
		return v.t
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsInf(v.f, 0) {
			return json.Marshal(v.Text())
		}
		return json.Marshal(v.f)
	case KindString, KindDate:
		return json.Marshal(v.Text())
	}
	return []byte("null"), nil
}
