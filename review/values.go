package review

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single typed cell. Null marks a blank cell in a non-text column
// or a missing value in a text column.
type Value struct {
	Kind  ColumnKind
	Null  bool
	Text  string
	Bool  bool
	Int   int64
	Float float64
}

// NullValue returns a blank cell of the given kind.
func NullValue(kind ColumnKind) Value {
	return Value{Kind: kind, Null: true}
}

// TextValue wraps a string cell.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// String renders the value the way it is shown to the reviewer and written to CSV.
func (v Value) String() string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Interface returns the value as a plain Go value for spreadsheet writers.
func (v Value) Interface() any {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	default:
		return v.Text
	}
}

// Equal compares two values by kind: text by exact string, numbers by value.
func (v Value) Equal(o Value) bool {
	if v.Null || o.Null {
		return v.Null == o.Null
	}
	if v.Kind != o.Kind {
		return v.String() == o.String()
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	default:
		return v.Text == o.Text
	}
}

var errUnknownBool = errors.New("not a boolean token")

func parseBoolToken(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no", "empty", "":
		return false, nil
	}
	return false, errUnknownBool
}

func isNumericToken(s string) bool {
	// ParseFloat accepts words such as "inf" and "nan"; a spreadsheet number has digits.
	return strings.ContainsAny(s, "0123456789")
}

func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// inferKind picks the narrowest kind that fits every non-blank cell.
// Integer columns with blanks degrade to float, boolean columns with blanks to text.
func inferKind(cells []string) ColumnKind {
	var filled, blanks int
	allBool, allInt, allFloat := true, true, true
	for _, raw := range cells {
		s := strings.TrimSpace(raw)
		if s == "" {
			blanks++
			continue
		}
		filled++
		if !strings.EqualFold(s, "true") && !strings.EqualFold(s, "false") {
			allBool = false
		}
		if hasLeadingZero(s) {
			// Codes such as 007 lose their padding as numbers.
			allInt, allFloat = false, false
		} else if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
		}
		if !allFloat {
			continue
		}
		if !isNumericToken(s) {
			allFloat = false
		} else if _, err := strconv.ParseFloat(s, 64); err != nil {
			allFloat = false
		}
	}
	switch {
	case filled == 0:
		return KindText
	case allBool && blanks == 0:
		return KindBool
	case allInt && blanks == 0:
		return KindInt
	case allInt, allFloat:
		return KindFloat
	default:
		return KindText
	}
}

// parseCell converts a raw cell read from disk into a value of the column kind.
func parseCell(raw string, kind ColumnKind) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullValue(kind), nil
	}
	switch kind {
	case KindBool:
		return Value{Kind: KindBool, Bool: strings.EqualFold(s, "true")}, nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindInt, Int: n}, nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFloat, Float: f}, nil
	default:
		return TextValue(raw), nil
	}
}

// coerceEdit converts text entered by the reviewer into a value of the
// column kind. Blank numeric input becomes zero.
func coerceEdit(raw string, kind ColumnKind) (Value, error) {
	s := strings.TrimSpace(raw)
	switch kind {
	case KindBool:
		b, err := parseBoolToken(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBool, Bool: b}, nil
	case KindInt:
		if s == "" {
			return Value{Kind: KindInt}, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Value{Kind: KindInt, Int: n}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !isNumericToken(s) {
			return Value{}, fmt.Errorf("not a number")
		}
		if math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > math.MaxInt64 {
			return Value{}, fmt.Errorf("out of range")
		}
		return Value{Kind: KindInt, Int: int64(f)}, nil
	case KindFloat:
		if s == "" {
			return Value{Kind: KindFloat}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !isNumericToken(s) {
			return Value{}, fmt.Errorf("not a number")
		}
		return Value{Kind: KindFloat, Float: f}, nil
	default:
		return TextValue(raw), nil
	}
}

// sameAsStored reports whether an edit leaves the stored cell unchanged.
// A blank stored cell matches a blank edit regardless of coercion.
func sameAsStored(stored, edited Value, raw string) bool {
	if stored.Null {
		return strings.TrimSpace(raw) == ""
	}
	return stored.Equal(edited)
}
