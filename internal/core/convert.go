package core

// convert.go provides coercion between loosely typed store values, the
// domain Record fields and PostgreSQL parameter types.
//
// These functions handle what actually comes back from the store and forms:
//   - Dates as YYYY-MM-DD strings, RFC 3339 timestamps or time.Time
//   - Amounts as JSON numbers, numeric strings or pgtype.Numeric
//   - Identifiers (documento, telefono) that look numeric but are opaque
//
// All ToPg* functions return pgtype values with Valid=false for empty input,
// allowing the database to store NULL.

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseDate converts a store or form value into a calendar date at UTC midnight.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(val), true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return ParseDate(*val)
	case pgtype.Date:
		if !val.Valid {
			return time.Time{}, false
		}
		return dateOnly(val.Time), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return dateOnly(t), true
			}
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDecimal converts a store or form value into an amount.
// A leading currency symbol and surrounding spaces are tolerated; thousands
// separators are not, since "2.500" is ambiguous between locales.
func ParseDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Decimal{}, false
		}
		return *val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		return ParseDecimal(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int16:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case json.Number:
		return ParseDecimal(string(val))
	case pgtype.Numeric:
		if !val.Valid || val.NaN || val.InfinityModifier != pgtype.Finite {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromBigInt(val.Int, val.Exp), true
	case string:
		s := strings.TrimSpace(val)
		s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

// ParseInt64 converts an identifier value to int64.
func ParseInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		i, err := val.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// IdentifierString renders documento/telefono style values as plain strings.
// Numbers print without exponent or decimals, so 1.023e9 becomes "1023000000".
func IdentifierString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'f', 0, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return IdentifierString(string(val))
	case pgtype.Numeric, decimal.Decimal:
		if d, ok := ParseDecimal(val); ok {
			return d.String()
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a date to pgtype.Date. A nil or zero time is NULL.
func ToPgDate(t *time.Time) pgtype.Date {
	if t == nil || t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: dateOnly(*t), Valid: true}
}

// ToPgNumeric converts an amount to pgtype.Numeric.
func ToPgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgInt2 converts a small integer flag to pgtype.Int2.
func ToPgInt2(i int) pgtype.Int2 {
	return pgtype.Int2{Int16: int16(i), Valid: true}
}

// FormatCOP renders an amount as Colombian pesos without decimals,
// e.g. 2500000 -> "$ 2.500.000".
func FormatCOP(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$ " + b.String()
	}
	return "$ " + b.String()
}
