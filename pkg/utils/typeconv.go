package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

var (
	floatPrefix   = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
	integerPrefix = regexp.MustCompile(`^[+-]?\d+`)
)

// ToNumber reports the numeric value of val when it holds one of the
// supported number kinds.
func ToNumber(val models.Value) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// ToString converts val to the string form expected by the Measurement
// Protocol. Empty strings are rejected so the field is omitted.
func ToString(val models.Value) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, v != ""
	case bool:
		return strings.ToUpper(strconv.FormatBool(v)), true
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	if f, ok := ToNumber(val); ok {
		return formatFloat(f), true
	}
	return "", false
}

// formatFloat renders f in plain decimal notation, switching to exponent
// notation ("1e+21", "1.5e-7") at and above 1e21 and below 1e-6.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + sign + digits
}

// ToFloat converts val to a float. Strings are parsed from their longest
// numeric prefix; anything that does not yield a finite number is rejected.
func ToFloat(val models.Value) (float64, bool) {
	var f float64
	switch v := val.(type) {
	case string:
		prefix := floatPrefix.FindString(strings.TrimLeft(v, " \t\n\r\f\v"))
		if prefix == "" {
			return 0, false
		}
		prefix = strings.Replace(prefix, "Infinity", "Inf", 1)
		parsed, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		n, ok := ToNumber(val)
		if !ok {
			return 0, false
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToInteger converts val to a base-10 integer, truncating toward zero.
func ToInteger(val models.Value) (int64, bool) {
	switch v := val.(type) {
	case string:
		prefix := integerPrefix.FindString(strings.TrimLeft(v, " \t\n\r\f\v"))
		if prefix == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(prefix, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	f, ok := ToNumber(val)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ToBoolean converts val to a bool: strings are true iff they spell "true",
// numbers iff they are positive.
func ToBoolean(val models.Value) (bool, bool) {
	switch v := val.(type) {
	case string:
		return strings.EqualFold(v, "true"), true
	case bool:
		return v, true
	}
	if f, ok := ToNumber(val); ok {
		return f > 0, true
	}
	return false, false
}

// maxSignificantDigits is the most digits a float64 carries exactly.
const maxSignificantDigits = 15

// ParseCell types a raw text cell the way a spreadsheet would: TRUE/FALSE
// become booleans, numeric text becomes a number, the rest stays a string.
// Numeric text that reads as an identifier (leading zeros, or more digits
// than a float64 holds) stays a string.
func ParseCell(raw string) models.Value {
	s := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	case s == "":
		return raw
	}
	if identifierLike(s) {
		return raw
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return raw
}

func identifierLike(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		s = s[:i]
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return true
	}
	digits := strings.TrimLeft(strings.Replace(s, ".", "", 1), "0")
	return len(digits) > maxSignificantDigits
}
