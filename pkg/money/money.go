package money

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// decimals is the number of decimal places carried by an Amount.
// Bill amounts are CNY with cent precision.
const decimals = 2

// Amount is a fixed-point monetary value in minor units (cents).
// Arithmetic on amounts is plain integer arithmetic; floating point is
// never involved in parsing, formatting or aggregation.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse converts a human-readable decimal string to an Amount.
// "42.50" -> 4250, "42.5" -> 4250, "42" -> 4200.
// Extra decimal places beyond cent precision are truncated.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	// Use string manipulation to avoid floating point precision issues.
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount format %q", s)
	}

	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}

	decPart := ""
	if len(parts) > 1 {
		decPart = parts[1]
	}

	// Pad or truncate the decimal part to cent precision.
	if len(decPart) < decimals {
		decPart = decPart + strings.Repeat("0", decimals-len(decPart))
	} else if len(decPart) > decimals {
		decPart = decPart[:decimals]
	}

	combined := strings.TrimLeft(intPart+decPart, "0")
	if combined == "" {
		combined = "0"
	}

	v, err := strconv.ParseInt(combined, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format %q", s)
	}
	if neg {
		v = -v
	}
	return Amount(v), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static declarations.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return a
}

// String formats the amount as a decimal string with cent precision,
// e.g. 4250 -> "42.50", -5 -> "-0.05".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// MarshalJSON encodes the amount as a JSON number with two decimal
// places, matching the wire format of the bills API.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if string(data) == "null" {
		*a = 0
		return nil
	}
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
