package matching

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed-point parameters of the match multiplier.
const (
	// Denominator is the fixed-point scale: ratio = multiplier / Denominator.
	Denominator = 1024
	// Limit is the exclusive upper bound of a valid multiplier (ratio 64).
	Limit = 65536
)

var denominator = decimal.NewFromInt(Denominator)

// Multiplier is a match ratio in fixed point with denominator 1024.
// Valid values lie strictly between 0 and Limit.
type Multiplier uint32

// Valid reports whether m is in (0, Limit).
func (m Multiplier) Valid() bool {
	return m > 0 && m < Limit
}

// Ratio returns the exact decimal ratio m / 1024.
func (m Multiplier) Ratio() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(denominator)
}

// String formats the ratio without trailing zeros, e.g. "0.5".
func (m Multiplier) String() string {
	return m.Ratio().String()
}

// ValidateMatchMultiplier converts a human-entered decimal ratio to its
// fixed-point representation by scaling by 1024 and truncating. rounded is
// true when truncation changed the value.
func ValidateMatchMultiplier(input string) (Multiplier, bool, error) {
	s := strings.TrimSpace(input)
	ratio, err := ParseDecimal(s)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrParse, input)
	}

	scaled := ratio.Mul(denominator)
	truncated := scaled.Truncate(0)
	rounded := !scaled.Equal(truncated)

	if truncated.Sign() <= 0 || truncated.GreaterThanOrEqual(decimal.NewFromInt(Limit)) {
		return 0, rounded, fmt.Errorf("%w: the match amount %s must be greater than 0 and less than 64 (in steps of 1/1024)",
			ErrOutOfRange, truncated.Div(denominator).String())
	}

	return Multiplier(truncated.IntPart()), rounded, nil
}

// ParseDecimal parses a plain decimal number. Exponent notation is refused:
// a typo like 1e100000000 would expand to a hundred million digits.
func ParseDecimal(s string) (decimal.Decimal, error) {
	if strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, fmt.Errorf("%w: %q uses exponent notation", ErrParse, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrParse, s)
	}
	return d, nil
}
