package matching

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Deadline bounds relative to the time a deposit is prepared.
const (
	DefaultDeadlineOffset = 30 * 24 * time.Hour
	MaxDeadlineOffset     = 367 * 24 * time.Hour
)

// DeadlineLayout is how deadlines are printed; ValidateDeadline accepts it back.
const DeadlineLayout = "2006-01-02_15:04:05Z"

// Absolute deadline layouts accepted by ValidateDeadline. Layouts without a
// zone are read as UTC.
var deadlineLayouts = []string{
	time.RFC3339,
	DeadlineLayout,
	"2006-01-02_15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var secondsPerDay = decimal.NewFromInt(24 * 60 * 60)

// ValidateDeadline parses a deadline entered as an absolute calendar time,
// as "+N" days from now (fractional allowed), or as empty for the default of
// now + 30 days. The result must satisfy now < deadline < now + 367 days.
func ValidateDeadline(raw string, now time.Time) (time.Time, error) {
	now = now.UTC().Truncate(time.Second)
	s := strings.TrimSpace(raw)

	var deadline time.Time
	switch {
	case s == "":
		deadline = now.Add(DefaultDeadlineOffset)
	case s[0] == '+':
		days, err := ParseDecimal(s[1:])
		if err != nil || strings.HasPrefix(s[1:], "+") {
			return time.Time{}, fmt.Errorf("%w: %q is not a number of days", ErrParse, raw)
		}
		if days.Sign() < 0 {
			return time.Time{}, fmt.Errorf("%w: the deadline %s days from now is in the past", ErrOutOfRange, days.String())
		}
		secs := days.Mul(secondsPerDay).Truncate(0)
		if secs.GreaterThan(decimal.NewFromInt(int64(MaxDeadlineOffset / time.Second))) {
			return time.Time{}, fmt.Errorf("%w: the deadline %s days from now is more than 367 days away", ErrOutOfRange, days.String())
		}
		deadline = now.Add(time.Duration(secs.IntPart()) * time.Second)
	default:
		t, err := parseCalendar(s)
		if err != nil {
			return time.Time{}, err
		}
		deadline = t
	}

	if !deadline.After(now) || !deadline.Before(now.Add(MaxDeadlineOffset)) {
		return time.Time{}, fmt.Errorf("%w: the deadline %s is out of range (must be after now and within 367 days)",
			ErrOutOfRange, deadline.UTC().Format(DeadlineLayout))
	}
	return deadline, nil
}

func parseCalendar(s string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			// the contract stores whole seconds
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO 8601 date or time", ErrParse, s)
}
