package sim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VTime is a point or a duration in simulated time, in picoseconds.
type VTime uint64

// Defines the units of simulated time.
const (
	PS VTime = 1
	NS VTime = 1000 * PS
	US VTime = 1000 * NS
	MS VTime = 1000 * US
	S  VTime = 1000 * MS
)

// ErrInvalidTime is returned when a time string cannot be parsed.
var ErrInvalidTime = errors.New("sim: invalid time")

var timeUnits = []struct {
	suffix string
	unit   VTime
}{
	{"s", S},
	{"ms", MS},
	{"us", US},
	{"ns", NS},
	{"ps", PS},
}

func unitBySuffix(suffix string) (VTime, bool) {
	for _, u := range timeUnits {
		if u.suffix == suffix {
			return u.unit, true
		}
	}

	return 0, false
}

// ParseTime parses strings such as "1ns", "2.5us" or "10 ps".
func ParseTime(s string) (VTime, error) {
	s = strings.TrimSpace(s)

	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	number := s[:i]
	suffix := strings.ToLower(strings.TrimSpace(s[i:]))

	unit, ok := unitBySuffix(suffix)
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidTime, suffix)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	ps := value * float64(unit)
	if ps != math.Trunc(ps) {
		return 0, fmt.Errorf("%w: %q is not a whole number of picoseconds",
			ErrInvalidTime, s)
	}

	if ps > math.MaxUint64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidTime, s)
	}

	return VTime(ps), nil
}

// String renders the time in the largest unit that divides it evenly.
func (t VTime) String() string {
	if t == 0 {
		return "0ps"
	}

	for _, u := range timeUnits {
		if t%u.unit == 0 {
			return strconv.FormatUint(uint64(t/u.unit), 10) + u.suffix
		}
	}

	return strconv.FormatUint(uint64(t), 10) + "ps"
}

// Seconds converts the time to seconds.
func (t VTime) Seconds() float64 {
	return float64(t) / float64(S)
}
