// Package racetime parses race clock strings into durations and formats
// durations for display.
package racetime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime is returned for strings that are not race clock times.
var ErrInvalidTime = errors.New("invalid race time")

// maxHours keeps the parsed duration within time.Duration.
const maxHours = math.MaxInt64/int64(time.Hour) - 1

// Parse reads "H:MM:SS.ff", "M:SS.ff" or "H:MM:SS". Strings with fewer than
// three colon-separated components are left-padded with "0:" first. Hours
// are bounded only by time.Duration; minutes and seconds must be below 60. Fractions beyond
// nanosecond precision are truncated.
func Parse(s string) (time.Duration, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many components", ErrInvalidTime, raw)
	}
	for len(parts) < 3 {
		parts = append([]string{"0"}, parts...)
	}

	hours, ok := number(parts[0])
	if !ok || hours > maxHours {
		return 0, fmt.Errorf("%w: %q: bad hours", ErrInvalidTime, raw)
	}
	minutes, ok := number(parts[1])
	if !ok || minutes >= 60 {
		return 0, fmt.Errorf("%w: %q: bad minutes", ErrInvalidTime, raw)
	}

	secPart, fracPart, hasFrac := strings.Cut(parts[2], ".")
	seconds, ok := number(secPart)
	if !ok || seconds >= 60 {
		return 0, fmt.Errorf("%w: %q: bad seconds", ErrInvalidTime, raw)
	}
	var nanos int64
	if hasFrac {
		if fracPart == "" || !allDigits(fracPart) {
			return 0, fmt.Errorf("%w: %q: bad fraction", ErrInvalidTime, raw)
		}
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nanos, _ = strconv.ParseInt(fracPart, 10, 64)
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(nanos)
	return d, nil
}

// Format renders d as "HH:MM:SS.ff". Hours are total hours and may exceed 24.
// Hundredths are truncated, never rounded.
func Format(d time.Duration) string {
	if d < 0 {
		return "-" + Format(-d)
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	sec := (d % time.Minute) / time.Second
	cs := (d % time.Second) / (10 * time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, sec, cs)
}

func number(s string) (int64, bool) {
	if s == "" || !allDigits(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
