package timeseries

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var freqAliases = map[string]time.Duration{
	"W": 7 * 24 * time.Hour, "w": 7 * 24 * time.Hour,
	"D": 24 * time.Hour, "d": 24 * time.Hour,
	"H": time.Hour, "h": time.Hour,
	"T": time.Minute, "min": time.Minute,
	"S": time.Second, "s": time.Second,
	"L": time.Millisecond, "ms": time.Millisecond,
	"U": time.Microsecond, "us": time.Microsecond,
	"N": time.Nanosecond, "ns": time.Nanosecond,
}

var freqPattern = regexp.MustCompile(`^(\d*)\s*([A-Za-z]+)$`)

// ParseFreq accepts pandas style offsets ("1s", "10min", "1D", "W") as well as
// anything time.ParseDuration understands ("1h30m", "250ms").
func ParseFreq(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if m := freqPattern.FindStringSubmatch(trimmed); m != nil {
		if unit, ok := freqAliases[m[2]]; ok {
			n := int64(1)
			if m[1] != "" {
				var err error
				if n, err = strconv.ParseInt(m[1], 10, 64); err != nil {
					if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
						return 0, fmt.Errorf("frequency %q overflows %s", s, time.Duration(math.MaxInt64))
					}
					return 0, fmt.Errorf("invalid frequency %q: %v", s, err)
				}
			}
			if n > math.MaxInt64/int64(unit) {
				return 0, fmt.Errorf("frequency %q overflows %s", s, time.Duration(math.MaxInt64))
			}
			return positive(s, time.Duration(n)*unit)
		}
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	return positive(s, d)
}

func positive(s string, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("frequency %q must be positive", s)
	}
	return d, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a start timestamp such as "2000-01-01". Times without
// a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
