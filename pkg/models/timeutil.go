package models

import (
	"fmt"
	"strings"
	"time"
)

// ParseUTC parses a datetime string at a storage boundary and normalizes it
// to a UTC-aware time.Time. It accepts the standard "...Z" and "...+00:00"
// RFC3339 suffixes, plus the degenerate "...+00:00Z" tail produced by some
// upstream clients that append Z after an explicit offset.
func ParseUTC(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "+00:00Z") {
		s = strings.TrimSuffix(s, "Z")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// FormatUTC renders t as a "Z"-suffixed RFC3339 string, always in UTC.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
