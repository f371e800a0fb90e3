package validation

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

// Date layouts accepted across the application. Form date fields submit ISO
// dates while persisted records historically carry the localized form; every
// comparison must go through ParseDate so both land on the same value.
const (
	layoutISO       = "2006-01-02"
	layoutLocalized = "02/01/2006"
)

// ParseDate canonicalizes a date string in either `YYYY-MM-DD` or
// `DD/MM/YYYY` form to a date-only UTC value.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidInput, "date is required")
	}

	layout := layoutISO
	if strings.Contains(trimmed, "/") {
		layout = layoutLocalized
	}

	parsed, err := time.Parse(layout, trimmed)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, fmt.Sprintf("unparseable date %q", raw))
	}

	return Canonical(parsed), nil
}

// Canonical truncates a timestamp to a date-only UTC value so dates parsed
// from different sources compare equal.
func Canonical(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseInterval canonicalizes a start/end pair.
func ParseInterval(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// intersects reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one day. Touching endpoints count.
func intersects(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// within reports inclusive containment of [start, end] in [lo, hi].
func within(start, end, lo, hi time.Time) bool {
	return !start.Before(lo) && !end.After(hi)
}
