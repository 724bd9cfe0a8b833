package api

import (
	"time"

	"github.com/MrJamesThe3rd/ajo/internal/errs"
)

// ParseDate reads an optional YYYY-MM-DD value as a UTC day. An empty value
// yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errs.Invalid("invalid date %q", s)
	}

	return t, nil
}
