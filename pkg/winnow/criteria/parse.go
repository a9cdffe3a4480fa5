package criteria

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the operator-facing date format. Dates are interpreted at
// local midnight, matching how filesystem timestamps are displayed to the
// operator.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in the local time zone.
// The returned time is midnight at the start of that day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q (want YYYY-MM-DD)", ErrBadWindow, s)
	}
	return t, nil
}

// SplitPatterns splits a comma- or semicolon-separated pattern list,
// trimming whitespace and dropping empty entries. An empty input yields nil.
func SplitPatterns(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
