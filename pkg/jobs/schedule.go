package jobs

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// NextRun computes the next run time for a schedule definition.
// Supported kinds:
//
//	interval  expr is a Go duration ("30m", "2h")
//	oneshot   expr is an RFC3339 timestamp; nil once it has passed
//	daily     expr is a wall-clock time "15:04"
//	weekly    expr is a weekday plus time "mon 15:04"
//
// The returned time is in UTC; expr times are interpreted in tz.
func NextRun(kind, expr, tz string, from time.Time) (*time.Time, error) {
	location := time.UTC
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		location = loc
	}
	localFrom := from.In(location)

	switch strings.ToLower(kind) {
	case "interval":
		d, err := time.ParseDuration(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid interval expression %q: %w", expr, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		utc := localFrom.Add(d).UTC()
		return &utc, nil

	case "oneshot":
		t, err := time.Parse(time.RFC3339, expr)
		if err != nil {
			return nil, fmt.Errorf("invalid oneshot expression %q: %w", expr, err)
		}
		if !t.After(from) {
			return nil, nil
		}
		utc := t.UTC()
		return &utc, nil

	case "daily":
		hour, minute, err := parseClock(expr)
		if err != nil {
			return nil, err
		}
		next := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), hour, minute, 0, 0, location)
		if !next.After(localFrom) {
			next = next.AddDate(0, 0, 1)
		}
		utc := next.UTC()
		return &utc, nil

	case "weekly":
		fields := strings.Fields(expr)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid weekly expression %q (want \"mon 15:04\")", expr)
		}
		day, ok := weekdays[strings.ToLower(fields[0])]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q", fields[0])
		}
		hour, minute, err := parseClock(fields[1])
		if err != nil {
			return nil, err
		}
		next := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), hour, minute, 0, 0, location)
		offset := (int(day) - int(next.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, offset)
		if !next.After(localFrom) {
			next = next.AddDate(0, 0, 7)
		}
		utc := next.UTC()
		return &utc, nil

	default:
		return nil, fmt.Errorf("unsupported schedule kind %q", kind)
	}
}

func parseClock(expr string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(expr))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (want \"15:04\"): %w", expr, err)
	}
	return t.Hour(), t.Minute(), nil
}
