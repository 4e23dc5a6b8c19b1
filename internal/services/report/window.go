package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/task"
)

type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
)

// WeekStart is the first day of a weekly report window.
const WeekStart = time.Sunday

func ParseReportType(raw string) (ReportType, error) {
	switch t := ReportType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ReportDaily, ReportWeekly, ReportMonthly:
		return t, nil
	}
	return "", fmt.Errorf("invalid report type %q: %w", raw, perrors.ErrValidationFailed)
}

// ParseReferenceDate accepts an ISO-8601 instant or a bare calendar date and returns it in UTC.
func ParseReferenceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required: %w", perrors.ErrValidationFailed)
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, perrors.ErrValidationFailed)
}

// Window returns the UTC calendar range of the report type that contains ref.
func Window(rt ReportType, ref time.Time) (task.TimeRange, error) {
	ref = ref.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	var start, next time.Time
	switch rt {
	case ReportDaily:
		start = day
		next = start.AddDate(0, 0, 1)
	case ReportWeekly:
		offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
		start = day.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case ReportMonthly:
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(0, 1, 0)
	default:
		return task.TimeRange{}, fmt.Errorf("invalid report type %q: %w", rt, perrors.ErrValidationFailed)
	}

	return task.TimeRange{Start: start, End: next.Add(-time.Millisecond)}, nil
}

// Trailing returns the range covering the last d up to now.
func Trailing(now time.Time, d time.Duration) task.TimeRange {
	return task.TimeRange{Start: now.Add(-d), End: now}
}
