package report

import (
	"testing"
	"time"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func TestWindow(t *testing.T) {
	ref := time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		rt    ReportType
		start time.Time
		end   time.Time
	}{
		{ReportDaily, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), endOfDay(2025, 6, 3)},
		{ReportWeekly, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), endOfDay(2025, 6, 7)},
		{ReportMonthly, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), endOfDay(2025, 6, 30)},
	}

	for _, tt := range tests {
		t.Run(string(tt.rt), func(t *testing.T) {
			w, err := Window(tt.rt, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
			assert.True(t, w.Contains(ref))
		})
	}
}

func TestWindowEdges(t *testing.T) {
	// A Sunday opens its own week.
	w, err := Window(ReportWeekly, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), w.Start)

	// Saturday night still belongs to the week that began the previous Sunday.
	w, err = Window(ReportWeekly, time.Date(2025, 6, 7, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), w.Start)

	w, err = Window(ReportMonthly, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, endOfDay(2024, 2, 29), w.End)

	w, err = Window(ReportMonthly, time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, endOfDay(2025, 12, 31), w.End)

	// References in other zones are placed by their UTC calendar day.
	east := time.FixedZone("UTC+9", 9*3600)
	w, err = Window(ReportDaily, time.Date(2025, 6, 4, 2, 0, 0, 0, east))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), w.Start)

	_, err = Window(ReportType("yearly"), time.Now())
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestParseReportType(t *testing.T) {
	rt, err := ParseReportType(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, ReportWeekly, rt)

	_, err = ParseReportType("summary")
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestParseReferenceDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-06-03", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"2025-06-03T15:00:00Z", time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)},
		{"2025-06-03T15:00:00.250Z", time.Date(2025, 6, 3, 15, 0, 0, int(250*time.Millisecond), time.UTC)},
		{"2025-06-03T17:00:00+02:00", time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)},
		{"2025-06-03T15:00:00", time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseReferenceDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, raw := range []string{"", "  ", "03/06/2025", "yesterday"} {
		_, err := ParseReferenceDate(raw)
		assert.ErrorIs(t, err, perrors.ErrValidationFailed, raw)
	}
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, CompletionRate(0, 0))
	assert.Equal(t, 75, CompletionRate(3, 4))
	assert.Equal(t, 67, CompletionRate(2, 3))
	assert.Equal(t, 33, CompletionRate(1, 3))
	assert.Equal(t, 100, CompletionRate(5, 5))
	assert.Equal(t, 0, Histogram{}.CompletionRate())
}

func TestTrailing(t *testing.T) {
	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)
	r := Trailing(now, 7*24*time.Hour)

	assert.True(t, r.Contains(now))
	assert.True(t, r.Contains(time.Date(2025, 5, 27, 15, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 5, 27, 14, 59, 0, 0, time.UTC)))
}
