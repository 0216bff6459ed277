package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceMonthThirtyOneDays(t *testing.T) {
	spans := SliceMonth(2026, 3)
	require.Len(t, spans, 5)

	assert.Equal(t, []int{7, 7, 7, 7, 3}, dayCounts(spans))
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), spans[0].StartDate)
	assert.Equal(t, time.Date(2026, time.March, 29, 0, 0, 0, 0, time.UTC), spans[4].StartDate)
	assert.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), spans[4].EndDate)

	for i, span := range spans {
		assert.Equal(t, i+1, span.Seq)
	}
}

func TestSliceMonthExactWeeks(t *testing.T) {
	spans := SliceMonth(2026, 2) // 28 days
	require.Len(t, spans, 4)
	assert.Equal(t, []int{7, 7, 7, 7}, dayCounts(spans))
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), spans[3].EndDate)
}

func TestSliceMonthLeapFebruary(t *testing.T) {
	spans := SliceMonth(2028, 2) // 29 days
	require.Len(t, spans, 5)
	assert.Equal(t, []int{7, 7, 7, 7, 1}, dayCounts(spans))
}

func TestSliceMonthContiguous(t *testing.T) {
	spans := SliceMonth(2026, 7)
	for i := 1; i < len(spans); i++ {
		assert.Equal(t, spans[i-1].EndDate.AddDate(0, 0, 1), spans[i].StartDate)
	}
}

func dayCounts(spans []WeekSpan) []int {
	counts := make([]int, 0, len(spans))
	for _, span := range spans {
		counts = append(counts, span.DayCount)
	}
	return counts
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to PeriodStatus
		ok       bool
	}{
		{PeriodStatusDraft, PeriodStatusPublished, true},
		{PeriodStatusDraft, PeriodStatusLocked, false},
		{PeriodStatusDraft, PeriodStatusArchived, false},
		{PeriodStatusPublished, PeriodStatusDraft, true},
		{PeriodStatusPublished, PeriodStatusLocked, true},
		{PeriodStatusPublished, PeriodStatusArchived, false},
		{PeriodStatusLocked, PeriodStatusArchived, true},
		{PeriodStatusLocked, PeriodStatusDraft, false},
		{PeriodStatusLocked, PeriodStatusPublished, false},
		{PeriodStatusArchived, PeriodStatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEditable(t *testing.T) {
	assert.True(t, PeriodStatusDraft.Editable())
	assert.True(t, PeriodStatusPublished.Editable())
	assert.False(t, PeriodStatusLocked.Editable())
	assert.False(t, PeriodStatusArchived.Editable())
}
