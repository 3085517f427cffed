package tempo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronFieldCount(t *testing.T) {
	for _, expr := range []string{"", "* * * *", "* * * * * *", "30 9 * *"} {
		_, err := ParseCron(expr)
		assert.Error(t, err, "expr %q", expr)
		if err != nil {
			assert.Contains(t, err.Error(), "expected exactly 5 fields")
		}
	}
}

func TestParseCronTranslation(t *testing.T) {
	spec, err := ParseCron("30 9,17 */8 11,12 MON-FRI")
	require.NoError(t, err)

	assert.Equal(t, []any{30}, spec["minute"])
	assert.Equal(t, []any{9, 17}, spec["hour"])
	assert.Equal(t, []any{"/8"}, spec["day-of-month"])
	assert.Equal(t, []any{11, 12}, spec["month"])
	assert.Equal(t, []any{"2-6"}, spec["weekday"])
}

func TestCronWeekdayNumbers(t *testing.T) {
	tests := []struct {
		item string
		want any
	}{
		{"0", 1}, // crontab Sunday
		{"7", 1}, // crontab also allows 7 for Sunday
		{"3", 4},
		{"sat", 7},
		{"SUN", 1},
		{"*/2", "1/2"},
		{"1/2", "2/2"},
		{"mon-fri", "2-6"},
	}
	for _, tt := range tests {
		got, err := cronWeekdayItem(tt.item)
		require.NoError(t, err, "item %q", tt.item)
		assert.Equal(t, tt.want, got, "item %q", tt.item)
	}

	for _, item := range []string{"8", "-1", "blursday", "fri-mon", "mon-mon"} {
		_, err := cronWeekdayItem(item)
		assert.Error(t, err, "item %q", item)
	}
}

// A translated cron expression and the equivalent native rule must activate
// at exactly the same instants.
func TestCronRuleEquivalence(t *testing.T) {
	fromCron, err := CronRule("*/5 * * 11,12 MON-FRI")
	require.NoError(t, err)

	native := MustRule(Spec{
		"minute":  {"/5"},
		"hour":    {"*"},
		"month":   {11, 12},
		"weekday": {"2-6"},
	})

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, NextN(native, from, 50), NextN(fromCron, from, 50))
}

func TestCronRuleWeekdaySchedule(t *testing.T) {
	r, err := CronRule("30 9 * * mon-fri")
	require.NoError(t, err)

	// Jan 1 2025 is a Wednesday.
	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	times := NextN(r, from, 5)
	require.Len(t, times, 5)
	assert.Equal(t, time.Date(2025, time.January, 1, 9, 30, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2025, time.January, 3, 9, 30, 0, 0, time.UTC), times[2])
	// The weekend is skipped.
	assert.Equal(t, time.Date(2025, time.January, 6, 9, 30, 0, 0, time.UTC), times[3])
	for _, at := range times {
		wd := at.Weekday()
		assert.True(t, wd >= time.Monday && wd <= time.Friday, "%v", at)
	}
}

func TestCronBadValues(t *testing.T) {
	for _, expr := range []string{
		"x * * * *",
		"* * * * 8",
		"60 * * * *",
		"* 24 * * *",
	} {
		_, err := CronRule(expr)
		assert.Error(t, err, "expr %q", expr)
	}
}
