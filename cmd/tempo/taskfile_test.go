package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempo-sched/tempo"
)

func writeTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTaskFile(t *testing.T) {
	path := writeTaskFile(t, `
tasks:
  - name: report
    cron: "30 9 * * mon-fri"
    command: ./report.sh
  - name: cleanup
    rule:
      day-of-month: ["/8"]
      hour: [3]
  - name: ping
    every: 30s
`)
	tf, err := loadTaskFile(path)
	require.NoError(t, err)
	require.Len(t, tf.Tasks, 3)

	for _, d := range tf.Tasks {
		schedule, err := d.schedule()
		require.NoError(t, err, "task %q", d.Name)
		next := schedule.Next(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
		assert.False(t, next.IsZero(), "task %q", d.Name)
	}
}

func TestLoadTaskFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "tasks:\n  - cron: \"* * * * *\"\n"},
		{"duplicate name", "tasks:\n  - name: a\n    every: 5s\n  - name: a\n    every: 5s\n"},
		{"no schedule", "tasks:\n  - name: a\n"},
		{"two schedules", "tasks:\n  - name: a\n    every: 5s\n    cron: \"* * * * *\"\n"},
		{"bad cron", "tasks:\n  - name: a\n    cron: \"bogus\"\n"},
		{"bad duration", "tasks:\n  - name: a\n    every: fast\n"},
		{"sub-second duration", "tasks:\n  - name: a\n    every: 100ms\n"},
		{"bad rule", "tasks:\n  - name: a\n    rule:\n      month: [13]\n"},
		{"not yaml", "{{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTaskFile(t, tt.content)
			_, err := loadTaskFile(path)
			assert.Error(t, err)
		})
	}
}

func TestTaskDefRuleSpec(t *testing.T) {
	d := taskDef{
		Name: "x",
		Rule: map[string][]any{"hour": {9}, "weekday": {"2-6"}},
	}
	schedule, err := d.schedule()
	require.NoError(t, err)

	next := schedule.Next(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC), next)
}

func TestSameSchedule(t *testing.T) {
	a := taskDef{Name: "x", Cron: "* * * * *"}
	b := taskDef{Name: "x", Cron: "* * * * *", Command: "changed"}
	assert.True(t, sameSchedule(a, b), "command changes do not touch the schedule")

	c := taskDef{Name: "x", Cron: "*/5 * * * *"}
	assert.False(t, sameSchedule(a, c))

	r1 := taskDef{Rule: map[string][]any{"hour": {9}}}
	r2 := taskDef{Rule: map[string][]any{"hour": {17}}}
	assert.False(t, sameSchedule(r1, r2))
	assert.True(t, sameSchedule(r1, r1))
}

func TestReconcile(t *testing.T) {
	log := newLogger()
	sched := tempo.NewScheduler(tempo.WithLogger(tempo.DiscardLogger))

	defs := map[string]taskDef{}
	first := &taskFile{Tasks: []taskDef{
		{Name: "a", Every: "1h"},
		{Name: "b", Every: "1h"},
	}}
	reconcile(sched, log, defs, first)
	assert.Equal(t, tempo.StatusRunning, sched.Status("a"))
	assert.Equal(t, tempo.StatusRunning, sched.Status("b"))

	second := &taskFile{Tasks: []taskDef{
		{Name: "b", Every: "30m"},
		{Name: "c", Every: "1h"},
	}}
	reconcile(sched, log, defs, second)
	assert.Equal(t, tempo.StatusAbsent, sched.Status("a"))
	assert.Equal(t, tempo.StatusRunning, sched.Status("c"))
	require.Eventually(t, func() bool {
		return sched.Status("b") == tempo.StatusRunning
	}, time.Second, time.Millisecond)

	sched.StopAll()
}
