/*
Package tempo implements a declarative time-matching rule grammar, a bounded
occurrence simulator, and a named-task scheduling runtime.

# Installation

To download the package, run:

	go get github.com/tempo-sched/tempo

Import it in your program as:

	import "github.com/tempo-sched/tempo"

It requires Go 1.24 or later.

# Rules

A Rule is built from a Spec, a map from date-part names to lists of field
specifiers. Specifiers within one date-part are alternatives (OR); distinct
date-parts must all match (AND). Omitted date-parts default to wildcards and
omitted time-parts default to zero, so an empty Spec means midnight every day.

	r, err := tempo.NewRule(tempo.Spec{
		"month":        {11, 12, "1-2"},
		"day-of-month": {3, "/8", "15/10"},
		"hour":         {9, 17},
	})

Field specifiers may be ints, []int, other Fields, or strings in the grammar
"*" (wildcard), "from-to" (range), "/rep" (every rep-th value), and
"shift/rep" (every rep-th value starting at shift).

Date-parts are day-of-month, month, weekday (1 = Sunday through
7 = Saturday), day-of-year and week-of-year; time-parts are hour, minute and
second.

# Simulation

Rule implements the Schedule interface: Next returns the first matching
instant strictly after a given time, or the zero time when none exists within
the rule's horizon. Simulate collects the next n occurrences, and Occurrences
yields them lazily:

	for t := range r.Occurrences(time.Now()) {
		fmt.Println(t)
	}

# Scheduling

A Scheduler is a registry of named tasks, each pairing a Schedule with a
TaskFunc. Starting a task arms a chain of executions; each activation is a
cancellable Trigger that races its timer against Stop.

	s := tempo.NewScheduler()
	s.Add("report", r, func(args ...any) []any {
		generate()
		return nil
	})
	s.Start("report")
	..
	s.Stop("report", func(args ...any) { fmt.Println("stopped") })

StartIterative feeds each execution's return value to the next execution as
its arguments. UpdateRule and UpdateFunc swap a task's schedule or function
in place; Restart applies them immediately.

# Cron Expressions

ParseCron translates standard 5-field crontab expressions into the rule
grammar:

	r, err := tempo.CronRule("30 3-6,20-23 * * MON-FRI")

# Time Sources

Schedulers read time through the Clock interface. Production code uses the
real clock; tests inject a FakeClock and drive it explicitly:

	clock := tempo.NewFakeClock(start)
	s := tempo.NewScheduler(tempo.WithClock(clock))
	..
	clock.Advance(time.Hour)
*/
package tempo
