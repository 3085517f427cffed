package tempo

import (
	"iter"
	"sort"
	"time"
)

// defaultHorizonDays bounds the day-level scan two years ahead. No closed
// form exists for "next match" under arbitrary OR/AND field combinations, so
// the simulator walks calendar days within a finite window and gives up with
// the zero time beyond it.
const defaultHorizonDays = 731

// WithHorizon returns a copy of the rule that scans up to days calendar days
// ahead when computing the next activation. Values below the two-year
// minimum are raised to it.
func (r *Rule) WithHorizon(days int) *Rule {
	if days < defaultHorizonDays {
		days = defaultHorizonDays
	}
	return &Rule{fields: r.fields, horizon: days}
}

func (r *Rule) horizonDays() int {
	if r.horizon > 0 {
		return r.horizon
	}
	return defaultHorizonDays
}

// datePartValues extracts the five date-part values of t. Weekdays are
// numbered 1=Sunday through 7=Saturday; week-of-year is the 1-based
// seven-day block counted from January 1st.
func datePartValues(t time.Time) map[DatePart]int {
	return map[DatePart]int{
		DayOfMonth: t.Day(),
		Month:      int(t.Month()),
		Weekday:    int(t.Weekday()) + 1,
		DayOfYear:  t.YearDay(),
		WeekOfYear: (t.YearDay()-1)/7 + 1,
	}
}

// dateMatches reports whether the date portion of t satisfies the rule: for
// every date part, at least one of its fields must match (OR within a part,
// AND across parts).
func (r *Rule) dateMatches(t time.Time) bool {
	vals := datePartValues(t)
	for _, p := range dateParts {
		if !anyFieldMatches(r.fields[p], vals[p]) {
			return false
		}
	}
	return true
}

func anyFieldMatches(fs []Field, v int) bool {
	for _, f := range fs {
		if f.matches(v) {
			return true
		}
	}
	return false
}

// timeCandidates returns the deduplicated ascending union of every field's
// candidate set for the given time part.
func (r *Rule) timeCandidates(p DatePart) []int {
	b := domains[p]
	var vs []int
	for _, f := range r.fields[p] {
		vs = append(vs, f.values(b)...)
	}
	sort.Ints(vs)
	dedup := vs[:0]
	for i, v := range vs {
		if i == 0 || v != vs[i-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup
}

// Next returns the next time the rule activates, strictly after the given
// time, in that time's location. It walks calendar days forward from the
// start of t's day; for each day whose date parts all match, the full
// time-of-day cross product (hour outer, minute middle, second inner) is
// tried in ascending order. If no activation exists within the horizon,
// Next returns the zero time.
func (r *Rule) Next(t time.Time) time.Time {
	hours := r.timeCandidates(Hour)
	minutes := r.timeCandidates(Minute)
	seconds := r.timeCandidates(Second)
	if len(hours) == 0 || len(minutes) == 0 || len(seconds) == 0 {
		return time.Time{}
	}

	loc := t.Location()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	horizon := day.AddDate(0, 0, r.horizonDays())
	for ; day.Before(horizon); day = day.AddDate(0, 0, 1) {
		if !r.dateMatches(day) {
			continue
		}
		for _, h := range hours {
			for _, m := range minutes {
				for _, s := range seconds {
					at := time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, loc)
					if at.After(t) {
						return at
					}
				}
			}
		}
	}
	return time.Time{}
}

// Occurrences returns a lazy, strictly ascending sequence of every
// activation after from, up to the rule's horizon.
func (r *Rule) Occurrences(from time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		t := from
		for {
			t = r.Next(t)
			if t.IsZero() || !yield(t) {
				return
			}
		}
	}
}

// Simulate returns the first n activations strictly after now, ascending.
// The result may be shorter than n when the rule is sparse enough to exhaust
// the horizon; callers must tolerate that.
func (r *Rule) Simulate(now time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	for t := range r.Occurrences(now) {
		times = append(times, t)
		if len(times) >= n {
			break
		}
	}
	return times
}

// NextN returns the next n activation times for any schedule, starting after
// t. Useful for previews and for checking two schedules for equivalence.
// Returns nil if schedule is nil or n <= 0.
func NextN(schedule Schedule, t time.Time, n int) []time.Time {
	if schedule == nil || n <= 0 {
		return nil
	}
	times := make([]time.Time, 0, n)
	current := t
	for range n {
		next := schedule.Next(current)
		if next.IsZero() {
			break
		}
		times = append(times, next)
		current = next
	}
	return times
}

// Between returns all activation times in the range [start, end). The end
// time is exclusive. Returns nil if schedule is nil or the range is empty.
func Between(schedule Schedule, start, end time.Time) []time.Time {
	if schedule == nil || !start.Before(end) {
		return nil
	}
	var times []time.Time
	current := start
	for {
		next := schedule.Next(current)
		if next.IsZero() || !next.Before(end) {
			return times
		}
		times = append(times, next)
		current = next
	}
}
