package tempo

import (
	"fmt"
	"strconv"
	"strings"
)

// cronWeekdays maps the crontab weekday abbreviations onto the 1=Sunday
// through 7=Saturday domain used by the rule grammar.
var cronWeekdays = map[string]int{
	"sun": 1,
	"mon": 2,
	"tue": 3,
	"wed": 4,
	"thu": 5,
	"fri": 6,
	"sat": 7,
}

// cronFieldOrder is the crontab field order, mapped to date-part names.
var cronFieldOrder = []string{"minute", "hour", "day-of-month", "month", "weekday"}

// ParseCron translates a 5-field crontab expression (minute, hour,
// day-of-month, month, weekday) into a Spec for NewRule. Exactly five
// space-separated fields are required.
//
// The weekday field accepts case-insensitive three-letter names SUN-SAT and
// name ranges like MON-FRI; numeric weekdays 0-6 (or 7 for Sunday) are
// shifted into the Sunday-first 1-7 domain.
func ParseCron(expr string) (Spec, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected exactly 5 fields, found %d: %q", len(fields), expr)
	}
	spec := make(Spec, len(cronFieldOrder))
	for i, name := range cronFieldOrder {
		var (
			raws []any
			err  error
		)
		if name == "weekday" {
			raws, err = cronWeekdayField(fields[i])
		} else {
			raws, err = cronField(fields[i])
		}
		if err != nil {
			return nil, fmt.Errorf("cron: %s: %w", name, err)
		}
		spec[name] = raws
	}
	return spec, nil
}

// CronRule is a convenience combining ParseCron and NewRule.
func CronRule(expr string) (*Rule, error) {
	spec, err := ParseCron(expr)
	if err != nil {
		return nil, err
	}
	return NewRule(spec)
}

// cronField translates one non-weekday crontab field into raw rule
// specifiers. Comma-separated items are kept as separate specifiers; the
// rule grammar ORs them within the date-part.
func cronField(s string) ([]any, error) {
	items := strings.Split(s, ",")
	raws := make([]any, 0, len(items))
	for _, item := range items {
		raw, err := cronItem(item)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func cronItem(item string) (any, error) {
	switch {
	case item == "*":
		return "*", nil
	case strings.HasPrefix(item, "*/"):
		return "/" + item[2:], nil
	case strings.Contains(item, "/"):
		// "A/B" steps from A; the rule grammar spells this "A/B" too.
		return item, nil
	case strings.Contains(item, "-"):
		return item, nil
	default:
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("bad value %q", item)
		}
		return n, nil
	}
}

// cronWeekdayField translates the crontab weekday field, converting names
// and shifting the 0-6 crontab numbering to the 1-7 Sunday-first domain.
func cronWeekdayField(s string) ([]any, error) {
	items := strings.Split(s, ",")
	raws := make([]any, 0, len(items))
	for _, item := range items {
		raw, err := cronWeekdayItem(item)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func cronWeekdayItem(item string) (any, error) {
	switch {
	case item == "*":
		return "*", nil
	case strings.HasPrefix(item, "*/"):
		// crontab steps start at Sunday(0); ours start at Sunday(1).
		return "1/" + item[2:], nil
	case strings.Contains(item, "/"):
		start, step, _ := strings.Cut(item, "/")
		d, err := weekdayNumber(start)
		if err != nil {
			return nil, err
		}
		return strconv.Itoa(d) + "/" + step, nil
	case strings.Contains(item, "-"):
		from, to, _ := strings.Cut(item, "-")
		lo, err := weekdayNumber(from)
		if err != nil {
			return nil, err
		}
		hi, err := weekdayNumber(to)
		if err != nil {
			return nil, err
		}
		if lo >= hi {
			return nil, fmt.Errorf("bad weekday range %q", item)
		}
		// The rule grammar's ranges generate [from,to) but match through
		// to inclusively, which is what a weekday range needs.
		return strconv.Itoa(lo) + "-" + strconv.Itoa(hi), nil
	default:
		d, err := weekdayNumber(item)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// weekdayNumber resolves a weekday name or crontab number to the 1-7 domain.
func weekdayNumber(s string) (int, error) {
	if d, ok := cronWeekdays[strings.ToLower(s)]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad weekday %q", s)
	}
	switch {
	case n == 7: // crontab allows 7 for Sunday
		return 1, nil
	case n >= 0 && n <= 6:
		return n + 1, nil
	default:
		return 0, fmt.Errorf("weekday %d out of range", n)
	}
}
