package tempo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DatePart identifies one discrete component of a calendar or time-of-day
// value that fields are matched against.
type DatePart int

// The date-parts, in the order they are evaluated. Weekdays are numbered
// 1=Sunday through 7=Saturday.
const (
	DayOfMonth DatePart = iota
	Month
	Weekday
	DayOfYear
	WeekOfYear
	Hour
	Minute
	Second
)

var datePartNames = map[DatePart]string{
	DayOfMonth: "day-of-month",
	Month:      "month",
	Weekday:    "weekday",
	DayOfYear:  "day-of-year",
	WeekOfYear: "week-of-year",
	Hour:       "hour",
	Minute:     "minute",
	Second:     "second",
}

// String returns the canonical spelling of the date-part, as used for Spec keys.
func (p DatePart) String() string {
	if name, ok := datePartNames[p]; ok {
		return name
	}
	return "date-part(" + strconv.Itoa(int(p)) + ")"
}

// dateParts lists the five parts a day must satisfy; timeParts generate the
// time-of-day candidate sets instead of being matched.
var (
	dateParts = []DatePart{DayOfMonth, Month, Weekday, DayOfYear, WeekOfYear}
	timeParts = []DatePart{Hour, Minute, Second}
)

// bounds is the numeric domain of one date-part. A negative max means the
// part has no upper bound (day-of-month, day-of-year and week-of-year are
// only required to be positive).
type bounds struct {
	min, max int
}

func (b bounds) contains(v int) bool {
	return v >= b.min && (b.max < 0 || v <= b.max)
}

var domains = map[DatePart]bounds{
	DayOfMonth: {1, -1},
	Month:      {1, 12},
	Weekday:    {1, 7},
	DayOfYear:  {1, -1},
	WeekOfYear: {1, -1},
	Hour:       {0, 23},
	Minute:     {0, 59},
	Second:     {0, 59},
}

// Field is a single typed predicate/generator over one date-part's values.
// It is one of six variants: exact value, alternation, range, star,
// repetition, or shifted repetition. Fields are immutable once parsed.
type Field interface {
	// matches reports whether the date-part value v satisfies the field.
	matches(v int) bool
	// values generates the field's candidate set within the domain,
	// ascending. Only called for bounded domains (hour, minute, second).
	values(b bounds) []int
	// validate checks the field against the date-part's domain.
	validate(b bounds) error

	fmt.Stringer
}

// exactField matches a single value.
type exactField struct {
	n int
}

func (f exactField) matches(v int) bool { return v == f.n }

func (f exactField) values(bounds) []int { return []int{f.n} }

func (f exactField) validate(b bounds) error {
	if !b.contains(f.n) {
		return fmt.Errorf("value %d outside domain %s", f.n, b)
	}
	return nil
}

func (f exactField) String() string { return strconv.Itoa(f.n) }

// altField matches any member of a set. The set is kept sorted and
// deduplicated.
type altField struct {
	set []int
}

func newAltField(vs []int) altField {
	sorted := append([]int(nil), vs...)
	sort.Ints(sorted)
	dedup := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			dedup = append(dedup, v)
		}
	}
	return altField{set: dedup}
}

func (f altField) matches(v int) bool {
	for _, n := range f.set {
		if n == v {
			return true
		}
	}
	return false
}

func (f altField) values(bounds) []int { return f.set }

func (f altField) validate(b bounds) error {
	if len(f.set) == 0 {
		return fmt.Errorf("empty alternation")
	}
	for _, n := range f.set {
		if !b.contains(n) {
			return fmt.Errorf("value %d outside domain %s", n, b)
		}
	}
	return nil
}

func (f altField) String() string {
	parts := make([]string, len(f.set))
	for i, n := range f.set {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// rangeField matches from <= v <= to. Generation covers [from, to), the
// half-open interval.
type rangeField struct {
	from, to int
}

func (f rangeField) matches(v int) bool { return v >= f.from && v <= f.to }

func (f rangeField) values(b bounds) []int {
	var vs []int
	for v := f.from; v < f.to; v++ {
		if b.contains(v) {
			vs = append(vs, v)
		}
	}
	return vs
}

func (f rangeField) validate(b bounds) error {
	if !b.contains(f.from) {
		return fmt.Errorf("range start %d outside domain %s", f.from, b)
	}
	if b.max >= 0 && f.to > b.max {
		return fmt.Errorf("range end %d outside domain %s", f.to, b)
	}
	return nil
}

func (f rangeField) String() string {
	return strconv.Itoa(f.from) + "-" + strconv.Itoa(f.to)
}

// starField matches every value of the domain.
type starField struct{}

func (starField) matches(int) bool { return true }

func (starField) values(b bounds) []int {
	if b.max < 0 {
		return nil
	}
	vs := make([]int, 0, b.max-b.min+1)
	for v := b.min; v <= b.max; v++ {
		vs = append(vs, v)
	}
	return vs
}

func (starField) validate(bounds) error { return nil }

func (starField) String() string { return "*" }

// repField matches multiples of rep.
type repField struct {
	rep int
}

func (f repField) matches(v int) bool { return v%f.rep == 0 }

func (f repField) values(b bounds) []int {
	var vs []int
	start := b.min
	if r := start % f.rep; r != 0 {
		start += f.rep - r
	}
	for v := start; v <= b.max; v += f.rep {
		vs = append(vs, v)
	}
	return vs
}

func (f repField) validate(bounds) error {
	if f.rep <= 0 {
		return fmt.Errorf("repetition %d must be positive", f.rep)
	}
	return nil
}

func (f repField) String() string { return "/" + strconv.Itoa(f.rep) }

// shiftedRepField matches v >= shift where (v-shift) is a multiple of rep.
// The shift may be negative.
type shiftedRepField struct {
	shift, rep int
}

func (f shiftedRepField) matches(v int) bool {
	return v >= f.shift && (v-f.shift)%f.rep == 0
}

func (f shiftedRepField) values(b bounds) []int {
	var vs []int
	v := f.shift
	if v < b.min {
		// Advance into the domain in whole steps.
		steps := (b.min - v + f.rep - 1) / f.rep
		v += steps * f.rep
	}
	for ; v <= b.max; v += f.rep {
		vs = append(vs, v)
	}
	return vs
}

func (f shiftedRepField) validate(b bounds) error {
	if f.rep <= 0 {
		return fmt.Errorf("repetition %d must be positive", f.rep)
	}
	if b.max >= 0 && f.shift > b.max {
		return fmt.Errorf("shift %d outside domain %s", f.shift, b)
	}
	return nil
}

func (f shiftedRepField) String() string {
	return strconv.Itoa(f.shift) + "/" + strconv.Itoa(f.rep)
}

func (b bounds) String() string {
	if b.max < 0 {
		return fmt.Sprintf("[%d,∞)", b.min)
	}
	return fmt.Sprintf("[%d,%d]", b.min, b.max)
}

// parseField classifies a raw specifier into one of the six field variants:
// an integer is an exact match, a collection of integers an alternation,
// "N-M" a range (N < M), "*" a star, "/N" a repetition, and "S/N" a shifted
// repetition where S may be negative.
func parseField(raw any) (Field, error) {
	switch v := raw.(type) {
	case int:
		return exactField{v}, nil
	case int8:
		return exactField{int(v)}, nil
	case int16:
		return exactField{int(v)}, nil
	case int32:
		return exactField{int(v)}, nil
	case int64:
		return exactField{int(v)}, nil
	case uint:
		return exactField{int(v)}, nil
	case uint8:
		return exactField{int(v)}, nil
	case uint16:
		return exactField{int(v)}, nil
	case uint32:
		return exactField{int(v)}, nil
	case uint64:
		return exactField{int(v)}, nil
	case float64:
		// JSON decodes every number to float64; accept whole values only.
		if v != float64(int(v)) {
			return nil, fmt.Errorf("illegal field %v: not a whole number", v)
		}
		return exactField{int(v)}, nil
	case []int:
		return newAltField(v), nil
	case []any:
		set := make([]int, 0, len(v))
		for _, m := range v {
			f, err := parseField(m)
			if err != nil {
				return nil, fmt.Errorf("illegal field %v: %w", raw, err)
			}
			e, ok := f.(exactField)
			if !ok {
				return nil, fmt.Errorf("illegal field %v: alternation members must be integers", raw)
			}
			set = append(set, e.n)
		}
		return newAltField(set), nil
	case string:
		return parseStringField(v)
	case Field:
		return v, nil
	default:
		return nil, fmt.Errorf("illegal field %v (%T)", raw, raw)
	}
}

func parseStringField(s string) (Field, error) {
	if s == "*" {
		return starField{}, nil
	}
	if rest, ok := strings.CutPrefix(s, "/"); ok {
		rep, err := strconv.Atoi(rest)
		if err != nil || rep <= 0 {
			return nil, fmt.Errorf("illegal field %q: repetition must be a positive integer", s)
		}
		return repField{rep}, nil
	}
	if shift, rest, ok := strings.Cut(s, "/"); ok {
		sh, err := strconv.Atoi(shift)
		if err != nil {
			return nil, fmt.Errorf("illegal field %q: bad shift", s)
		}
		rep, err := strconv.Atoi(rest)
		if err != nil || rep <= 0 {
			return nil, fmt.Errorf("illegal field %q: repetition must be a positive integer", s)
		}
		return shiftedRepField{shift: sh, rep: rep}, nil
	}
	if from, to, ok := strings.Cut(s, "-"); ok && from != "" {
		lo, err := strconv.Atoi(from)
		if err != nil || lo < 0 {
			return nil, fmt.Errorf("illegal field %q: bad range start", s)
		}
		hi, err := strconv.Atoi(to)
		if err != nil || hi < 0 {
			return nil, fmt.Errorf("illegal field %q: bad range end", s)
		}
		if lo >= hi {
			return nil, fmt.Errorf("illegal field %q: range start %d must be below end %d", s, lo, hi)
		}
		return rangeField{from: lo, to: hi}, nil
	}
	return nil, fmt.Errorf("illegal field %q", s)
}
