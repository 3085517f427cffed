package tempo

import (
	"fmt"
	"strings"
)

// Spec is the loosely-typed rule input: a mapping from date-part name to an
// ordered list of raw field specifiers. Each specifier is one of:
//
//   - an integer: match exactly that value
//   - a collection of integers ([]int or []any): match any member
//   - "N-M": match N through M inclusive (N < M)
//   - "*": match every value
//   - "/N": match multiples of N
//   - "S/N": match S, S+N, S+2N, ... (S may be negative)
//
// Recognized date-part names: "day-of-month", "month", "weekday",
// "day-of-year", "week-of-year", "hour", "minute" and "second".
type Spec map[string][]any

var partsByName = func() map[string]DatePart {
	m := make(map[string]DatePart, len(datePartNames))
	for p, name := range datePartNames {
		m[name] = p
	}
	return m
}()

// Rule is an AND-of-ORs collection of fields across all date-parts. A
// timestamp's date satisfies the rule iff every date part has at least one
// matching field; the hour, minute and second fields act as generators for
// the time-of-day candidate sets instead. Rules are immutable once built.
//
// Rule implements Schedule, so it can be handed to a Scheduler directly.
type Rule struct {
	fields  map[DatePart][]Field
	horizon int // lookahead in days; 0 means defaultHorizonDays
}

// defaultRule returns the fields every rule starts from: unconstrained date
// parts and midnight for the time of day.
func defaultRule() map[DatePart][]Field {
	m := make(map[DatePart][]Field, len(domains))
	for _, p := range dateParts {
		m[p] = []Field{starField{}}
	}
	for _, p := range timeParts {
		m[p] = []Field{exactField{0}}
	}
	return m
}

// NewRule builds a rule by merging spec over the default rule. Date-parts
// missing from spec keep their default (star, or exactly 0 for hour, minute
// and second); date-parts present in spec replace the default entirely.
// Construction is all-or-nothing: the first invalid specifier aborts with an
// error naming the date-part and the offending value.
//
// NewRule(nil) yields the default rule: daily at 00:00:00.
func NewRule(spec Spec) (*Rule, error) {
	fields := defaultRule()
	for name, raws := range spec {
		part, ok := partsByName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("rule: unknown date-part %q", name)
		}
		if len(raws) == 0 {
			return nil, fmt.Errorf("rule: %s: empty field list", part)
		}
		parsed := make([]Field, 0, len(raws))
		for _, raw := range raws {
			f, err := parseField(raw)
			if err != nil {
				return nil, fmt.Errorf("rule: %s: %w", part, err)
			}
			parsed = append(parsed, f)
		}
		fields[part] = parsed
	}
	for part, fs := range fields {
		for _, f := range fs {
			if err := f.validate(domains[part]); err != nil {
				return nil, fmt.Errorf("rule: %s: field %s: %w", part, f, err)
			}
		}
	}
	return &Rule{fields: fields}, nil
}

// MustRule is like NewRule but panics on error. Intended for specs that are
// hardcoded constants, where an invalid spec is a bug.
func MustRule(spec Spec) *Rule {
	r, err := NewRule(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// ValidateSpec reports whether spec would construct successfully, without
// keeping the rule. It returns nil if the spec is valid.
func ValidateSpec(spec Spec) error {
	_, err := NewRule(spec)
	return err
}

// String renders the rule's non-default fields for logging and debugging.
func (r *Rule) String() string {
	var sb strings.Builder
	sb.WriteString("rule{")
	first := true
	for _, p := range append(append([]DatePart(nil), dateParts...), timeParts...) {
		parts := make([]string, 0, len(r.fields[p]))
		for _, f := range r.fields[p] {
			parts = append(parts, f.String())
		}
		if !first {
			sb.WriteString(" ")
		}
		first = false
		fmt.Fprintf(&sb, "%s:%s", p, strings.Join(parts, "|"))
	}
	sb.WriteString("}")
	return sb.String()
}
