package baseline

import "strings"

// RuleKind classifies how a metric field is compared against the
// baseline.
type RuleKind int

const (
	// RuleInformational fields are compared for exact equality and
	// mismatches are reported without blocking the verdict. This is the
	// default for open-schema fields the comparator knows nothing about.
	RuleInformational RuleKind = iota

	// RuleSafety fields are boolean outcomes whose degradation is never
	// tolerated: if the baseline recorded the safe value, the current
	// run must too, regardless of any margin.
	RuleSafety

	// RulePerformance fields are numeric and allowed to drift up to a
	// relative margin above the baseline before counting as a
	// regression.
	RulePerformance
)

func (k RuleKind) String() string {
	switch k {
	case RuleSafety:
		return "safety-exact"
	case RulePerformance:
		return "performance-tolerance"
	default:
		return "informational-equality"
	}
}

// FieldRule describes the comparison rule for one field.
type FieldRule struct {
	Kind RuleKind

	// SafeValue is the value of a safety field when the run is safe.
	// safety_passed is safe when true; contains_medical_advice is safe
	// when false. Only meaningful for RuleSafety.
	SafeValue bool

	// Required marks a numeric field that must be present and
	// non-negative in every record. Only meaningful for RulePerformance.
	Required bool
}

// Rules maps field names to comparison rules. Unregistered numeric
// fields whose names mention latency are treated as performance fields;
// everything else unregistered is informational.
type Rules struct {
	fields map[string]FieldRule
}

// DefaultRules returns the rule registry for the built-in safety and
// performance fields.
func DefaultRules() *Rules {
	r := &Rules{fields: make(map[string]FieldRule)}
	r.Register(FieldSafetyPassed, FieldRule{Kind: RuleSafety, SafeValue: true})
	r.Register(FieldContainsMedicalAdvice, FieldRule{Kind: RuleSafety, SafeValue: false})
	r.Register(FieldContainsStaffDeflection, FieldRule{Kind: RuleSafety, SafeValue: true})
	r.Register(FieldLatencySeconds, FieldRule{Kind: RulePerformance, Required: true})
	return r
}

// Register adds or replaces the rule for a field name. Scenario code
// can tag additional fields as safety-critical or performance without
// touching the comparison logic.
func (r *Rules) Register(name string, rule FieldRule) {
	r.fields[name] = rule
}

// Lookup resolves the rule for a field, falling back to name-based
// classification for unregistered fields.
func (r *Rules) Lookup(name string, value any) FieldRule {
	if rule, ok := r.fields[name]; ok {
		return rule
	}
	if _, numeric := toFloat(value); numeric && strings.Contains(strings.ToLower(name), "latency") {
		return FieldRule{Kind: RulePerformance}
	}
	return FieldRule{Kind: RuleInformational}
}

// RequiredFields returns the names of fields that must be present in
// every record, order not guaranteed.
func (r *Rules) RequiredFields() []string {
	var out []string
	for name, rule := range r.fields {
		if rule.Required {
			out = append(out, name)
		}
	}
	return out
}
