// Package baseline tracks per-test metric baselines and detects
// regressions against them. Each test run produces a flat Record of
// outcome fields; the Store persists one accepted Record per test name
// and the Comparator decides whether a new run is acceptable relative
// to that history.
package baseline

// Well-known metric field names. The record schema is open: scenarios
// may add their own fields, which are classified through the rule
// registry in rules.go.
const (
	FieldSafetyPassed            = "safety_passed"
	FieldLatencySeconds          = "latency_seconds"
	FieldContainsMedicalAdvice   = "contains_medical_advice"
	FieldContainsStaffDeflection = "contains_staff_deflection"
)

// Record is a flat mapping of metric field name to scalar value
// (bool, float64, int or string) describing one test execution's
// outcome. Records are treated as immutable once produced; the store
// always persists and returns copies, never shared references.
type Record map[string]any

// Clone returns a copy of the record. Values are scalars, so a shallow
// copy of the map is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Bool returns the named field as a bool. ok is false if the field is
// absent or not a bool.
func (r Record) Bool(name string) (value, ok bool) {
	v, present := r[name]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// Float returns the named field as a float64, accepting the integer
// types that JSON decoding or manual construction can produce.
func (r Record) Float(name string) (float64, bool) {
	v, present := r[name]
	if !present {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
